package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	learningrepos "github.com/yungbote/learny-backend/internal/data/repos/learning"
	"github.com/yungbote/learny-backend/internal/data/repos/testutil"
	"github.com/yungbote/learny-backend/internal/realtime"
)

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func (e *recordingEmitter) events(channel string) []realtime.SSEMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []realtime.SSEMessage
	for _, m := range e.msgs {
		if channel == "" || m.Channel == channel {
			out = append(out, m)
		}
	}
	return out
}

func newTestCourseService(t *testing.T, db *gorm.DB, emit SSEEmitter) CourseService {
	t.Helper()
	log := testutil.Logger(t)
	return NewCourseService(
		db,
		log,
		learningrepos.NewCourseRepo(db, log),
		learningrepos.NewLessonRepo(db, log),
		learningrepos.NewQuizQuestionRepo(db, log),
		emit,
	)
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/learny-backend/internal/domain/learning"
	"github.com/yungbote/learny-backend/internal/modules/coursechat"
	"github.com/yungbote/learny-backend/internal/observability"
	"github.com/yungbote/learny-backend/internal/pkg/ctxutil"
	"github.com/yungbote/learny-backend/internal/pkg/dbctx"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
	"github.com/yungbote/learny-backend/internal/realtime"
)

// Lessons generated one after another before the rest fan out.
const sequentialLessons = 2

type LessonContentGenerator interface {
	LessonContent(ctx context.Context, topic, lessonTitle string) (coursechat.GeneratedLesson, error)
}

type LessonContentReport struct {
	CourseID  uuid.UUID     `json:"course_id"`
	Generated int           `json:"generated"`
	Failed    int           `json:"failed"`
	Course    *types.Course `json:"course"`
}

type LessonContentService interface {
	Generate(dbc dbctx.Context, courseID uuid.UUID) (*LessonContentReport, error)
}

type lessonContentService struct {
	log         *logger.Logger
	courses     CourseService
	gen         LessonContentGenerator
	emit        SSEEmitter
	metrics     *observability.Metrics
	concurrency int
}

func NewLessonContentService(
	baseLog *logger.Logger,
	courses CourseService,
	gen LessonContentGenerator,
	emit SSEEmitter,
	metrics *observability.Metrics,
	concurrency int,
) LessonContentService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &lessonContentService{
		log:         baseLog.With("service", "LessonContentService"),
		courses:     courses,
		gen:         gen,
		emit:        emit,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

type lessonResult struct {
	content coursechat.GeneratedLesson
	err     error
}

// Generate fills every lesson of a course with generated content. The first
// lessons are produced in order so a learner can start right away; the rest
// run in parallel. A lesson whose generation fails keeps its blocks.
func (s *lessonContentService) Generate(dbc dbctx.Context, courseID uuid.UUID) (*LessonContentReport, error) {
	ctx := ctxutil.Default(dbc.Ctx)
	course, err := s.courses.GetCourse(dbc, courseID)
	if err != nil {
		return nil, err
	}

	results := make([]lessonResult, len(course.Lessons))
	generate := func(ctx context.Context, i int) {
		l := course.Lessons[i]
		content, err := s.gen.LessonContent(ctx, course.Topic, l.Title)
		results[i] = lessonResult{content: content, err: err}
	}

	head := min(sequentialLessons, len(course.Lessons))
	for i := 0; i < head; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		generate(ctx, i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := head; i < len(course.Lessons); i++ {
		i := i
		g.Go(func() error {
			generate(gctx, i)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &LessonContentReport{CourseID: courseID}
	updates := make([]LessonContentUpdate, 0, len(results))
	for i, r := range results {
		l := course.Lessons[i]
		if r.err != nil {
			report.Failed++
			s.metrics.IncLessonContent("failure")
			s.log.Warn("Lesson content generation failed", "course_id", courseID, "lesson_id", l.ID, "error", r.err)
			continue
		}
		report.Generated++
		s.metrics.IncLessonContent("ok")
		updates = append(updates, LessonContentUpdate{
			LessonID: l.ID,
			Blocks:   r.content.Blocks,
			Quiz:     r.content.Quiz,
		})
	}

	if err := s.courses.ReplaceLessonContent(dbc, courseID, updates); err != nil {
		return nil, fmt.Errorf("save lesson content: %w", err)
	}
	updated, err := s.courses.GetCourse(dbc, courseID)
	if err != nil {
		return nil, err
	}
	report.Course = updated

	s.log.Info("Lesson content generated", "course_id", courseID, "generated", report.Generated, "failed", report.Failed)
	if s.emit != nil {
		s.emit.Emit(ctx, realtime.SSEMessage{
			Channel: realtime.CoursesChannel,
			Event:   realtime.SSEEventLessonContentReady,
			Data:    map[string]any{"course_id": courseID, "generated": report.Generated, "failed": report.Failed},
		})
	}
	return report, nil
}

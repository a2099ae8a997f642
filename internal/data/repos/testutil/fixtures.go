package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/learny-backend/internal/domain/learning"
)

// SeedCourse inserts a course with n lessons; only the first is unlocked.
func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, topic string, n int) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:             uuid.New(),
		Title:          topic,
		Topic:          topic,
		Difficulty:     types.DifficultyBeginner,
		Pace:           types.PaceBalanced,
		CreationMethod: types.CreationAIAssistant,
	}
	for i := 0; i < n; i++ {
		c.Lessons = append(c.Lessons, &types.Lesson{
			ID:            uuid.New(),
			CourseID:      c.ID,
			Position:      i,
			Title:         fmt.Sprintf("lesson %d", i+1),
			ContentBlocks: datatypes.NewJSONSlice([]types.ContentBlock{types.NewTextBlock("content")}),
			IsUnlocked:    i == 0,
		})
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, correct []int) []*types.QuizQuestion {
	tb.Helper()
	out := make([]*types.QuizQuestion, 0, len(correct))
	for i, idx := range correct {
		out = append(out, &types.QuizQuestion{
			ID:           uuid.New(),
			LessonID:     lessonID,
			Position:     i,
			Prompt:       fmt.Sprintf("question %d", i+1),
			Options:      datatypes.NewJSONSlice([]string{"a", "b", "c", "d"}),
			CorrectIndex: idx,
		})
	}
	if len(out) == 0 {
		return out
	}
	if err := tx.WithContext(ctx).Create(&out).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	return out
}

package coursechat

import (
	"context"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/learny-backend/internal/domain/learning"
	pkgerrors "github.com/yungbote/learny-backend/internal/pkg/errors"
)

// Materialize builds a course from selected suggestions, in the given order.
// Each lesson starts with a single text block holding the suggestion's
// description; only the first lesson is unlocked.
func Materialize(topic string, selected []LessonSuggestion) *types.Course {
	course := &types.Course{
		ID:             uuid.New(),
		Title:          topic,
		Topic:          topic,
		Difficulty:     types.DifficultyBeginner,
		Pace:           types.PaceBalanced,
		CreationMethod: types.CreationAIAssistant,
		Lessons:        make([]*types.Lesson, 0, len(selected)),
	}
	for i, s := range selected {
		course.Lessons = append(course.Lessons, &types.Lesson{
			ID:            uuid.New(),
			CourseID:      course.ID,
			Position:      i,
			Title:         s.Title,
			ContentBlocks: []types.ContentBlock{types.NewTextBlock(s.Description)},
			IsUnlocked:    i == 0,
		})
	}
	return course
}

type FinalizeOptions struct {
	// Order lists suggestion ids in the order the user arranged them.
	Order      []uuid.UUID
	Title      string
	Difficulty types.Difficulty
	Pace       types.Pace
}

func (o FinalizeOptions) validate() error {
	if o.Difficulty != "" && !o.Difficulty.Valid() {
		return pkgerrors.ErrInvalidArgument
	}
	if o.Pace != "" && !o.Pace.Valid() {
		return pkgerrors.ErrInvalidArgument
	}
	return nil
}

func (o FinalizeOptions) apply(course *types.Course) {
	if t := strings.TrimSpace(o.Title); t != "" {
		course.Title = t
	}
	if o.Difficulty != "" {
		course.Difficulty = o.Difficulty
	}
	if o.Pace != "" {
		course.Pace = o.Pace
	}
}

// SaveFunc persists a finalized course.
type SaveFunc func(ctx context.Context, course *types.Course) error

// Finalize reconciles the goal once more, materializes the selection and
// hands the course to save. On success the conversation is closed; on
// failure it returns to the phase it was in and can be finalized again.
//
// Once started, finalizing runs to completion even if ctx ends, and Finalize
// waits for it so the caller always learns whether the course was saved. Save
// receives the conversation's context, not ctx.
func (c *Conversation) Finalize(ctx context.Context, opts FinalizeOptions, save SaveFunc) (*types.Course, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if err := c.checkOpenLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.resume = c.phase
	c.phase = PhaseFinalizing
	c.changed()
	c.mu.Unlock()

	var (
		course *types.Course
		ferr   error
	)
	ok := c.queue.await(context.WithoutCancel(ctx), func(wctx context.Context) {
		course, ferr = c.finalize(wctx, opts, save)
	})
	if !ok {
		return nil, pkgerrors.ErrConversationClosed
	}
	return course, ferr
}

func (c *Conversation) finalize(ctx context.Context, opts FinalizeOptions, save SaveFunc) (*types.Course, error) {
	c.reconcile(ctx)

	c.mu.Lock()
	selected := c.pool.selected(opts.Order)
	c.mu.Unlock()

	if len(selected) == 0 {
		c.revertFinalize()
		return nil, pkgerrors.ErrNothingSelected
	}

	course := Materialize(c.topic, selected)
	opts.apply(course)
	if save != nil {
		if err := save(ctx, course); err != nil {
			c.log.Warn("Finalize save failed", "error", err)
			c.revertFinalize()
			return nil, err
		}
	}

	c.mu.Lock()
	if c.phase == PhaseFinalizing {
		c.phase = PhaseFinalized
		c.changed()
	}
	c.mu.Unlock()
	c.cancel()

	c.log.Info("Conversation finalized", "course_id", course.ID, "lessons", len(course.Lessons))
	return course, nil
}

func (c *Conversation) revertFinalize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseFinalizing {
		return
	}
	c.phase = c.resume
	c.changed()
}

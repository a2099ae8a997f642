package coursechat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/learny-backend/internal/domain/learning"
	pkgerrors "github.com/yungbote/learny-backend/internal/pkg/errors"
)

func TestMaterialize(t *testing.T) {
	selected := []LessonSuggestion{
		{ID: uuid.New(), Title: "Basics", Description: "Start here", IsSelected: true},
		{ID: uuid.New(), Title: "Types", Description: "The type system", IsSelected: true},
		{ID: uuid.New(), Title: "Errors", Description: "", IsSelected: true},
	}
	course := Materialize("Go", selected)

	assert.NotEqual(t, uuid.Nil, course.ID)
	assert.Equal(t, "Go", course.Title)
	assert.Equal(t, "Go", course.Topic)
	assert.Equal(t, types.DifficultyBeginner, course.Difficulty)
	assert.Equal(t, types.PaceBalanced, course.Pace)
	assert.Equal(t, types.CreationAIAssistant, course.CreationMethod)
	require.Len(t, course.Lessons, len(selected))
	for i, l := range course.Lessons {
		assert.Equal(t, selected[i].Title, l.Title)
		assert.Equal(t, i, l.Position)
		assert.Equal(t, course.ID, l.CourseID)
		assert.Equal(t, i == 0, l.IsUnlocked)
		assert.False(t, l.IsComplete)
		require.Len(t, l.ContentBlocks, 1)
		assert.Equal(t, types.BlockText, l.ContentBlocks[0].Type)
		assert.Equal(t, selected[i].Description, l.ContentBlocks[0].Text)
	}
}

func TestMaterializeEmpty(t *testing.T) {
	course := Materialize("Go", nil)
	assert.Empty(t, course.Lessons)
}

func readyConversation(t *testing.T, gen *scriptedGen, option string, pick ...int) (*Conversation, Snapshot) {
	t.Helper()
	c := newTestConversation(t, gen)
	require.NoError(t, c.SelectLessonCount(option))
	flush(t, c)
	s := c.Snapshot()
	for _, i := range pick {
		require.NoError(t, c.ToggleSelection(s.Suggestions[i].ID))
	}
	return c, c.Snapshot()
}

func TestFinalizeUsesUserOrder(t *testing.T) {
	gen := newScriptedGen().reply(kindInitial, lessonsJSON("Intro", 4))
	c, s := readyConversation(t, gen, "3-5 lessons", 0, 1, 2)

	var saved *types.Course
	order := []uuid.UUID{s.Suggestions[2].ID, s.Suggestions[3].ID, s.Suggestions[0].ID}
	course, err := c.Finalize(context.Background(), FinalizeOptions{
		Order:      order,
		Title:      "  My Go course ",
		Difficulty: types.DifficultyIntermediate,
	}, func(ctx context.Context, course *types.Course) error {
		saved = course
		return nil
	})
	require.NoError(t, err)
	require.Same(t, course, saved)

	titles := make([]string, 0, len(course.Lessons))
	for _, l := range course.Lessons {
		titles = append(titles, l.Title)
	}
	// unselected ids in order are ignored; selected ids missing from order trail
	assert.Equal(t, []string{"Intro 3", "Intro 1", "Intro 2"}, titles)
	assert.Equal(t, "My Go course", course.Title)
	assert.Equal(t, types.DifficultyIntermediate, course.Difficulty)
	assert.Equal(t, types.PaceBalanced, course.Pace)
	assert.Empty(t, gen.callsOf(kindFulfill))

	assert.Equal(t, PhaseFinalized, c.Phase())
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("conversation not closed after finalize")
	}
	assert.ErrorIs(t, c.ToggleSelection(s.Suggestions[0].ID), pkgerrors.ErrConversationClosed)
	assert.ErrorIs(t, c.AddUserMessage("more"), pkgerrors.ErrConversationClosed)
	_, err = c.Reconcile(context.Background())
	assert.ErrorIs(t, err, pkgerrors.ErrConversationClosed)
}

func TestFinalizeReconcilesFirst(t *testing.T) {
	gen := newScriptedGen().
		reply(kindInitial, lessonsJSON("Intro", 4)).
		reply(kindFulfill, lessonsJSON("Extra", 2))
	c, _ := readyConversation(t, gen, "5-10 lessons", 0, 1, 2)

	course, err := c.Finalize(context.Background(), FinalizeOptions{}, nil)
	require.NoError(t, err)
	require.Len(t, course.Lessons, 5)
	assert.Equal(t, "Extra 1", course.Lessons[3].Title)
	assert.Equal(t, "Extra 2", course.Lessons[4].Title)
}

func TestFinalizeNothingSelected(t *testing.T) {
	gen := newScriptedGen().reply(kindInitial, lessonsJSON("Intro", 4))
	c, _ := readyConversation(t, gen, "whatever")

	_, err := c.Finalize(context.Background(), FinalizeOptions{}, nil)
	assert.ErrorIs(t, err, pkgerrors.ErrNothingSelected)
	assert.Equal(t, PhaseSuggestionsShown, c.Phase())
}

func TestFinalizeSaveFailureReverts(t *testing.T) {
	gen := newScriptedGen().reply(kindInitial, lessonsJSON("Intro", 4))
	c, s := readyConversation(t, gen, "3-5 lessons", 0, 1, 2)

	boom := errors.New("disk full")
	_, err := c.Finalize(context.Background(), FinalizeOptions{}, func(context.Context, *types.Course) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, PhaseSuggestionsShown, c.Phase())

	require.NoError(t, c.ToggleSelection(s.Suggestions[3].ID))
	course, err := c.Finalize(context.Background(), FinalizeOptions{}, nil)
	require.NoError(t, err)
	assert.Len(t, course.Lessons, 4)
}

func TestFinalizeOutlivesCallerContext(t *testing.T) {
	gen := newScriptedGen().reply(kindInitial, lessonsJSON("Intro", 4))
	c, _ := readyConversation(t, gen, "3-5 lessons", 0, 1, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	saved := false
	course, err := c.Finalize(ctx, FinalizeOptions{}, func(saveCtx context.Context, course *types.Course) error {
		time.Sleep(200 * time.Millisecond)
		if err := saveCtx.Err(); err != nil {
			return err
		}
		saved = true
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, course)
	assert.True(t, saved)
	assert.Error(t, ctx.Err())
	assert.Equal(t, PhaseFinalized, c.Phase())
}

func TestFinalizeRejectsBadOptions(t *testing.T) {
	gen := newScriptedGen().reply(kindInitial, lessonsJSON("Intro", 4))
	c, _ := readyConversation(t, gen, "3-5 lessons", 0)

	_, err := c.Finalize(context.Background(), FinalizeOptions{Pace: "sprint"}, nil)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
	assert.Equal(t, PhaseSuggestionsShown, c.Phase())
}

func TestEditsWhileFinalizingAreBusy(t *testing.T) {
	gen := newScriptedGen().reply(kindInitial, lessonsJSON("Intro", 4))
	c, s := readyConversation(t, gen, "3-5 lessons", 0, 1, 2)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := c.Finalize(context.Background(), FinalizeOptions{}, func(context.Context, *types.Course) error {
			close(entered)
			<-release
			return nil
		})
		done <- err
	}()
	<-entered

	assert.Equal(t, PhaseFinalizing, c.Phase())
	assert.ErrorIs(t, c.ToggleSelection(s.Suggestions[3].ID), pkgerrors.ErrConversationBusy)
	assert.ErrorIs(t, c.RequestMoreSuggestions(), pkgerrors.ErrConversationBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, PhaseFinalized, c.Phase())
}

func TestCancelDiscardsInFlightResult(t *testing.T) {
	started := make(chan struct{})
	gen := newScriptedGen().on(kindInitial, func(ctx context.Context, user string) (string, error) {
		close(started)
		<-ctx.Done()
		return lessonsJSON("Late", 4), nil
	})
	c := newTestConversation(t, gen)
	require.NoError(t, c.SelectLessonCount("3-5 lessons"))
	<-started

	before := c.Snapshot()
	c.Cancel()
	c.Cancel()

	<-c.Done()
	assert.ErrorIs(t, c.Flush(context.Background()), pkgerrors.ErrConversationClosed)
	after := c.Snapshot()
	assert.Equal(t, PhaseCancelled, after.Phase)
	assert.Equal(t, before.Turns, after.Turns)
	assert.Empty(t, after.Suggestions)
	assert.ErrorIs(t, c.SelectLessonCount("3-5 lessons"), pkgerrors.ErrConversationClosed)
}

func TestObserversSeeOrderedVersions(t *testing.T) {
	gen := newScriptedGen().
		reply(kindInitial, lessonsJSON("Intro", 4)).
		reply(kindClarify, `{"question":"Which part?","options":["A","B"]}`)
	c := newTestConversation(t, gen)

	var versions []uint64
	stop := c.Observe(func(s Snapshot) { versions = append(versions, s.Version) })

	require.NoError(t, c.SelectLessonCount("3-5 lessons"))
	require.NoError(t, c.AddUserMessage("generics"))
	flush(t, c)
	stop()

	n := len(versions)
	require.NoError(t, c.RequestMoreSuggestions())
	flush(t, c)

	require.NotEmpty(t, versions)
	assert.Len(t, versions, n)
	for i := 1; i < len(versions); i++ {
		assert.Equal(t, versions[i-1]+1, versions[i])
	}
}

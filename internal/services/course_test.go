package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/learny-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learny-backend/internal/domain/learning"
	"github.com/yungbote/learny-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/learny-backend/internal/pkg/errors"
	"github.com/yungbote/learny-backend/internal/pkg/pointers"
	"github.com/yungbote/learny-backend/internal/realtime"
)

func newCourse(topic string, lessons ...string) *types.Course {
	c := &types.Course{
		ID:             uuid.New(),
		Title:          topic,
		Topic:          topic,
		Difficulty:     types.DifficultyBeginner,
		Pace:           types.PaceBalanced,
		CreationMethod: types.CreationAIAssistant,
	}
	for i, title := range lessons {
		c.Lessons = append(c.Lessons, &types.Lesson{
			ID:            uuid.New(),
			CourseID:      c.ID,
			Position:      i,
			Title:         title,
			ContentBlocks: datatypes.NewJSONSlice([]types.ContentBlock{types.NewTextBlock(title)}),
			IsUnlocked:    i == 0,
		})
	}
	return c
}

func TestCourseServiceAddGetLoad(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	emit := &recordingEmitter{}
	svc := newTestCourseService(t, tx, emit)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	course := newCourse("Go", "Basics", "Types")
	require.NoError(t, svc.AddCourse(dbc, course))

	got, err := svc.GetCourse(dbc, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Title)
	require.Len(t, got.Lessons, 2)
	assert.Equal(t, "Basics", got.Lessons[0].Title)
	assert.True(t, got.Lessons[0].IsUnlocked)
	assert.False(t, got.Lessons[1].IsUnlocked)

	all, err := svc.LoadCourses(dbc)
	require.NoError(t, err)
	found := false
	for _, c := range all {
		found = found || c.ID == course.ID
	}
	assert.True(t, found)

	events := emit.events(realtime.CoursesChannel)
	require.Len(t, events, 1)
	assert.Equal(t, realtime.SSEEventCourseSaved, events[0].Event)

	_, err = svc.GetCourse(dbc, uuid.New())
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	assert.ErrorIs(t, svc.AddCourse(dbc, &types.Course{Title: "  "}), pkgerrors.ErrInvalidArgument)
	assert.ErrorIs(t, svc.AddCourse(dbc, nil), pkgerrors.ErrInvalidArgument)
}

func TestCourseServiceSaveCoursesReplacesLibrary(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newTestCourseService(t, tx, nil)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	old := testutil.SeedCourse(t, ctx, tx, "Old", 2)

	replacement := []*types.Course{newCourse("Rust", "Ownership"), newCourse("Zig", "Comptime", "Allocators")}
	require.NoError(t, svc.SaveCourses(dbc, replacement))

	all, err := svc.LoadCourses(dbc)
	require.NoError(t, err)
	require.Len(t, all, 2)
	titles := []string{all[0].Title, all[1].Title}
	assert.ElementsMatch(t, []string{"Rust", "Zig"}, titles)

	_, err = svc.GetCourse(dbc, old.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	require.NoError(t, svc.SaveCourses(dbc, nil))
	all, err = svc.LoadCourses(dbc)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCourseServiceUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	emit := &recordingEmitter{}
	svc := newTestCourseService(t, tx, emit)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	course := testutil.SeedCourse(t, ctx, tx, "Go", 2)

	pace := types.PaceDeepDive
	got, err := svc.UpdateCourse(dbc, course.ID, CourseUpdate{Title: pointers.String(" Go in depth "), Pace: &pace})
	require.NoError(t, err)
	assert.Equal(t, "Go in depth", got.Title)
	assert.Equal(t, types.PaceDeepDive, got.Pace)
	assert.Equal(t, types.DifficultyBeginner, got.Difficulty)

	bad := types.Difficulty("expert")
	_, err = svc.UpdateCourse(dbc, course.ID, CourseUpdate{Difficulty: &bad})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
	_, err = svc.UpdateCourse(dbc, uuid.New(), CourseUpdate{})
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	require.NoError(t, svc.DeleteCourse(dbc, course.ID))
	_, err = svc.GetCourse(dbc, course.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteCourse(dbc, course.ID), pkgerrors.ErrNotFound)

	events := emit.events(realtime.CoursesChannel)
	require.Len(t, events, 2)
	assert.Equal(t, realtime.SSEEventCourseDeleted, events[1].Event)
}

func TestCourseServiceCompleteLesson(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newTestCourseService(t, tx, nil)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	course := testutil.SeedCourse(t, ctx, tx, "Go", 3)

	got, err := svc.CompleteLesson(dbc, course.ID, course.Lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, got.Lessons[0].IsComplete)
	assert.True(t, got.Lessons[1].IsUnlocked)
	assert.False(t, got.Lessons[1].IsComplete)
	assert.False(t, got.Lessons[2].IsUnlocked)

	got, err = svc.CompleteLesson(dbc, course.ID, course.Lessons[2].ID)
	require.NoError(t, err)
	assert.True(t, got.Lessons[2].IsComplete)
	assert.True(t, got.Lessons[2].IsUnlocked)

	_, err = svc.CompleteLesson(dbc, course.ID, uuid.New())
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestCourseServiceSubmitQuiz(t *testing.T) {
	cases := []struct {
		name    string
		correct []int
		answers []int
		score   float64
		passed  bool
	}{
		{name: "all correct", correct: []int{0, 1, 2, 3, 0}, answers: []int{0, 1, 2, 3, 0}, score: 1, passed: true},
		{name: "threshold", correct: []int{0, 1, 2, 3, 0}, answers: []int{0, 1, 2, 3, 1}, score: 0.8, passed: true},
		{name: "below threshold", correct: []int{0, 1, 2, 3, 0}, answers: []int{0, 1, 2, 0, 1}, score: 0.6, passed: false},
		{name: "missing answers", correct: []int{0, 1, 2, 3, 0}, answers: []int{0, 1, 2}, score: 0.6, passed: false},
		{name: "no quiz", correct: nil, answers: nil, score: 1, passed: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			tx := testutil.Tx(t, testutil.DB(t))
			svc := newTestCourseService(t, tx, nil)
			dbc := dbctx.Context{Ctx: ctx, Tx: tx}
			course := testutil.SeedCourse(t, ctx, tx, "Go", 2)
			testutil.SeedQuiz(t, ctx, tx, course.Lessons[0].ID, tc.correct)

			res, err := svc.SubmitQuiz(dbc, course.ID, course.Lessons[0].ID, tc.answers)
			require.NoError(t, err)
			assert.InDelta(t, tc.score, res.Score, 1e-9)
			assert.Equal(t, tc.passed, res.Passed)
			assert.Equal(t, len(tc.correct), res.Total)
			assert.Equal(t, tc.passed, res.Course.Lessons[0].IsComplete)
			assert.Equal(t, tc.passed, res.Course.Lessons[1].IsUnlocked)
		})
	}
}

func TestCourseServiceSubmitQuizRejectsExtraAnswers(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newTestCourseService(t, tx, nil)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	course := testutil.SeedCourse(t, ctx, tx, "Go", 1)
	testutil.SeedQuiz(t, ctx, tx, course.Lessons[0].ID, []int{1})

	_, err := svc.SubmitQuiz(dbc, course.ID, course.Lessons[0].ID, []int{1, 2})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
}

func TestCourseServiceReplaceLessonContent(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newTestCourseService(t, tx, nil)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	course := testutil.SeedCourse(t, ctx, tx, "Go", 2)
	testutil.SeedQuiz(t, ctx, tx, course.Lessons[0].ID, []int{0, 0})

	blocks := []types.ContentBlock{
		types.NewTextBlock("Goroutines"),
		types.NewMatchingBlock([]types.MatchingPair{{Term: "go", Definition: "keyword"}}),
	}
	quiz := []*types.QuizQuestion{{Prompt: "What?", Options: datatypes.NewJSONSlice([]string{"a", "b"}), CorrectIndex: 1}}
	require.NoError(t, svc.ReplaceLessonContent(dbc, course.ID, []LessonContentUpdate{
		{LessonID: course.Lessons[0].ID, Blocks: blocks, Quiz: quiz},
		{LessonID: course.Lessons[1].ID, Blocks: blocks[:1]},
	}))

	got, err := svc.GetCourse(dbc, course.ID)
	require.NoError(t, err)
	require.Len(t, got.Lessons[0].ContentBlocks, 2)
	assert.Equal(t, types.BlockMatching, got.Lessons[0].ContentBlocks[1].Type)
	require.Len(t, got.Lessons[0].Quiz, 1)
	assert.Equal(t, "What?", got.Lessons[0].Quiz[0].Prompt)
	assert.Len(t, got.Lessons[1].ContentBlocks, 1)
	assert.Empty(t, got.Lessons[1].Quiz)

	err = svc.ReplaceLessonContent(dbc, course.ID, []LessonContentUpdate{{LessonID: uuid.New()}})
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

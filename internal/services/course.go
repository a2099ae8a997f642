package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	learningrepos "github.com/yungbote/learny-backend/internal/data/repos/learning"
	types "github.com/yungbote/learny-backend/internal/domain/learning"
	"github.com/yungbote/learny-backend/internal/pkg/ctxutil"
	"github.com/yungbote/learny-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/learny-backend/internal/pkg/errors"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
	"github.com/yungbote/learny-backend/internal/realtime"
)

// QuizPassThreshold is the minimum fraction of correct answers that passes a
// lesson quiz.
const QuizPassThreshold = 0.8

type CourseUpdate struct {
	Title      *string           `json:"title"`
	Difficulty *types.Difficulty `json:"difficulty"`
	Pace       *types.Pace       `json:"pace"`
}

type QuizResult struct {
	Correct int           `json:"correct"`
	Total   int           `json:"total"`
	Score   float64       `json:"score"`
	Passed  bool          `json:"passed"`
	Course  *types.Course `json:"course"`
}

// LessonContentUpdate replaces a lesson's blocks and, when Quiz is non-nil,
// its quiz.
type LessonContentUpdate struct {
	LessonID uuid.UUID
	Blocks   []types.ContentBlock
	Quiz     []*types.QuizQuestion
}

type CourseService interface {
	LoadCourses(dbc dbctx.Context) ([]*types.Course, error)
	// SaveCourses replaces the whole library with courses.
	SaveCourses(dbc dbctx.Context, courses []*types.Course) error
	AddCourse(dbc dbctx.Context, course *types.Course) error
	GetCourse(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error)
	UpdateCourse(dbc dbctx.Context, courseID uuid.UUID, upd CourseUpdate) (*types.Course, error)
	DeleteCourse(dbc dbctx.Context, courseID uuid.UUID) error
	CompleteLesson(dbc dbctx.Context, courseID, lessonID uuid.UUID) (*types.Course, error)
	SubmitQuiz(dbc dbctx.Context, courseID, lessonID uuid.UUID, answers []int) (*QuizResult, error)
	ReplaceLessonContent(dbc dbctx.Context, courseID uuid.UUID, updates []LessonContentUpdate) error
}

type courseService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo learningrepos.CourseRepo
	lessonRepo learningrepos.LessonRepo
	quizRepo   learningrepos.QuizQuestionRepo
	emit       SSEEmitter
}

func NewCourseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo learningrepos.CourseRepo,
	lessonRepo learningrepos.LessonRepo,
	quizRepo learningrepos.QuizQuestionRepo,
	emit SSEEmitter,
) CourseService {
	return &courseService{
		db:         db,
		log:        baseLog.With("service", "CourseService"),
		courseRepo: courseRepo,
		lessonRepo: lessonRepo,
		quizRepo:   quizRepo,
		emit:       emit,
	}
}

func (s *courseService) inTx(dbc dbctx.Context, fn func(tx *gorm.DB) error) error {
	return dbc.DB(s.db).Transaction(fn)
}

func (s *courseService) LoadCourses(dbc dbctx.Context) ([]*types.Course, error) {
	courses, err := s.courseRepo.ListAll(dbc.Ctx, dbc.Tx)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	return courses, nil
}

func (s *courseService) SaveCourses(dbc dbctx.Context, courses []*types.Course) error {
	for _, c := range courses {
		if err := validateCourse(c); err != nil {
			return err
		}
	}
	err := s.inTx(dbc, func(tx *gorm.DB) error {
		if err := s.courseRepo.FullDeleteAll(dbc.Ctx, tx); err != nil {
			return err
		}
		_, err := s.courseRepo.Create(dbc.Ctx, tx, courses)
		return err
	})
	if err != nil {
		return fmt.Errorf("save courses: %w", err)
	}
	s.log.Info("Course library replaced", "courses", len(courses))
	return nil
}

func (s *courseService) AddCourse(dbc dbctx.Context, course *types.Course) error {
	if err := validateCourse(course); err != nil {
		return err
	}
	if _, err := s.courseRepo.Create(dbc.Ctx, dbc.Tx, []*types.Course{course}); err != nil {
		return fmt.Errorf("add course: %w", err)
	}
	s.log.Info("Course added", "course_id", course.ID, "lessons", len(course.Lessons))
	s.notify(dbc, realtime.SSEEventCourseSaved, course)
	return nil
}

func (s *courseService) GetCourse(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error) {
	if courseID == uuid.Nil {
		return nil, pkgerrors.ErrInvalidArgument
	}
	courses, err := s.courseRepo.GetByIDs(dbc.Ctx, dbc.Tx, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if len(courses) == 0 || courses[0] == nil {
		return nil, pkgerrors.ErrNotFound
	}
	return courses[0], nil
}

func (s *courseService) UpdateCourse(dbc dbctx.Context, courseID uuid.UUID, upd CourseUpdate) (*types.Course, error) {
	updates := map[string]interface{}{}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, pkgerrors.ErrInvalidArgument
		}
		updates["title"] = title
	}
	if upd.Difficulty != nil {
		if !upd.Difficulty.Valid() {
			return nil, pkgerrors.ErrInvalidArgument
		}
		updates["difficulty"] = *upd.Difficulty
	}
	if upd.Pace != nil {
		if !upd.Pace.Valid() {
			return nil, pkgerrors.ErrInvalidArgument
		}
		updates["pace"] = *upd.Pace
	}
	if _, err := s.GetCourse(dbc, courseID); err != nil {
		return nil, err
	}
	if err := s.courseRepo.UpdateFields(dbc.Ctx, dbc.Tx, courseID, updates); err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	course, err := s.GetCourse(dbc, courseID)
	if err != nil {
		return nil, err
	}
	s.notify(dbc, realtime.SSEEventCourseSaved, course)
	return course, nil
}

func (s *courseService) DeleteCourse(dbc dbctx.Context, courseID uuid.UUID) error {
	if _, err := s.GetCourse(dbc, courseID); err != nil {
		return err
	}
	if err := s.courseRepo.FullDeleteByIDs(dbc.Ctx, dbc.Tx, []uuid.UUID{courseID}); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	s.log.Info("Course deleted", "course_id", courseID)
	s.notify(dbc, realtime.SSEEventCourseDeleted, map[string]any{"course_id": courseID})
	return nil
}

// CompleteLesson marks the lesson complete and unlocks the one after it.
func (s *courseService) CompleteLesson(dbc dbctx.Context, courseID, lessonID uuid.UUID) (*types.Course, error) {
	err := s.inTx(dbc, func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		course, err := s.GetCourse(inner, courseID)
		if err != nil {
			return err
		}
		return s.completeLesson(inner, course, lessonID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCourse(dbc, courseID)
}

func (s *courseService) completeLesson(dbc dbctx.Context, course *types.Course, lessonID uuid.UUID) error {
	idx := course.LessonIndex(lessonID)
	if idx < 0 {
		return pkgerrors.ErrNotFound
	}
	if err := s.lessonRepo.UpdateFields(dbc.Ctx, dbc.Tx, lessonID, map[string]interface{}{
		"is_complete": true,
		"is_unlocked": true,
	}); err != nil {
		return fmt.Errorf("complete lesson: %w", err)
	}
	if idx+1 < len(course.Lessons) {
		next := course.Lessons[idx+1]
		if err := s.lessonRepo.UpdateFields(dbc.Ctx, dbc.Tx, next.ID, map[string]interface{}{"is_unlocked": true}); err != nil {
			return fmt.Errorf("unlock next lesson: %w", err)
		}
	}
	return nil
}

// SubmitQuiz scores answers by question position. Missing answers count as
// wrong. A lesson without a quiz passes.
func (s *courseService) SubmitQuiz(dbc dbctx.Context, courseID, lessonID uuid.UUID, answers []int) (*QuizResult, error) {
	res := &QuizResult{}
	err := s.inTx(dbc, func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		course, err := s.GetCourse(inner, courseID)
		if err != nil {
			return err
		}
		idx := course.LessonIndex(lessonID)
		if idx < 0 {
			return pkgerrors.ErrNotFound
		}
		quiz := course.Lessons[idx].Quiz
		if len(answers) > len(quiz) {
			return pkgerrors.ErrInvalidArgument
		}
		res.Total = len(quiz)
		for i, q := range quiz {
			if i < len(answers) && answers[i] == q.CorrectIndex {
				res.Correct++
			}
		}
		res.Score = 1
		if res.Total > 0 {
			res.Score = float64(res.Correct) / float64(res.Total)
		}
		res.Passed = res.Score >= QuizPassThreshold
		if !res.Passed {
			return nil
		}
		return s.completeLesson(inner, course, lessonID)
	})
	if err != nil {
		return nil, err
	}
	course, err := s.GetCourse(dbc, courseID)
	if err != nil {
		return nil, err
	}
	res.Course = course
	s.log.Debug("Quiz submitted", "course_id", courseID, "lesson_id", lessonID, "score", res.Score, "passed", res.Passed)
	return res, nil
}

func (s *courseService) ReplaceLessonContent(dbc dbctx.Context, courseID uuid.UUID, updates []LessonContentUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return s.inTx(dbc, func(tx *gorm.DB) error {
		course, err := s.GetCourse(dbctx.Context{Ctx: dbc.Ctx, Tx: tx}, courseID)
		if err != nil {
			return err
		}
		for _, u := range updates {
			if course.LessonIndex(u.LessonID) < 0 {
				return pkgerrors.ErrNotFound
			}
			if err := s.lessonRepo.ReplaceContentBlocks(dbc.Ctx, tx, u.LessonID, u.Blocks); err != nil {
				return fmt.Errorf("replace blocks: %w", err)
			}
			if u.Quiz == nil {
				continue
			}
			if err := s.quizRepo.FullDeleteByLessonIDs(dbc.Ctx, tx, []uuid.UUID{u.LessonID}); err != nil {
				return fmt.Errorf("replace quiz: %w", err)
			}
			for i, q := range u.Quiz {
				q.LessonID = u.LessonID
				q.Position = i
			}
			if _, err := s.quizRepo.Create(dbc.Ctx, tx, u.Quiz); err != nil {
				return fmt.Errorf("replace quiz: %w", err)
			}
		}
		return nil
	})
}

func (s *courseService) notify(dbc dbctx.Context, event realtime.SSEEvent, data any) {
	if s.emit == nil {
		return
	}
	s.emit.Emit(ctxutil.Default(dbc.Ctx), realtime.SSEMessage{Channel: realtime.CoursesChannel, Event: event, Data: data})
}

func validateCourse(c *types.Course) error {
	if c == nil || strings.TrimSpace(c.Title) == "" {
		return pkgerrors.ErrInvalidArgument
	}
	if c.Difficulty != "" && !c.Difficulty.Valid() {
		return pkgerrors.ErrInvalidArgument
	}
	if c.Pace != "" && !c.Pace.Valid() {
		return pkgerrors.ErrInvalidArgument
	}
	return nil
}

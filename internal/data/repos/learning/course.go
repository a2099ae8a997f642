package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/learny-backend/internal/domain/learning"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
)

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Course, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Course, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error
	FullDeleteAll(ctx context.Context, tx *gorm.DB) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

func (r *courseRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

// withLessons preloads lessons and their quizzes in display order.
func withLessons(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Lessons.Quiz", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

// Create inserts courses together with their lessons and quiz questions.
func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error) {
	transaction := r.tx(tx)
	if len(courses) == 0 {
		return []*types.Course{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Course, error) {
	transaction := r.tx(tx)
	var results []*types.Course
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := withLessons(transaction.WithContext(ctx)).
		Where("id IN ?", courseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
	transaction := r.tx(tx)
	var results []*types.Course
	if err := withLessons(transaction.WithContext(ctx)).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) UpdateFields(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, updates map[string]interface{}) error {
	transaction := r.tx(tx)
	if courseID == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Course{}).
		Where("id = ?", courseID).
		Updates(updates).Error
}

func (r *courseRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error {
	transaction := r.tx(tx)
	if len(courseIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", courseIDs).
		Delete(&types.Course{}).Error
}

// FullDeleteByIDs hard-deletes courses and everything they own.
func (r *courseRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error {
	transaction := r.tx(tx)
	if len(courseIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		var lessonIDs []uuid.UUID
		if err := inner.Unscoped().Model(&types.Lesson{}).Where("course_id IN ?", courseIDs).Pluck("id", &lessonIDs).Error; err != nil {
			return err
		}
		if len(lessonIDs) > 0 {
			if err := inner.Unscoped().Where("lesson_id IN ?", lessonIDs).Delete(&types.QuizQuestion{}).Error; err != nil {
				return err
			}
		}
		if err := inner.Unscoped().Where("course_id IN ?", courseIDs).Delete(&types.Lesson{}).Error; err != nil {
			return err
		}
		return inner.Unscoped().Where("id IN ?", courseIDs).Delete(&types.Course{}).Error
	})
}

func (r *courseRepo) FullDeleteAll(ctx context.Context, tx *gorm.DB) error {
	transaction := r.tx(tx)
	return transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		for _, model := range []interface{}{&types.QuizQuestion{}, &types.Lesson{}, &types.Course{}} {
			if err := inner.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

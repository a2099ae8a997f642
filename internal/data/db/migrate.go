package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/learny-backend/internal/domain/learning"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&learning.Course{},
		&learning.Lesson{},
		&learning.QuizQuestion{},
	)
}

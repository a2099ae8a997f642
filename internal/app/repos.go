package app

import (
	"gorm.io/gorm"

	learningrepos "github.com/yungbote/learny-backend/internal/data/repos/learning"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
)

type Repos struct {
	Course       learningrepos.CourseRepo
	Lesson       learningrepos.LessonRepo
	QuizQuestion learningrepos.QuizQuestionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Course:       learningrepos.NewCourseRepo(db, log),
		Lesson:       learningrepos.NewLessonRepo(db, log),
		QuizQuestion: learningrepos.NewQuizQuestionRepo(db, log),
	}
}

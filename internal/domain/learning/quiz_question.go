package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizQuestion struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID     uuid.UUID                   `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Position     int                         `gorm:"column:position;not null" json:"position"`
	Prompt       string                      `gorm:"column:prompt;not null" json:"prompt"`
	Options      datatypes.JSONSlice[string] `gorm:"column:options" json:"options"`
	CorrectIndex int                         `gorm:"column:correct_index;not null" json:"correct_index"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }

func (q *QuizQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

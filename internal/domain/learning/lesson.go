package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Lesson struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Position int       `gorm:"column:position;not null" json:"position"`
	Title    string    `gorm:"column:title;not null" json:"title"`

	ContentBlocks datatypes.JSONSlice[ContentBlock] `gorm:"column:content_blocks" json:"content_blocks"`
	Quiz          []*QuizQuestion                   `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"quiz"`

	IsUnlocked bool `gorm:"column:is_unlocked;not null;default:false" json:"is_unlocked"`
	IsComplete bool `gorm:"column:is_complete;not null;default:false" json:"is_complete"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

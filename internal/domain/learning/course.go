package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

type Pace string

const (
	PaceQuickReview Pace = "quick_review"
	PaceBalanced    Pace = "balanced"
	PaceDeepDive    Pace = "deep_dive"
)

func (p Pace) Valid() bool {
	switch p {
	case PaceQuickReview, PaceBalanced, PaceDeepDive:
		return true
	}
	return false
}

type CreationMethod string

const (
	CreationGuidedSetup  CreationMethod = "guidedSetup"
	CreationAIAssistant  CreationMethod = "aiAssistant"
	CreationFromDocument CreationMethod = "fromDocument"
)

type Course struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Topic          string         `gorm:"column:topic;not null;index" json:"topic"`
	Difficulty     Difficulty     `gorm:"column:difficulty;not null;default:'beginner'" json:"difficulty"`
	Pace           Pace           `gorm:"column:pace;not null;default:'balanced'" json:"pace"`
	CreationMethod CreationMethod `gorm:"column:creation_method;not null;default:'aiAssistant'" json:"creation_method"`

	Lessons []*Lesson `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"lessons"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// LessonIndex returns the position of lessonID in c.Lessons, or -1.
func (c *Course) LessonIndex(lessonID uuid.UUID) int {
	if c == nil {
		return -1
	}
	for i, l := range c.Lessons {
		if l != nil && l.ID == lessonID {
			return i
		}
	}
	return -1
}

package entity

import (
	"time"

	"gorm.io/gorm"
)

// LessonRecord - stored lesson document, steps kept as a JSON blob
type LessonRecord struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	LessonID  string         `gorm:"uniqueIndex;size:100;not null" json:"lesson_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Language  string         `gorm:"size:50;not null;index" json:"language"`
	Level     string         `gorm:"size:20" json:"level"` // CEFR level, e.g. A1
	Steps     string         `gorm:"type:text;not null" json:"steps"` // JSON array of steps
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LessonRecord) TableName() string {
	return "lesson_records"
}

// AnswerLog - graded submission log per session
type AnswerLog struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	SessionID  string         `gorm:"size:100;not null;index" json:"session_id"`
	LessonID   string         `gorm:"size:100;not null;index" json:"lesson_id"`
	StepID     string         `gorm:"size:100;not null" json:"step_id"`
	UserAnswer string         `gorm:"type:text" json:"user_answer"`
	IsCorrect  bool           `gorm:"not null" json:"is_correct"`
	Score      *int           `json:"score,omitempty"` // only present for AI-graded answers
	Feedback   string         `gorm:"type:text" json:"feedback"`
	AnsweredAt time.Time      `gorm:"autoCreateTime" json:"answered_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AnswerLog) TableName() string {
	return "answer_logs"
}

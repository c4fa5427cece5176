package entity

import (
	"github.com/danuarta/lingolearn-be/internal/lesson"
	"github.com/danuarta/lingolearn-be/internal/session"
)

// OpenSessionRequest opens a lesson session, normal or review.
type OpenSessionRequest struct {
	LessonID      string `json:"lesson_id" validate:"required"`
	Review        bool   `json:"review"`
	Language      string `json:"language"`
	UserCEFRLevel string `json:"cefr_level"`
}

// SubmitAnswerRequest records an answer for one step. Choice is the option
// index for multiple choice; Text carries free-response input.
type SubmitAnswerRequest struct {
	StepID string `json:"step_id" validate:"required"`
	Choice *int   `json:"choice,omitempty"`
	Text   string `json:"text,omitempty"`
}

// NavigateRequest jumps to a step index, subject to the navigation gate.
type NavigateRequest struct {
	Index *int `json:"index" validate:"required"`
}

// SubmitAnswerResponse returns the grading outcome. Pending is true while AI
// grading is in flight and no feedback exists yet.
type SubmitAnswerResponse struct {
	StepID   string                 `json:"step_id"`
	Pending  bool                   `json:"pending"`
	Feedback *lesson.FeedbackResult `json:"feedback,omitempty"`
}

// SessionResponse wraps a state snapshot with its session id.
type SessionResponse struct {
	SessionID string           `json:"session_id"`
	Snapshot  session.Snapshot `json:"state"`
}

// LessonStep is a step as exposed to clients: authoritative answers stripped.
type LessonStep struct {
	ID       string          `json:"id"`
	Type     lesson.StepType `json:"type"`
	Content  string          `json:"content_markdown,omitempty"`
	ImageURL string          `json:"image_url,omitempty"`
	Question string          `json:"question,omitempty"`
	Options  []string        `json:"options,omitempty"`
	Hint     string          `json:"hint,omitempty"`
}

// LessonSummary is a catalog listing entry, no step content.
type LessonSummary struct {
	LessonID string `json:"lesson_id"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Level    string `json:"level"`
}

type LessonResponse struct {
	LessonID string       `json:"lesson_id"`
	Title    string       `json:"title"`
	Language string       `json:"language"`
	Level    string       `json:"level"`
	Steps    []LessonStep `json:"steps"`
}

// UpsertLessonRequest stores a lesson document in the catalog.
type UpsertLessonRequest struct {
	LessonID string        `json:"lesson_id" validate:"required"`
	Title    string        `json:"title" validate:"required"`
	Language string        `json:"language" validate:"required"`
	Level    string        `json:"level"`
	Steps    []lesson.Step `json:"steps" validate:"required,min=1"`
}

// AnswerLogItem is one graded submission from the answer log.
type AnswerLogItem struct {
	ID         uint   `json:"id"`
	LessonID   string `json:"lesson_id"`
	StepID     string `json:"step_id"`
	UserAnswer string `json:"user_answer"`
	IsCorrect  bool   `json:"is_correct"`
	Score      *int   `json:"score,omitempty"`
	Feedback   string `json:"feedback"`
	AnsweredAt string `json:"answered_at"`
}

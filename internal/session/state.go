package session

import (
	"context"
	"sort"

	"github.com/danuarta/lingolearn-be/internal/lesson"
)

// State is the mutable per-session state. It is owned exclusively by the
// Controller and never shared or aliased outside of it.
type State struct {
	CurrentStepIndex int
	CompletedSteps   map[int]bool
	Answers          map[string]lesson.Answer
	Feedback         map[string]*lesson.FeedbackResult
	ReviewMode       bool
	Completed        bool
}

func newState(review bool) State {
	return State{
		CompletedSteps: make(map[int]bool),
		Answers:        make(map[string]lesson.Answer),
		Feedback:       make(map[string]*lesson.FeedbackResult),
		ReviewMode:     review,
	}
}

// Progress is the persisted slice of session state exchanged with the progress
// collaborator. Nil pointer fields on load mean "no progress yet".
type Progress struct {
	LessonID       string `json:"lesson_id"`
	CurrentStep    int    `json:"current_step"`
	CompletedSteps []int  `json:"completed_steps"`
}

// ProgressStore is the remote progress collaborator. Load returning (nil, nil)
// means no progress has been recorded for the lesson.
type ProgressStore interface {
	Load(ctx context.Context, lessonID string) (*Progress, error)
	Save(ctx context.Context, progress Progress) error
	Clear(ctx context.Context, lessonID string) error
}

// CompletionResult is the aggregated payload emitted when the last step of a
// lesson is finished.
type CompletionResult struct {
	LessonID   string                            `json:"lesson_id"`
	Answers    map[string]lesson.Answer          `json:"answers"`
	Feedback   map[string]*lesson.FeedbackResult `json:"feedback"`
	TotalScore *int                              `json:"total_score,omitempty"`
}

// Completer receives the completion payload; server-side unit progress
// recomputation hangs off it.
type Completer interface {
	Complete(ctx context.Context, result CompletionResult) error
}

// Snapshot is a read-only copy of session state for serialization. can_advance
// is derived on every call, never stored.
type Snapshot struct {
	SessionID        string                            `json:"session_id"`
	LessonID         string                            `json:"lesson_id"`
	CurrentStepIndex int                               `json:"current_step_index"`
	CompletedSteps   []int                             `json:"completed_steps"`
	Answers          map[string]lesson.Answer          `json:"answers"`
	Feedback         map[string]*lesson.FeedbackResult `json:"feedback"`
	ReviewMode       bool                              `json:"review_mode"`
	Completed        bool                              `json:"completed"`
	CanAdvance       bool                              `json:"can_advance"`
	PendingSteps     []string                          `json:"pending_steps,omitempty"`
}

func sortedInts(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

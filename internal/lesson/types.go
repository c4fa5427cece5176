package lesson

import (
	"encoding/json"
	"fmt"
	"strings"
)

type StepType string

const (
	StepContent        StepType = "content"
	StepMultipleChoice StepType = "multiple_choice"
	StepFreeResponse   StepType = "free_response"
)

// GradingStrategy is resolved once per step when the lesson is loaded, so the
// precedence rules are never re-derived on submission.
type GradingStrategy string

const (
	StrategyNone             GradingStrategy = "none"              // content step or ungraded free response
	StrategyChoice           GradingStrategy = "choice"            // multiple choice with a resolvable correct index
	StrategyChoiceUnresolved GradingStrategy = "choice_unresolved" // authoring defect: no correct index resolvable
	StrategyAcceptedList     GradingStrategy = "accepted_list"     // free response matched against accepted responses
	StrategyAnswerKey        GradingStrategy = "answer_key"        // legacy single-answer free response
	StrategyAI               GradingStrategy = "ai"                // free response graded by the AI collaborator
)

// StringList unmarshals from either a single JSON string or an array of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("accepted_responses must be a string or a list of strings")
	}
	*s = StringList(list)
	return nil
}

type Step struct {
	ID       string   `json:"id"`
	Type     StepType `json:"type"`
	Content  string   `json:"content_markdown,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`

	// Multiple choice fields
	Question      string   `json:"question,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectIndex  *int     `json:"correct_index,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Feedback      string   `json:"feedback,omitempty"`

	// Free response fields
	Hint              string     `json:"hint,omitempty"`
	AcceptedResponses StringList `json:"accepted_responses,omitempty"`
	AnswerKey         string     `json:"answer_key,omitempty"`
	AIGrading         bool       `json:"ai_grading,omitempty"`

	// Resolved at load time, never serialized.
	Strategy      GradingStrategy `json:"-"`
	ResolvedIndex int             `json:"-"`
}

type Lesson struct {
	LessonID string `json:"lesson_id"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Level    string `json:"level"`
	Steps    []Step `json:"steps"`
}

// Answer is a learner submission for one step: an option index for multiple
// choice, free text otherwise.
type Answer struct {
	Choice *int   `json:"choice,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Parse decodes a lesson document and resolves grading strategies for every step.
func Parse(data []byte) (*Lesson, error) {
	var l Lesson
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("invalid lesson document: %w", err)
	}
	if err := l.Normalize(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Normalize validates step identity and resolves each step's grading strategy.
// It is idempotent and must be called before a lesson is handed to a session.
func (l *Lesson) Normalize() error {
	if l.LessonID == "" {
		return fmt.Errorf("lesson_id is required")
	}
	if len(l.Steps) == 0 {
		return fmt.Errorf("lesson %s has no steps", l.LessonID)
	}

	seen := make(map[string]bool, len(l.Steps))
	for i := range l.Steps {
		step := &l.Steps[i]
		if step.ID == "" {
			return fmt.Errorf("lesson %s: step %d has no id", l.LessonID, i)
		}
		if seen[step.ID] {
			return fmt.Errorf("lesson %s: duplicate step id %q", l.LessonID, step.ID)
		}
		seen[step.ID] = true

		switch step.Type {
		case StepContent, StepMultipleChoice, StepFreeResponse:
		default:
			return fmt.Errorf("lesson %s: step %q has unknown type %q", l.LessonID, step.ID, step.Type)
		}

		step.Strategy, step.ResolvedIndex = resolveStrategy(step)
	}
	return nil
}

// resolveStrategy maps a step onto its canonical grading strategy. For multiple
// choice it also resolves the authoritative correct index: correct_index wins,
// otherwise the first option whose trimmed text equals the trimmed correct_answer.
func resolveStrategy(step *Step) (GradingStrategy, int) {
	switch step.Type {
	case StepMultipleChoice:
		if step.CorrectIndex != nil {
			idx := *step.CorrectIndex
			if idx >= 0 && idx < len(step.Options) {
				return StrategyChoice, idx
			}
			return StrategyChoiceUnresolved, -1
		}
		if step.CorrectAnswer != "" {
			want := strings.TrimSpace(step.CorrectAnswer)
			for i, opt := range step.Options {
				if strings.TrimSpace(opt) == want {
					return StrategyChoice, i
				}
			}
		}
		return StrategyChoiceUnresolved, -1

	case StepFreeResponse:
		if len(step.AcceptedResponses) > 0 && !step.AIGrading {
			return StrategyAcceptedList, -1
		}
		if step.AnswerKey != "" && !step.AIGrading {
			return StrategyAnswerKey, -1
		}
		if step.AIGrading {
			return StrategyAI, -1
		}
		return StrategyNone, -1
	}

	return StrategyNone, -1
}

// Step returns the step with the given id, or nil.
func (l *Lesson) Step(id string) *Step {
	for i := range l.Steps {
		if l.Steps[i].ID == id {
			return &l.Steps[i]
		}
	}
	return nil
}

// StepIndex returns the position of the step with the given id, or -1.
func (l *Lesson) StepIndex(id string) int {
	for i := range l.Steps {
		if l.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// KnownCorrectAnswer returns the answer a review session should pre-fill for a
// step, resolved from the authoring data rather than by grading. The second
// return is false when no authoritative answer exists (AI-graded, ungraded, or
// unresolved steps).
func (s *Step) KnownCorrectAnswer() (Answer, bool) {
	switch s.Strategy {
	case StrategyChoice:
		idx := s.ResolvedIndex
		return Answer{Choice: &idx}, true
	case StrategyAcceptedList:
		return Answer{Text: s.AcceptedResponses[0]}, true
	case StrategyAnswerKey:
		return Answer{Text: s.AnswerKey}, true
	}
	return Answer{}, false
}

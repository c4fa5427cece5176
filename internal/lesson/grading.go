package lesson

import (
	"context"
	"strings"
)

// PassScore is the fixed AI-grading threshold: a score at or above it counts as
// correct.
const PassScore = 70

const (
	correctMessage = "Correct!"
	neutralMessage = "Answer recorded."
)

// FeedbackResult is the outcome of grading one step. Once recorded for a step it
// is final for the rest of the session.
type FeedbackResult struct {
	IsCorrect         bool     `json:"is_correct"`
	Message           string   `json:"message"`
	AcceptedResponses []string `json:"accepted_responses,omitempty"`
	Score             *int     `json:"score,omitempty"`
}

// GradeRequest carries the context the AI grading collaborator needs alongside
// the learner's answer.
type GradeRequest struct {
	Language      string
	UserCEFRLevel string
	Question      string
	UserAnswer    string
	LessonID      string
	LessonTitle   string
	CurrentStep   int
}

// Grader judges a free-response answer and returns a 0-100 score with feedback
// text. Implementations: the remote grading collaborator and the LLM-backed
// grader.
type Grader interface {
	GradeFreeResponse(ctx context.Context, req GradeRequest) (score int, feedback string, err error)
}

// GradeChoice grades a multiple-choice submission against the step's resolved
// correct index. ok is false when the step has no resolvable answer, in which
// case no feedback is produced and the step stays ungraded.
func GradeChoice(step *Step, submitted int) (result *FeedbackResult, ok bool) {
	if step.Strategy != StrategyChoice {
		return nil, false
	}

	if submitted == step.ResolvedIndex {
		msg := step.Feedback
		if msg == "" {
			msg = correctMessage
		}
		return &FeedbackResult{IsCorrect: true, Message: msg}, true
	}

	// Surface the right answer immediately, there is no separate reveal step.
	return &FeedbackResult{
		IsCorrect: false,
		Message:   "Not quite. The correct answer is: " + step.Options[step.ResolvedIndex],
	}, true
}

// GradeFreeResponse applies the free-response policy chain for strategies that
// grade locally (accepted list, answer key, ungraded). AI-graded steps go
// through GradeAI instead.
func GradeFreeResponse(step *Step, submitted string) *FeedbackResult {
	switch step.Strategy {
	case StrategyAcceptedList:
		accepted := []string(step.AcceptedResponses)
		for _, want := range accepted {
			if normalizedMatch(submitted, want) {
				return &FeedbackResult{IsCorrect: true, Message: correctMessage, AcceptedResponses: accepted}
			}
		}
		return &FeedbackResult{
			IsCorrect:         false,
			Message:           "Not quite. Accepted answers: " + strings.Join(accepted, ", "),
			AcceptedResponses: accepted,
		}

	case StrategyAnswerKey:
		if normalizedMatch(submitted, step.AnswerKey) {
			return &FeedbackResult{IsCorrect: true, Message: correctMessage, AcceptedResponses: []string{step.AnswerKey}}
		}
		return &FeedbackResult{
			IsCorrect:         false,
			Message:           "Not quite. The expected answer was: " + step.AnswerKey,
			AcceptedResponses: []string{step.AnswerKey},
		}
	}

	// No grading configured: completion only.
	return &FeedbackResult{IsCorrect: true, Message: neutralMessage}
}

// GradeAI submits the answer to the grading collaborator. On any failure it
// fails open: the learner's answer is treated as correct with a neutral message
// and no score, so a grading outage never blocks lesson progress.
func GradeAI(ctx context.Context, grader Grader, req GradeRequest) *FeedbackResult {
	if grader == nil {
		return &FeedbackResult{IsCorrect: true, Message: neutralMessage}
	}

	score, feedback, err := grader.GradeFreeResponse(ctx, req)
	if err != nil {
		return &FeedbackResult{IsCorrect: true, Message: neutralMessage}
	}

	return &FeedbackResult{
		IsCorrect: score >= PassScore,
		Message:   feedback,
		Score:     &score,
	}
}

// ReviewResult synthesizes the pre-filled answer and feedback a review session
// shows for a step. The answer comes from the authoring data via
// KnownCorrectAnswer, not from grading. ok is false for steps without an
// authoritative answer (content, AI-graded, ungraded, unresolved choice).
func (s *Step) ReviewResult() (Answer, *FeedbackResult, bool) {
	answer, ok := s.KnownCorrectAnswer()
	if !ok {
		return Answer{}, nil, false
	}

	switch s.Strategy {
	case StrategyChoice:
		msg := s.Feedback
		if msg == "" {
			msg = correctMessage
		}
		return answer, &FeedbackResult{IsCorrect: true, Message: msg}, true
	case StrategyAcceptedList:
		return answer, &FeedbackResult{IsCorrect: true, Message: correctMessage, AcceptedResponses: s.AcceptedResponses}, true
	case StrategyAnswerKey:
		return answer, &FeedbackResult{IsCorrect: true, Message: correctMessage, AcceptedResponses: []string{s.AnswerKey}}, true
	}
	return Answer{}, nil, false
}

func normalizedMatch(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

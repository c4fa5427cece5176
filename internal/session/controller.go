package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/danuarta/lingolearn-be/internal/lesson"
	"github.com/sirupsen/logrus"
)

var (
	// ErrAnswerRequired blocks advancing past a free-response step with no
	// non-empty submitted text. The only case where a user action is rejected
	// outright; state is left unchanged.
	ErrAnswerRequired = errors.New("an answer is required before advancing")

	// ErrGradingPending rejects actions on a step whose AI grading is still in
	// flight.
	ErrGradingPending = errors.New("grading is still in progress")

	// ErrNavigationBlocked rejects navigation to an unreachable step index.
	ErrNavigationBlocked = errors.New("step is not reachable yet")

	// ErrSessionCompleted rejects mutations after the session reached Completed.
	ErrSessionCompleted = errors.New("session is already completed")

	// ErrStepNotFound rejects submissions for unknown step ids.
	ErrStepNotFound = errors.New("step not found in lesson")
)

const defaultGradeTimeout = 15 * time.Second

type ControllerConfig struct {
	Lesson        *lesson.Lesson
	ReviewMode    bool
	Language      string // learner's target language, passed through to grading
	UserCEFRLevel string
	Grader        lesson.Grader
	Progress      ProgressStore
	Completer     Completer
	Log           *logrus.Logger
	GradeTimeout  time.Duration
}

// Controller sequences the steps of one open lesson. All state mutations happen
// under a single mutex; grading and persistence calls that may block run off
// the lock and reconcile through it.
type Controller struct {
	mu  sync.Mutex
	cfg ControllerConfig

	state    State
	pending  map[string]uint64 // step id -> submission generation for in-flight grading
	gradeGen uint64

	persistCh  chan persistRequest
	persistSeq uint64

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

type persistRequest struct {
	seq      uint64
	progress Progress
}

func NewController(cfg ControllerConfig) *Controller {
	if cfg.Log == nil {
		cfg.Log = logrus.New()
	}
	if cfg.GradeTimeout <= 0 {
		cfg.GradeTimeout = defaultGradeTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:       cfg,
		state:     newState(cfg.ReviewMode),
		pending:   make(map[string]uint64),
		persistCh: make(chan persistRequest, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init brings the session to its Active state. Normal sessions restore
// persisted progress (any load failure counts as "no progress yet"); review
// sessions synthesize correct answers for every resolvable step, mark all steps
// completed and never touch the progress collaborator.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.ReviewMode {
		c.initReviewLocked()
		return nil
	}

	go c.persistLoop()

	if c.cfg.Progress == nil {
		return nil
	}

	progress, err := c.cfg.Progress.Load(ctx, c.cfg.Lesson.LessonID)
	if err != nil {
		c.cfg.Log.WithError(err).Warnf("progress load failed for lesson %s, starting fresh", c.cfg.Lesson.LessonID)
		return nil
	}
	if progress == nil {
		return nil
	}

	if progress.CurrentStep >= 0 && progress.CurrentStep < len(c.cfg.Lesson.Steps) {
		c.state.CurrentStepIndex = progress.CurrentStep
	}
	for _, idx := range progress.CompletedSteps {
		if idx >= 0 && idx < len(c.cfg.Lesson.Steps) {
			c.state.CompletedSteps[idx] = true
		}
	}
	return nil
}

func (c *Controller) initReviewLocked() {
	for i := range c.cfg.Lesson.Steps {
		step := &c.cfg.Lesson.Steps[i]
		c.state.CompletedSteps[i] = true

		answer, feedback, ok := step.ReviewResult()
		if !ok {
			continue
		}
		c.state.Answers[step.ID] = answer
		c.state.Feedback[step.ID] = feedback
	}
	c.state.CurrentStepIndex = 0
}

// Submit records an answer for a step and grades it where the policy allows.
// Multiple choice grades immediately; free response grades on this explicit
// submit. A nil result with a nil error means grading is pending (AI) or the
// step has no authoritative answer.
func (c *Controller) Submit(stepID string, answer lesson.Answer) (*lesson.FeedbackResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("session is closed")
	}

	step := c.cfg.Lesson.Step(stepID)
	if step == nil {
		return nil, ErrStepNotFound
	}

	// Finality: once feedback exists the answer is immutable. Re-submission is
	// an idempotent no-op returning the recorded result.
	if existing, ok := c.state.Feedback[stepID]; ok {
		return existing, nil
	}
	if _, inFlight := c.pending[stepID]; inFlight {
		return nil, ErrGradingPending
	}

	switch step.Type {
	case lesson.StepMultipleChoice:
		if answer.Choice == nil || *answer.Choice < 0 || *answer.Choice >= len(step.Options) {
			return nil, fmt.Errorf("a valid option index is required")
		}
		c.state.Answers[stepID] = answer

		result, ok := lesson.GradeChoice(step, *answer.Choice)
		if !ok {
			// Authoring defect: no resolvable correct answer. The answer is
			// recorded, the step yields no feedback and must not crash.
			return nil, nil
		}
		c.state.Feedback[stepID] = result
		return result, nil

	case lesson.StepFreeResponse:
		c.state.Answers[stepID] = answer

		if step.Strategy == lesson.StrategyAI {
			c.startAIGradingLocked(step, answer.Text)
			return nil, nil
		}

		result := lesson.GradeFreeResponse(step, answer.Text)
		c.state.Feedback[stepID] = result
		return result, nil
	}

	return nil, fmt.Errorf("step %s does not take answers", stepID)
}

// startAIGradingLocked marks the step Pending and dispatches the grading call.
// A result arriving after teardown, or after the pending marker was superseded,
// is discarded instead of mutating a disposed session.
func (c *Controller) startAIGradingLocked(step *lesson.Step, text string) {
	c.gradeGen++
	gen := c.gradeGen
	c.pending[step.ID] = gen

	req := lesson.GradeRequest{
		Language:      c.cfg.Language,
		UserCEFRLevel: c.cfg.UserCEFRLevel,
		Question:      step.Question,
		UserAnswer:    text,
		LessonID:      c.cfg.Lesson.LessonID,
		LessonTitle:   c.cfg.Lesson.Title,
		CurrentStep:   c.cfg.Lesson.StepIndex(step.ID),
	}

	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.cfg.GradeTimeout)
		defer cancel()

		result := lesson.GradeAI(ctx, c.cfg.Grader, req)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.pending[step.ID] != gen {
			return
		}
		delete(c.pending, step.ID)
		c.state.Feedback[step.ID] = result
	}()
}

// PendingSteps reports steps whose grading is in flight.
func (c *Controller) PendingSteps() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.pending))
	for id := range c.pending {
		out = append(out, id)
	}
	return out
}

// CanAdvance is derived from state on every call, never cached: review mode
// always advances; content steps always advance; a multiple-choice step needs a
// recorded answer; a free-response step needs recorded feedback (a Pending step
// has none yet).
func (c *Controller) CanAdvance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canAdvanceLocked()
}

func (c *Controller) canAdvanceLocked() bool {
	if c.state.ReviewMode {
		return true
	}

	step := &c.cfg.Lesson.Steps[c.state.CurrentStepIndex]
	switch step.Type {
	case lesson.StepContent:
		return true
	case lesson.StepMultipleChoice:
		_, ok := c.state.Answers[step.ID]
		return ok
	case lesson.StepFreeResponse:
		_, ok := c.state.Feedback[step.ID]
		return ok
	}
	return false
}

// Advance finishes the current step and moves forward, or transitions to
// Completed from the last step. Outside review mode a free-response step with
// no non-empty answer (or with grading still pending) blocks the move without
// any state change.
func (c *Controller) Advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("session is closed")
	}
	if c.state.Completed {
		return ErrSessionCompleted
	}

	step := &c.cfg.Lesson.Steps[c.state.CurrentStepIndex]
	if !c.state.ReviewMode && step.Type == lesson.StepFreeResponse {
		if _, inFlight := c.pending[step.ID]; inFlight {
			return ErrGradingPending
		}
		if strings.TrimSpace(c.state.Answers[step.ID].Text) == "" {
			return ErrAnswerRequired
		}
	}

	c.state.CompletedSteps[c.state.CurrentStepIndex] = true

	if c.state.CurrentStepIndex == len(c.cfg.Lesson.Steps)-1 {
		c.state.Completed = true
		c.schedulePersistLocked()
		c.emitCompletionLocked()
		return nil
	}

	c.state.CurrentStepIndex++
	c.schedulePersistLocked()
	return nil
}

// Retreat moves one step back. It never mutates the completed set and never
// clears feedback.
func (c *Controller) Retreat() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("session is closed")
	}
	if c.state.CurrentStepIndex == 0 {
		return nil
	}
	c.state.CurrentStepIndex--
	c.schedulePersistLocked()
	return nil
}

// NavigateTo jumps to a step index if the navigation gate allows it.
func (c *Controller) NavigateTo(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("session is closed")
	}
	if !canNavigateTo(&c.state, index, len(c.cfg.Lesson.Steps)) {
		return ErrNavigationBlocked
	}
	if index == c.state.CurrentStepIndex {
		return nil
	}
	c.state.CurrentStepIndex = index
	c.schedulePersistLocked()
	return nil
}

// CanNavigateTo exposes the gate for rendering navigation affordances.
func (c *Controller) CanNavigateTo(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return canNavigateTo(&c.state, index, len(c.cfg.Lesson.Steps))
}

// Reset clears persisted progress and reinitializes the session from scratch
// in normal mode: index 0, empty answers. Used when a learner retakes a
// completed lesson.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("session is closed")
	}

	if c.cfg.Progress != nil {
		if err := c.cfg.Progress.Clear(ctx, c.cfg.Lesson.LessonID); err != nil {
			c.cfg.Log.WithError(err).Warnf("progress clear failed for lesson %s", c.cfg.Lesson.LessonID)
		}
	}

	wasReview := c.state.ReviewMode
	c.state = newState(false)
	c.pending = make(map[string]uint64)
	if wasReview {
		// Review sessions have no persist loop yet.
		go c.persistLoop()
	}
	return nil
}

// Close tears the session down. In-flight grading responses arriving afterwards
// are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.cancel()
}

// Snapshot returns a deep copy of the current state for serialization.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	answers := make(map[string]lesson.Answer, len(c.state.Answers))
	for k, v := range c.state.Answers {
		answers[k] = v
	}
	feedback := make(map[string]*lesson.FeedbackResult, len(c.state.Feedback))
	for k, v := range c.state.Feedback {
		copied := *v
		feedback[k] = &copied
	}
	pending := make([]string, 0, len(c.pending))
	for id := range c.pending {
		pending = append(pending, id)
	}

	return Snapshot{
		LessonID:         c.cfg.Lesson.LessonID,
		CurrentStepIndex: c.state.CurrentStepIndex,
		CompletedSteps:   sortedInts(c.state.CompletedSteps),
		Answers:          answers,
		Feedback:         feedback,
		ReviewMode:       c.state.ReviewMode,
		Completed:        c.state.Completed,
		CanAdvance:       c.canAdvanceLocked(),
		PendingSteps:     pending,
	}
}

// schedulePersistLocked enqueues a fire-and-forget progress write. The channel
// holds at most one snapshot; a newer write displaces a stale queued one so a
// slow response can never resurrect an older cursor (last-issued-wins). Review
// sessions never persist.
func (c *Controller) schedulePersistLocked() {
	if c.state.ReviewMode || c.closed || c.cfg.Progress == nil {
		return
	}

	c.persistSeq++
	req := persistRequest{
		seq: c.persistSeq,
		progress: Progress{
			LessonID:       c.cfg.Lesson.LessonID,
			CurrentStep:    c.state.CurrentStepIndex,
			CompletedSteps: sortedInts(c.state.CompletedSteps),
		},
	}

	for {
		select {
		case c.persistCh <- req:
			return
		default:
			select {
			case stale := <-c.persistCh:
				c.cfg.Log.Debugf("dropping stale progress write seq=%d for lesson %s", stale.seq, c.cfg.Lesson.LessonID)
			default:
			}
		}
	}
}

func (c *Controller) persistLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case req := <-c.persistCh:
			ctx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
			err := c.cfg.Progress.Save(ctx, req.progress)
			cancel()
			if err != nil {
				// Best effort, no retry: failures are logged, never surfaced.
				c.cfg.Log.WithError(err).Warnf("progress save failed for lesson %s (seq=%d)", req.progress.LessonID, req.seq)
			}
		}
	}
}

func (c *Controller) emitCompletionLocked() {
	if c.cfg.Completer == nil {
		return
	}

	result := CompletionResult{
		LessonID: c.cfg.Lesson.LessonID,
		Answers:  make(map[string]lesson.Answer, len(c.state.Answers)),
		Feedback: make(map[string]*lesson.FeedbackResult, len(c.state.Feedback)),
	}
	for k, v := range c.state.Answers {
		result.Answers[k] = v
	}
	graded, correct := 0, 0
	for k, v := range c.state.Feedback {
		copied := *v
		result.Feedback[k] = &copied
		graded++
		if v.IsCorrect {
			correct++
		}
	}
	if graded > 0 {
		score := correct * 100 / graded
		result.TotalScore = &score
	}

	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
		defer cancel()
		if err := c.cfg.Completer.Complete(ctx, result); err != nil {
			c.cfg.Log.WithError(err).Warnf("completion post failed for lesson %s", result.LessonID)
		}
	}()
}

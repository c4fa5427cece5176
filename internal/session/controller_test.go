package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danuarta/lingolearn-be/internal/lesson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProgress struct {
	mu         sync.Mutex
	stored     *Progress
	loadErr    error
	loadCalls  int
	saves      []Progress
	clearCalls int
}

func (f *fakeProgress) Load(_ context.Context, _ string) (*Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.stored, nil
}

func (f *fakeProgress) Save(_ context.Context, p Progress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, p)
	return nil
}

func (f *fakeProgress) Clear(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	return nil
}

func (f *fakeProgress) lastSave() (Progress, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return Progress{}, false
	}
	return f.saves[len(f.saves)-1], true
}

type fakeCompleter struct {
	mu      sync.Mutex
	results []CompletionResult
}

func (f *fakeCompleter) Complete(_ context.Context, result CompletionResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
	return nil
}

func (f *fakeCompleter) last() (CompletionResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return CompletionResult{}, false
	}
	return f.results[len(f.results)-1], true
}

// blockingGrader holds every grading call until release is closed.
type blockingGrader struct {
	release  chan struct{}
	score    int
	feedback string
}

func (g *blockingGrader) GradeFreeResponse(ctx context.Context, _ lesson.GradeRequest) (int, string, error) {
	select {
	case <-g.release:
		return g.score, g.feedback, nil
	case <-ctx.Done():
		return 0, "", ctx.Err()
	}
}

func intPtr(v int) *int { return &v }

func testLesson(t *testing.T) *lesson.Lesson {
	t.Helper()
	l := &lesson.Lesson{
		LessonID: "es-test-1",
		Title:    "Test Lesson",
		Language: "spanish",
		Level:    "A1",
		Steps: []lesson.Step{
			{ID: "intro", Type: lesson.StepContent, Content: "Welcome."},
			{ID: "pick", Type: lesson.StepMultipleChoice, Question: "Hello?", Options: []string{"Adios", "Hola"}, CorrectIndex: intPtr(1)},
			{ID: "capital", Type: lesson.StepFreeResponse, Question: "Capital of France?", AcceptedResponses: lesson.StringList{"paris"}},
		},
	}
	require.NoError(t, l.Normalize())
	return l
}

func aiLesson(t *testing.T) *lesson.Lesson {
	t.Helper()
	l := &lesson.Lesson{
		LessonID: "es-ai-1",
		Title:    "AI Lesson",
		Language: "spanish",
		Steps: []lesson.Step{
			{ID: "essay", Type: lesson.StepFreeResponse, Question: "Describe your day.", AIGrading: true},
		},
	}
	require.NoError(t, l.Normalize())
	return l
}

func newTestController(t *testing.T, cfg ControllerConfig) *Controller {
	t.Helper()
	if cfg.Lesson == nil {
		cfg.Lesson = testLesson(t)
	}
	c := NewController(cfg)
	t.Cleanup(c.Close)
	require.NoError(t, c.Init(context.Background()))
	return c
}

func TestInitRestoresProgress(t *testing.T) {
	store := &fakeProgress{stored: &Progress{LessonID: "es-test-1", CurrentStep: 1, CompletedSteps: []int{0}}}
	c := newTestController(t, ControllerConfig{Progress: store})

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.CurrentStepIndex)
	assert.Equal(t, []int{0}, snap.CompletedSteps)
	assert.Equal(t, 1, store.loadCalls)
}

func TestInitClampsOutOfRangeProgress(t *testing.T) {
	store := &fakeProgress{stored: &Progress{CurrentStep: 99, CompletedSteps: []int{0, 42}}}
	c := newTestController(t, ControllerConfig{Progress: store})

	snap := c.Snapshot()
	assert.Equal(t, 0, snap.CurrentStepIndex)
	assert.Equal(t, []int{0}, snap.CompletedSteps)
}

func TestInitLoadFailureStartsFresh(t *testing.T) {
	store := &fakeProgress{loadErr: errors.New("progress service down")}
	c := newTestController(t, ControllerConfig{Progress: store})

	snap := c.Snapshot()
	assert.Equal(t, 0, snap.CurrentStepIndex)
	assert.Empty(t, snap.CompletedSteps)
}

func TestInitReviewMode(t *testing.T) {
	store := &fakeProgress{stored: &Progress{CurrentStep: 2}}
	c := newTestController(t, ControllerConfig{ReviewMode: true, Progress: store})

	snap := c.Snapshot()
	assert.Zero(t, store.loadCalls, "review sessions never touch stored progress")
	assert.Equal(t, 0, snap.CurrentStepIndex)
	assert.Equal(t, []int{0, 1, 2}, snap.CompletedSteps)
	assert.True(t, snap.CanAdvance)
	assert.False(t, snap.Completed)

	require.Contains(t, snap.Answers, "pick")
	require.NotNil(t, snap.Answers["pick"].Choice)
	assert.Equal(t, 1, *snap.Answers["pick"].Choice)
	assert.True(t, snap.Feedback["pick"].IsCorrect)

	assert.Equal(t, "paris", snap.Answers["capital"].Text)
	assert.True(t, snap.Feedback["capital"].IsCorrect)

	assert.NotContains(t, snap.Answers, "intro")
}

func TestReviewModeNavigatesFreely(t *testing.T) {
	c := newTestController(t, ControllerConfig{ReviewMode: true})

	require.NoError(t, c.NavigateTo(2))
	require.NoError(t, c.NavigateTo(0))
	require.NoError(t, c.Advance())
	assert.Equal(t, 1, c.Snapshot().CurrentStepIndex)
}

func TestSubmitMultipleChoice(t *testing.T) {
	c := newTestController(t, ControllerConfig{})

	result, err := c.Submit("pick", lesson.Answer{Choice: intPtr(0)})
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)

	// Finality: re-submitting returns the recorded feedback unchanged.
	again, err := c.Submit("pick", lesson.Answer{Choice: intPtr(1)})
	require.NoError(t, err)
	assert.Same(t, result, again)

	snap := c.Snapshot()
	require.NotNil(t, snap.Answers["pick"].Choice)
	assert.Equal(t, 0, *snap.Answers["pick"].Choice)
}

func TestSubmitValidation(t *testing.T) {
	c := newTestController(t, ControllerConfig{})

	_, err := c.Submit("missing", lesson.Answer{Text: "x"})
	assert.ErrorIs(t, err, ErrStepNotFound)

	_, err = c.Submit("pick", lesson.Answer{})
	assert.Error(t, err)

	_, err = c.Submit("pick", lesson.Answer{Choice: intPtr(9)})
	assert.Error(t, err)

	_, err = c.Submit("intro", lesson.Answer{Text: "hello"})
	assert.Error(t, err)
}

func TestAdvanceGating(t *testing.T) {
	c := newTestController(t, ControllerConfig{})

	// Content steps always advance.
	assert.True(t, c.CanAdvance())
	require.NoError(t, c.Advance())

	// Multiple choice needs a recorded answer, correctness does not matter.
	assert.False(t, c.CanAdvance())
	_, err := c.Submit("pick", lesson.Answer{Choice: intPtr(0)})
	require.NoError(t, err)
	assert.True(t, c.CanAdvance())
	require.NoError(t, c.Advance())

	// Free response with no answer blocks without changing state.
	err = c.Advance()
	assert.ErrorIs(t, err, ErrAnswerRequired)
	assert.Equal(t, 2, c.Snapshot().CurrentStepIndex)
}

func TestFullRunEmitsCompletion(t *testing.T) {
	store := &fakeProgress{}
	completer := &fakeCompleter{}
	c := newTestController(t, ControllerConfig{Progress: store, Completer: completer})

	require.NoError(t, c.Advance())
	_, err := c.Submit("pick", lesson.Answer{Choice: intPtr(1)})
	require.NoError(t, err)
	require.NoError(t, c.Advance())
	_, err = c.Submit("capital", lesson.Answer{Text: "Paris"})
	require.NoError(t, err)
	require.NoError(t, c.Advance())

	snap := c.Snapshot()
	assert.True(t, snap.Completed)
	assert.Equal(t, []int{0, 1, 2}, snap.CompletedSteps)

	require.Eventually(t, func() bool {
		_, ok := completer.last()
		return ok
	}, time.Second, 10*time.Millisecond)

	result, _ := completer.last()
	assert.Equal(t, "es-test-1", result.LessonID)
	require.NotNil(t, result.TotalScore)
	assert.Equal(t, 100, *result.TotalScore)
	assert.Len(t, result.Answers, 2)

	err = c.Advance()
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestCompletionScoreCountsIncorrect(t *testing.T) {
	completer := &fakeCompleter{}
	c := newTestController(t, ControllerConfig{Completer: completer})

	require.NoError(t, c.Advance())
	_, err := c.Submit("pick", lesson.Answer{Choice: intPtr(0)})
	require.NoError(t, err)
	require.NoError(t, c.Advance())
	_, err = c.Submit("capital", lesson.Answer{Text: "paris"})
	require.NoError(t, err)
	require.NoError(t, c.Advance())

	require.Eventually(t, func() bool {
		_, ok := completer.last()
		return ok
	}, time.Second, 10*time.Millisecond)

	result, _ := completer.last()
	require.NotNil(t, result.TotalScore)
	assert.Equal(t, 50, *result.TotalScore)
}

func TestRetreatKeepsState(t *testing.T) {
	c := newTestController(t, ControllerConfig{})

	require.NoError(t, c.Advance())
	_, err := c.Submit("pick", lesson.Answer{Choice: intPtr(1)})
	require.NoError(t, err)
	require.NoError(t, c.Advance())

	require.NoError(t, c.Retreat())
	snap := c.Snapshot()
	assert.Equal(t, 1, snap.CurrentStepIndex)
	assert.Equal(t, []int{0, 1}, snap.CompletedSteps)
	assert.Contains(t, snap.Feedback, "pick")

	// Retreating at the first step is a no-op.
	require.NoError(t, c.Retreat())
	require.NoError(t, c.Retreat())
	assert.Equal(t, 0, c.Snapshot().CurrentStepIndex)
}

func TestNavigateToGate(t *testing.T) {
	c := newTestController(t, ControllerConfig{})

	err := c.NavigateTo(2)
	assert.ErrorIs(t, err, ErrNavigationBlocked)
	assert.False(t, c.CanNavigateTo(2))

	require.NoError(t, c.Advance())
	require.NoError(t, c.NavigateTo(0))
	assert.Equal(t, 0, c.Snapshot().CurrentStepIndex)
	assert.True(t, c.CanNavigateTo(1))
}

func TestAIGradingFlow(t *testing.T) {
	grader := &blockingGrader{release: make(chan struct{}), score: 85, feedback: "Nicely put."}
	c := newTestController(t, ControllerConfig{Lesson: aiLesson(t), Grader: grader})

	result, err := c.Submit("essay", lesson.Answer{Text: "Fue un buen dia."})
	require.NoError(t, err)
	assert.Nil(t, result, "AI grading resolves asynchronously")
	assert.Equal(t, []string{"essay"}, c.PendingSteps())

	// Pending grading blocks both advance and re-submission.
	err = c.Advance()
	assert.ErrorIs(t, err, ErrGradingPending)
	_, err = c.Submit("essay", lesson.Answer{Text: "otro intento"})
	assert.ErrorIs(t, err, ErrGradingPending)

	close(grader.release)

	require.Eventually(t, func() bool {
		return len(c.PendingSteps()) == 0
	}, time.Second, 10*time.Millisecond)

	snap := c.Snapshot()
	require.Contains(t, snap.Feedback, "essay")
	assert.True(t, snap.Feedback["essay"].IsCorrect)
	require.NotNil(t, snap.Feedback["essay"].Score)
	assert.Equal(t, 85, *snap.Feedback["essay"].Score)

	require.NoError(t, c.Advance())
	assert.True(t, c.Snapshot().Completed)
}

func TestAIGradingFailsOpen(t *testing.T) {
	grader := &blockingGrader{release: make(chan struct{})}
	c := newTestController(t, ControllerConfig{
		Lesson:       aiLesson(t),
		Grader:       grader,
		GradeTimeout: 20 * time.Millisecond,
	})

	_, err := c.Submit("essay", lesson.Answer{Text: "hola"})
	require.NoError(t, err)

	// The grader never answers; the timeout turns into a fail-open pass.
	require.Eventually(t, func() bool {
		return len(c.PendingSteps()) == 0
	}, time.Second, 10*time.Millisecond)

	snap := c.Snapshot()
	require.Contains(t, snap.Feedback, "essay")
	assert.True(t, snap.Feedback["essay"].IsCorrect)
	assert.Nil(t, snap.Feedback["essay"].Score)
}

func TestLateGradingResultDiscardedAfterClose(t *testing.T) {
	grader := &blockingGrader{release: make(chan struct{}), score: 90}
	c := newTestController(t, ControllerConfig{Lesson: aiLesson(t), Grader: grader})

	_, err := c.Submit("essay", lesson.Answer{Text: "hola"})
	require.NoError(t, err)

	c.Close()
	close(grader.release)

	time.Sleep(50 * time.Millisecond)
	snap := c.Snapshot()
	assert.NotContains(t, snap.Feedback, "essay")
}

func TestPersistLatestWins(t *testing.T) {
	store := &fakeProgress{}
	c := newTestController(t, ControllerConfig{Progress: store})

	require.NoError(t, c.Advance())
	_, err := c.Submit("pick", lesson.Answer{Choice: intPtr(1)})
	require.NoError(t, err)
	require.NoError(t, c.Advance())

	require.Eventually(t, func() bool {
		last, ok := store.lastSave()
		return ok && last.CurrentStep == 2
	}, time.Second, 10*time.Millisecond)

	last, _ := store.lastSave()
	assert.Equal(t, "es-test-1", last.LessonID)
	assert.Equal(t, []int{0, 1}, last.CompletedSteps)
}

func TestReviewModeNeverPersists(t *testing.T) {
	store := &fakeProgress{}
	c := newTestController(t, ControllerConfig{ReviewMode: true, Progress: store})

	require.NoError(t, c.Advance())
	require.NoError(t, c.Advance())

	time.Sleep(50 * time.Millisecond)
	_, saved := store.lastSave()
	assert.False(t, saved)
}

func TestResetStartsOver(t *testing.T) {
	store := &fakeProgress{}
	c := newTestController(t, ControllerConfig{Progress: store})

	require.NoError(t, c.Advance())
	_, err := c.Submit("pick", lesson.Answer{Choice: intPtr(1)})
	require.NoError(t, err)

	require.NoError(t, c.Reset(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, 0, snap.CurrentStepIndex)
	assert.Empty(t, snap.CompletedSteps)
	assert.Empty(t, snap.Answers)
	assert.False(t, snap.ReviewMode)
	assert.Equal(t, 1, store.clearCalls)
}

func TestResetTurnsReviewIntoNormalSession(t *testing.T) {
	c := newTestController(t, ControllerConfig{ReviewMode: true})

	require.NoError(t, c.Reset(context.Background()))

	snap := c.Snapshot()
	assert.False(t, snap.ReviewMode)
	assert.Empty(t, snap.Answers)
	assert.Empty(t, snap.CompletedSteps)
}

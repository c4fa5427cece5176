package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danuarta/lingolearn-be/internal/session"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

// Client talks to the remote learner-progress service. It implements both
// session.ProgressStore and session.Completer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

func NewClient(baseURL string, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
	}
}

type progressPayload struct {
	LessonID       string `json:"lesson_id"`
	CurrentStep    int    `json:"current_step"`
	CompletedSteps []int  `json:"completed_steps"`
}

type progressResponse struct {
	CurrentStep    *int  `json:"current_step"`
	CompletedSteps []int `json:"completed_steps"`
}

// Load fetches persisted progress for a lesson. Absent fields, 4xx and 5xx all
// mean the same thing: no progress yet.
func (c *Client) Load(ctx context.Context, lessonID string) (*session.Progress, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/progress/"+lessonID, nil)
	if err != nil {
		return nil, fmt.Errorf("build progress request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("progress request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var body progressResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode progress response: %w", err)
	}
	if body.CurrentStep == nil && len(body.CompletedSteps) == 0 {
		return nil, nil
	}

	progress := &session.Progress{
		LessonID:       lessonID,
		CompletedSteps: body.CompletedSteps,
	}
	if body.CurrentStep != nil {
		progress.CurrentStep = *body.CurrentStep
	}
	return progress, nil
}

// Save writes the progress record, best effort.
func (c *Client) Save(ctx context.Context, progress session.Progress) error {
	payload := progressPayload{
		LessonID:       progress.LessonID,
		CurrentStep:    progress.CurrentStep,
		CompletedSteps: progress.CompletedSteps,
	}
	return c.post(ctx, "/progress", payload)
}

// Clear removes persisted progress for a lesson, used by redo.
func (c *Client) Clear(ctx context.Context, lessonID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/progress/"+lessonID, nil)
	if err != nil {
		return fmt.Errorf("build progress delete: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("progress delete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("progress delete returned status %d", resp.StatusCode)
	}
	return nil
}

// Complete posts the aggregated completion payload, triggering server-side
// unit-progress recomputation. Only success or failure matters here.
func (c *Client) Complete(ctx context.Context, result session.CompletionResult) error {
	return c.post(ctx, "/complete", result)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	return nil
}

package grader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danuarta/lingolearn-be/internal/lesson"
)

const defaultTimeout = 15 * time.Second

// Client calls the remote AI grading collaborator. The caller-side timeout
// keeps the fail-open path reachable even when the service hangs.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type gradeRequestBody struct {
	Language      string        `json:"language"`
	UserCEFRLevel string        `json:"user_cefr_level"`
	Question      string        `json:"question"`
	UserAnswer    string        `json:"user_answer"`
	LessonContext lessonContext `json:"lesson_context"`
}

type lessonContext struct {
	LessonID    string `json:"lesson_id"`
	Title       string `json:"title"`
	CurrentStep int    `json:"current_step"`
}

type gradeResponseBody struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

func (c *Client) GradeFreeResponse(ctx context.Context, req lesson.GradeRequest) (int, string, error) {
	payload := gradeRequestBody{
		Language:      req.Language,
		UserCEFRLevel: req.UserCEFRLevel,
		Question:      req.Question,
		UserAnswer:    req.UserAnswer,
		LessonContext: lessonContext{
			LessonID:    req.LessonID,
			Title:       req.LessonTitle,
			CurrentStep: req.CurrentStep,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("encode grade request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/grade-free-response", bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("build grade request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, "", fmt.Errorf("grade request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("grading service returned status %d", resp.StatusCode)
	}

	var result gradeResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, "", fmt.Errorf("decode grade response: %w", err)
	}
	return result.Score, result.Feedback, nil
}

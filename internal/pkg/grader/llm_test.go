package grader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danuarta/lingolearn-be/internal/lesson"
	"github.com/danuarta/lingolearn-be/internal/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatCompletionServer fakes an OpenAI-compatible /chat/completions endpoint
// returning the given content for every request.
func chatCompletionServer(t *testing.T, content string, gotPrompt *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if gotPrompt != nil && len(req.Messages) > 0 {
			*gotPrompt = req.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestLLMGrader(t *testing.T) {
	t.Run("parses score and feedback", func(t *testing.T) {
		var prompt string
		srv := chatCompletionServer(t, `{"score":82,"feedback":"Nice work!"}`, &prompt)
		defer srv.Close()

		g := NewLLMGrader(llm.NewClient("test-key", "gpt-4o-mini", srv.URL), "")
		score, feedback, err := g.GradeFreeResponse(context.Background(), lesson.GradeRequest{
			Language:      "french",
			UserCEFRLevel: "B1",
			Question:      "Comment allez-vous?",
			UserAnswer:    "Je vais bien, merci.",
			LessonTitle:   "Greetings",
		})
		require.NoError(t, err)
		assert.Equal(t, 82, score)
		assert.Equal(t, "Nice work!", feedback)

		assert.Contains(t, prompt, "french")
		assert.Contains(t, prompt, "B1")
		assert.Contains(t, prompt, "Comment allez-vous?")
		assert.Contains(t, prompt, "Je vais bien, merci.")
	})

	t.Run("strips code fences", func(t *testing.T) {
		srv := chatCompletionServer(t, "```json\n{\"score\":91,\"feedback\":\"Great.\"}\n```", nil)
		defer srv.Close()

		g := NewLLMGrader(llm.NewClient("test-key", "", srv.URL), "")
		score, feedback, err := g.GradeFreeResponse(context.Background(), lesson.GradeRequest{})
		require.NoError(t, err)
		assert.Equal(t, 91, score)
		assert.Equal(t, "Great.", feedback)
	})

	t.Run("clamps out-of-range scores", func(t *testing.T) {
		srv := chatCompletionServer(t, `{"score":150,"feedback":"."}`, nil)
		defer srv.Close()

		g := NewLLMGrader(llm.NewClient("test-key", "", srv.URL), "")
		score, _, err := g.GradeFreeResponse(context.Background(), lesson.GradeRequest{})
		require.NoError(t, err)
		assert.Equal(t, 100, score)
	})

	t.Run("rejects non-json output", func(t *testing.T) {
		srv := chatCompletionServer(t, "I would give this an 80.", nil)
		defer srv.Close()

		g := NewLLMGrader(llm.NewClient("test-key", "", srv.URL), "")
		_, _, err := g.GradeFreeResponse(context.Background(), lesson.GradeRequest{})
		assert.Error(t, err)
	})

	t.Run("nil client", func(t *testing.T) {
		g := NewLLMGrader(nil, "")
		_, _, err := g.GradeFreeResponse(context.Background(), lesson.GradeRequest{})
		assert.Error(t, err)
	})
}

package grader

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danuarta/lingolearn-be/internal/lesson"
	"github.com/danuarta/lingolearn-be/internal/pkg/llm"
)

// LLMGrader grades free-response answers by prompting an OpenAI-compatible
// endpoint directly. Used when no remote grading service is configured.
type LLMGrader struct {
	client         *llm.Client
	promptTemplate string
}

func NewLLMGrader(client *llm.Client, promptTemplate string) *LLMGrader {
	if promptTemplate == "" {
		promptTemplate = defaultPromptTemplate
	}
	return &LLMGrader{
		client:         client,
		promptTemplate: promptTemplate,
	}
}

type llmGradeJSON struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

func (g *LLMGrader) GradeFreeResponse(ctx context.Context, req lesson.GradeRequest) (int, string, error) {
	if g.client == nil {
		return 0, "", fmt.Errorf("llm client not configured")
	}

	prompt := g.promptTemplate
	prompt = strings.ReplaceAll(prompt, "{{language}}", req.Language)
	prompt = strings.ReplaceAll(prompt, "{{cefrLevel}}", req.UserCEFRLevel)
	prompt = strings.ReplaceAll(prompt, "{{lessonTitle}}", req.LessonTitle)
	prompt = strings.ReplaceAll(prompt, "{{question}}", req.Question)
	prompt = strings.ReplaceAll(prompt, "{{answer}}", req.UserAnswer)

	text, err := g.client.GenerateText(ctx, prompt)
	if err != nil {
		return 0, "", err
	}

	// Strip code fences if the model ignores the no-markdown instruction.
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var parsed llmGradeJSON
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return 0, "", fmt.Errorf("AI output is not valid json: %w", err)
	}
	if parsed.Score < 0 {
		parsed.Score = 0
	}
	if parsed.Score > 100 {
		parsed.Score = 100
	}

	return parsed.Score, parsed.Feedback, nil
}

const defaultPromptTemplate = `You are grading a language learner's free-text answer.

Learner profile:
- Target language: {{language}}
- CEFR level: {{cefrLevel}}

Lesson: {{lessonTitle}}
Question: {{question}}
Learner's answer: {{answer}}

Task:
1. Judge whether the answer is a reasonable response to the question in the target language for a learner at this level
2. Minor spelling or accent mistakes should not fail an otherwise correct answer
3. Score from 0 to 100, where 70 or above means the answer passes
4. Write one or two sentences of encouraging feedback in English

IMPORTANT: Return ONLY valid JSON, NO markdown, NO code blocks.
JSON format:
{"score":85,"feedback":"Good answer! Watch the verb ending."}
`

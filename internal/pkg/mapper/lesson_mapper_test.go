package mapper

import (
	"testing"

	dbEntity "github.com/danuarta/lingolearn-be/internal/entity"
	"github.com/danuarta/lingolearn-be/internal/lesson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToLesson(t *testing.T) {
	record := &dbEntity.LessonRecord{
		LessonID: "es-greetings-1",
		Title:    "Greetings",
		Language: "spanish",
		Level:    "A1",
		Steps: `[
			{"id": "intro", "type": "content", "content_markdown": "Hola!"},
			{"id": "q1", "type": "multiple_choice", "question": "?", "options": ["Adios", "Hola"], "correct_index": 1}
		]`,
	}

	l, err := ConvertToLesson(record)
	require.NoError(t, err)
	assert.Equal(t, "es-greetings-1", l.LessonID)
	require.Len(t, l.Steps, 2)
	assert.Equal(t, lesson.StrategyChoice, l.Steps[1].Strategy)
	assert.Equal(t, 1, l.Steps[1].ResolvedIndex)
}

func TestConvertToLessonBadSteps(t *testing.T) {
	_, err := ConvertToLesson(&dbEntity.LessonRecord{LessonID: "l", Steps: "not json"})
	assert.Error(t, err)

	_, err = ConvertToLesson(&dbEntity.LessonRecord{LessonID: "l", Steps: "[]"})
	assert.Error(t, err, "a lesson needs at least one step")
}

func TestConvertRoundTrip(t *testing.T) {
	l := &lesson.Lesson{
		LessonID: "fr-greetings-1",
		Title:    "Salutations",
		Language: "french",
		Steps: []lesson.Step{
			{ID: "fr1", Type: lesson.StepFreeResponse, Question: "?", AnswerKey: "merci"},
		},
	}
	require.NoError(t, l.Normalize())

	record, err := ConvertToLessonRecord(l)
	require.NoError(t, err)
	assert.Equal(t, "fr-greetings-1", record.LessonID)

	back, err := ConvertToLesson(record)
	require.NoError(t, err)
	assert.Equal(t, lesson.StrategyAnswerKey, back.Steps[0].Strategy)
	assert.Equal(t, "merci", back.Steps[0].AnswerKey)
}

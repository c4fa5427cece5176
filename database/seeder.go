package database

import (
	"fmt"

	"github.com/danuarta/lingolearn-be/internal/entity"
	"github.com/danuarta/lingolearn-be/internal/lesson"
	"github.com/danuarta/lingolearn-be/internal/pkg/mapper"
	"gorm.io/gorm"
)

func intPtr(i int) *int { return &i }

// SampleLessons - Static lesson documents seeded at boot so a fresh install has
// something to open.
var SampleLessons = []lesson.Lesson{
	{
		LessonID: "es-greetings-1",
		Title:    "Greetings and Introductions",
		Language: "spanish",
		Level:    "A1",
		Steps: []lesson.Step{
			{
				ID:      "intro",
				Type:    lesson.StepContent,
				Content: "# Greetings\n\nIn this lesson you will learn how to greet people in Spanish and introduce yourself.",
			},
			{
				ID:           "greet-mc",
				Type:         lesson.StepMultipleChoice,
				Question:     "How do you say \"good morning\" in Spanish?",
				Options:      []string{"Buenas noches", "Buenos días", "Buenas tardes", "Hola"},
				CorrectIndex: intPtr(1),
				Feedback:     "¡Muy bien! \"Buenos días\" is used until around noon.",
			},
			{
				ID:                "greet-fr",
				Type:              lesson.StepFreeResponse,
				Question:          "How would you say \"hello\" in Spanish?",
				Hint:              "It is one short word.",
				AcceptedResponses: lesson.StringList{"hola"},
			},
			{
				ID:        "intro-ai",
				Type:      lesson.StepFreeResponse,
				Question:  "Introduce yourself in Spanish in one or two sentences.",
				Hint:      "Start with \"Me llamo...\"",
				AIGrading: true,
			},
		},
	},
	{
		LessonID: "fr-greetings-1",
		Title:    "Salutations",
		Language: "french",
		Level:    "A1",
		Steps: []lesson.Step{
			{
				ID:      "intro",
				Type:    lesson.StepContent,
				Content: "# Salutations\n\nBasic French greetings for your first conversation.",
			},
			{
				ID:            "greet-mc",
				Type:          lesson.StepMultipleChoice,
				Question:      "Which word means \"hello\" in French?",
				Options:       []string{"Hola", "Bonjour", "Ciao", "Hallo"},
				CorrectAnswer: "Bonjour",
			},
			{
				ID:        "greet-key",
				Type:      lesson.StepFreeResponse,
				Question:  "How do you say \"thank you\" in French?",
				AnswerKey: "merci",
			},
		},
	},
}

// SeedLessons upserts the sample lesson documents. Existing rows with the same
// lesson_id are refreshed, so reseeding is safe.
func SeedLessons(db *gorm.DB) error {
	for i := range SampleLessons {
		l := SampleLessons[i]
		if err := l.Normalize(); err != nil {
			return fmt.Errorf("invalid sample lesson %s: %w", l.LessonID, err)
		}

		record, err := mapper.ConvertToLessonRecord(&l)
		if err != nil {
			return fmt.Errorf("failed to encode sample lesson %s: %w", l.LessonID, err)
		}

		var existing entity.LessonRecord
		tx := db.Where("lesson_id = ?", record.LessonID).First(&existing)
		if tx.Error == nil {
			record.ID = existing.ID
		}
		if err := db.Save(record).Error; err != nil {
			return fmt.Errorf("failed to seed lesson %s: %w", record.LessonID, err)
		}
	}
	return nil
}

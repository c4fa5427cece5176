package mapper

import (
	"encoding/json"
	"fmt"

	dbEntity "github.com/danuarta/lingolearn-be/internal/entity"
	"github.com/danuarta/lingolearn-be/internal/lesson"
)

// ConvertToLesson - Convert DB record to the in-memory lesson document, with
// grading strategies resolved.
func ConvertToLesson(record *dbEntity.LessonRecord) (*lesson.Lesson, error) {
	var steps []lesson.Step
	if err := json.Unmarshal([]byte(record.Steps), &steps); err != nil {
		return nil, fmt.Errorf("lesson %s has invalid steps: %w", record.LessonID, err)
	}

	l := &lesson.Lesson{
		LessonID: record.LessonID,
		Title:    record.Title,
		Language: record.Language,
		Level:    record.Level,
		Steps:    steps,
	}
	if err := l.Normalize(); err != nil {
		return nil, err
	}
	return l, nil
}

// ConvertToLessonRecord - Convert a lesson document to its DB representation.
func ConvertToLessonRecord(l *lesson.Lesson) (*dbEntity.LessonRecord, error) {
	stepsJSON, err := json.Marshal(l.Steps)
	if err != nil {
		return nil, err
	}

	return &dbEntity.LessonRecord{
		LessonID: l.LessonID,
		Title:    l.Title,
		Language: l.Language,
		Level:    l.Level,
		Steps:    string(stepsJSON),
	}, nil
}

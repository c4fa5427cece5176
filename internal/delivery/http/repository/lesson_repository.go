package repository

import (
	"github.com/danuarta/lingolearn-be/internal/entity"
	"gorm.io/gorm"
)

type (
	LessonRepository interface {
		// Lesson catalog operations
		UpsertLesson(db *gorm.DB, record *entity.LessonRecord) error
		FindLessonByLessonID(db *gorm.DB, lessonID string) (*entity.LessonRecord, error)
		FindLessonsByLanguage(db *gorm.DB, language string) ([]entity.LessonRecord, error)

		// Answer log operations
		CreateAnswerLog(db *gorm.DB, log *entity.AnswerLog) error
		FindAnswerLogsBySessionID(db *gorm.DB, sessionID string) ([]entity.AnswerLog, error)
	}

	lessonRepository struct {
		db *gorm.DB
	}
)

func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) UpsertLesson(db *gorm.DB, record *entity.LessonRecord) error {
	if db == nil {
		db = r.db
	}
	return db.Where("lesson_id = ?", record.LessonID).Assign(record).FirstOrCreate(record).Error
}

func (r *lessonRepository) FindLessonByLessonID(db *gorm.DB, lessonID string) (*entity.LessonRecord, error) {
	if db == nil {
		db = r.db
	}
	var record entity.LessonRecord
	err := db.Where("lesson_id = ?", lessonID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *lessonRepository) FindLessonsByLanguage(db *gorm.DB, language string) ([]entity.LessonRecord, error) {
	if db == nil {
		db = r.db
	}
	var records []entity.LessonRecord
	err := db.Where("language = ?", language).Order("lesson_id ASC").Find(&records).Error
	return records, err
}

func (r *lessonRepository) CreateAnswerLog(db *gorm.DB, log *entity.AnswerLog) error {
	if db == nil {
		db = r.db
	}
	return db.Create(log).Error
}

func (r *lessonRepository) FindAnswerLogsBySessionID(db *gorm.DB, sessionID string) ([]entity.AnswerLog, error) {
	if db == nil {
		db = r.db
	}
	var logs []entity.AnswerLog
	err := db.Where("session_id = ?", sessionID).Order("answered_at ASC").Find(&logs).Error
	return logs, err
}

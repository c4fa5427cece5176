package database

import (
	"github.com/danuarta/lingolearn-be/internal/entity"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.LessonRecord{},
		&entity.AnswerLog{},
	)
	return err
}

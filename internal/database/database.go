package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kku-mis/course-registration/internal/config"
	"github.com/kku-mis/course-registration/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Migrate creates or updates every table, including the unique index on
// (student_id, course_id, term) that registration submission relies on.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Principal{},
		&models.RefreshToken{},
		&models.User{},
		&models.StudentProfile{},
		&models.SupervisorProfile{},
		&models.Course{},
		&models.RegistrationRequest{},
		&models.Notification{},
		&models.SystemLog{},
	)
}

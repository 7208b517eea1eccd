// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/database"
	"github.com/kku-mis/course-registration/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with every table migrated.
// It is limited to one connection, so code under test must use the
// transaction handle inside a transaction.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateCourse inserts a course with sensible defaults.
func CreateCourse(t *testing.T, db *gorm.DB, code string, credits int) *models.Course {
	t.Helper()

	course := &models.Course{
		Code:       code,
		NameAr:     "مقرر " + code,
		NameEn:     "Course " + code,
		Credits:    credits,
		Level:      1,
		Capacity:   30,
		Instructor: "Dr. Staff",
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

// CreateStudent inserts a student user with a profile and no principal.
func CreateStudent(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{Email: email, Name: "Student", Role: models.RoleStudent}
	require.NoError(t, db.Create(user).Error)
	profile := &models.StudentProfile{UserID: user.ID, Major: "MIS", Level: 1}
	require.NoError(t, db.Create(profile).Error)
	user.StudentProfile = profile
	return user
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/kku-mis/course-registration/internal/config"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/identity"
	"github.com/kku-mis/course-registration/internal/models"
	"github.com/kku-mis/course-registration/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testDomain = "@kku.edu.sa"

type fixture struct {
	db            *gorm.DB
	provider      *identity.LocalProvider
	accounts      *AccountService
	registrations *RegistrationService
	approvals     *ApprovalService
	notifications *NotificationService
	students      *StudentService
	courses       *CourseService
	stats         *StatsService
}

func newFixture(t *testing.T, resubmitPolicy string) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	provider := identity.NewLocalProvider(db, identity.LocalConfig{
		Secret:        "test-secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
	}, nil)
	notifications := NewNotificationService(db)
	registrations := NewRegistrationService(db, resubmitPolicy)

	return &fixture{
		db:            db,
		provider:      provider,
		accounts:      NewAccountService(db, provider, NewReconciler(db, provider, 1), testDomain),
		registrations: registrations,
		approvals:     NewApprovalService(db, notifications, "ar"),
		notifications: notifications,
		students:      NewStudentService(db),
		courses:       NewCourseService(db),
		stats:         NewStatsService(db, registrations, notifications),
	}
}

func newBlockingFixture(t *testing.T) *fixture {
	return newFixture(t, config.ResubmitBlockAll)
}

func (f *fixture) signup(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	res, err := f.accounts.CreateAccount(context.Background(), &dto.SignupRequest{
		Email:    email,
		Password: "secret123",
		Name:     "Test User",
		Role:     string(role),
	})
	require.NoError(t, err)
	return res.User
}

func (f *fixture) countPrincipals(t *testing.T, email string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Principal{}).Where("email = ?", email).Count(&n).Error)
	return n
}

func (f *fixture) countUsers(t *testing.T, email string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.User{}).Where("email = ?", email).Count(&n).Error)
	return n
}

func strPtr(s string) *string { return &s }

func createCourse(t *testing.T, f *fixture, code string, credits int) *models.Course {
	t.Helper()
	return testutil.CreateCourse(t, f.db, code, credits)
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/identity"
	"github.com/kku-mis/course-registration/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccountStudent(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()

	level := 3
	res, err := f.accounts.CreateAccount(ctx, &dto.SignupRequest{
		Email:    " Ali@KKU.edu.sa ",
		Password: "secret123",
		Name:     "Ali",
		Role:     "student",
		Level:    &level,
	})
	require.NoError(t, err)
	require.NotNil(t, res.User.PrincipalID)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "ali@kku.edu.sa", res.User.Email)

	require.NotNil(t, res.User.StudentProfile)
	assert.Equal(t, 3, res.User.StudentProfile.Level)
	assert.Equal(t, 0.0, res.User.StudentProfile.GPA)
	assert.Equal(t, "MIS", res.User.StudentProfile.Major)

	principal, err := f.provider.FindPrincipalByEmail(ctx, "ali@kku.edu.sa")
	require.NoError(t, err)
	assert.Equal(t, principal.ID, *res.User.PrincipalID)
	assert.EqualValues(t, 1, f.countPrincipals(t, "ali@kku.edu.sa"))
	assert.EqualValues(t, 1, f.countUsers(t, "ali@kku.edu.sa"))
}

func TestCreateAccountAdvisorGetsSupervisorProfile(t *testing.T) {
	f := newBlockingFixture(t)

	res, err := f.accounts.CreateAccount(context.Background(), &dto.SignupRequest{
		Email:          "dr.sami@kku.edu.sa",
		Password:       "secret123",
		Name:           "Dr. Sami",
		Role:           "advisor",
		Department:     "Information Systems",
		OfficeLocation: strPtr("B12"),
	})
	require.NoError(t, err)
	assert.Nil(t, res.User.StudentProfile)
	require.NotNil(t, res.User.SupervisorProfile)
	assert.Equal(t, "Information Systems", res.User.SupervisorProfile.Department)
	assert.Equal(t, "B12", *res.User.SupervisorProfile.OfficeLocation)
}

func TestCreateAccountRejectsInvalidInput(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.SignupRequest
	}{
		{"foreign domain", dto.SignupRequest{Email: "a@gmail.com", Password: "secret123", Name: "A", Role: "student"}},
		{"missing name", dto.SignupRequest{Email: "a@kku.edu.sa", Password: "secret123", Role: "student"}},
		{"unknown role", dto.SignupRequest{Email: "a@kku.edu.sa", Password: "secret123", Name: "A", Role: "dean"}},
		{"short password", dto.SignupRequest{Email: "a@kku.edu.sa", Password: "123", Name: "A", Role: "student"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.accounts.CreateAccount(ctx, &req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.EqualValues(t, 0, f.countPrincipals(t, "a@kku.edu.sa"))
}

func TestCreateAccountExistingCompleteAccount(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()
	existing := f.signup(t, "taken@kku.edu.sa", models.RoleStudent)

	principalBefore, err := f.provider.FindPrincipalByEmail(ctx, "taken@kku.edu.sa")
	require.NoError(t, err)

	_, err = f.accounts.CreateAccount(ctx, &dto.SignupRequest{
		Email: "taken@kku.edu.sa", Password: "other-pass", Name: "Other", Role: "student",
	})
	require.ErrorIs(t, err, ErrAccountExists)

	var accErr *AccountError
	require.ErrorAs(t, err, &accErr)
	require.NotNil(t, accErr.UserID)
	assert.Equal(t, existing.ID, *accErr.UserID)
	assert.Equal(t, "taken@kku.edu.sa", accErr.Email)

	principalAfter, err := f.provider.FindPrincipalByEmail(ctx, "taken@kku.edu.sa")
	require.NoError(t, err)
	assert.Equal(t, principalBefore.ID, principalAfter.ID)
	assert.EqualValues(t, 1, f.countUsers(t, "taken@kku.edu.sa"))
}

func TestCreateAccountReplacesOrphanedPrincipal(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()

	orphan, err := f.provider.CreatePrincipal(ctx, "orphan@kku.edu.sa", "old-pass")
	require.NoError(t, err)

	res, err := f.accounts.CreateAccount(ctx, &dto.SignupRequest{
		Email: "orphan@kku.edu.sa", Password: "secret123", Name: "Orphan", Role: "student",
	})
	require.NoError(t, err)
	assert.NotEqual(t, orphan.ID, *res.User.PrincipalID)
	assert.EqualValues(t, 1, f.countPrincipals(t, "orphan@kku.edu.sa"))

	_, err = f.provider.GetPrincipal(ctx, orphan.ID)
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

// Drift: the principal of a complete account disappears. Signing up again
// replaces the stale user row with a new one.
func TestCreateAccountAfterPrincipalDrift(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()

	u1 := f.signup(t, "a@kku.edu.sa", models.RoleStudent)
	require.NoError(t, f.provider.DeletePrincipal(ctx, *u1.PrincipalID))

	res, err := f.accounts.CreateAccount(ctx, &dto.SignupRequest{
		Email: "a@kku.edu.sa", Password: "secret123", Name: "Again", Role: "student",
	})
	require.NoError(t, err)
	u2 := res.User

	assert.NotEqual(t, u1.ID, u2.ID)
	assert.NotEqual(t, *u1.PrincipalID, *u2.PrincipalID)
	assert.EqualValues(t, 1, f.countPrincipals(t, "a@kku.edu.sa"))
	assert.EqualValues(t, 1, f.countUsers(t, "a@kku.edu.sa"))

	var profiles int64
	require.NoError(t, f.db.Model(&models.StudentProfile{}).Where("user_id = ?", u1.ID).Count(&profiles).Error)
	assert.Zero(t, profiles)
}

func TestCreateAccountRemovesUserWithoutPrincipal(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()

	stale := &models.User{Email: "legacy@kku.edu.sa", Name: "Legacy", Role: models.RoleStudent}
	require.NoError(t, f.db.Create(stale).Error)

	res, err := f.accounts.CreateAccount(ctx, &dto.SignupRequest{
		Email: "legacy@kku.edu.sa", Password: "secret123", Name: "Legacy", Role: "student",
	})
	require.NoError(t, err)
	assert.NotEqual(t, stale.ID, res.User.ID)
	assert.EqualValues(t, 1, f.countUsers(t, "legacy@kku.edu.sa"))
}

func TestSignIn(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()
	user := f.signup(t, "login@kku.edu.sa", models.RoleStudent)

	resp, err := f.accounts.SignIn(ctx, &dto.LoginRequest{Email: "LOGIN@kku.edu.sa", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.User.StudentProfile)

	_, err = f.accounts.SignIn(ctx, &dto.LoginRequest{Email: "login@kku.edu.sa", Password: "nope-nope"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	refreshed, err := f.accounts.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, user.ID, refreshed.User.ID)

	require.NoError(t, f.accounts.SignOut(ctx, refreshed.AccessToken))
	_, err = f.provider.VerifyCredential(ctx, refreshed.AccessToken)
	assert.ErrorIs(t, err, identity.ErrInvalidCredential)
}

func TestSignInWithoutUserRow(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()

	_, err := f.provider.CreatePrincipal(ctx, "half@kku.edu.sa", "secret123")
	require.NoError(t, err)

	_, err = f.accounts.SignIn(ctx, &dto.LoginRequest{Email: "half@kku.edu.sa", Password: "secret123"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCleanupOrphan(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()

	f.signup(t, "complete@kku.edu.sa", models.RoleStudent)
	_, err := f.provider.CreatePrincipal(ctx, "orphan@kku.edu.sa", "secret123")
	require.NoError(t, err)

	cleaned, err := f.accounts.CleanupOrphan(ctx, &dto.CleanupOrphanRequest{Email: "complete@kku.edu.sa"})
	require.NoError(t, err)
	assert.False(t, cleaned)
	assert.EqualValues(t, 1, f.countPrincipals(t, "complete@kku.edu.sa"))

	cleaned, err = f.accounts.CleanupOrphan(ctx, &dto.CleanupOrphanRequest{Email: "orphan@kku.edu.sa"})
	require.NoError(t, err)
	assert.True(t, cleaned)
	assert.EqualValues(t, 0, f.countPrincipals(t, "orphan@kku.edu.sa"))

	cleaned, err = f.accounts.CleanupOrphan(ctx, &dto.CleanupOrphanRequest{Email: "nobody@kku.edu.sa"})
	require.NoError(t, err)
	assert.False(t, cleaned)
}

func TestSweepOrphans(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()

	f.signup(t, "complete@kku.edu.sa", models.RoleStudent)
	old, err := f.provider.CreatePrincipal(ctx, "old@kku.edu.sa", "secret123")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Principal{}).Where("id = ?", old.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)
	_, err = f.provider.CreatePrincipal(ctx, "fresh@kku.edu.sa", "secret123")
	require.NoError(t, err)

	results, err := f.accounts.SweepOrphans(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, old.ID, results[0].PrincipalID)
	assert.True(t, results[0].Removed)

	assert.EqualValues(t, 0, f.countPrincipals(t, "old@kku.edu.sa"))
	assert.EqualValues(t, 1, f.countPrincipals(t, "fresh@kku.edu.sa"))
	assert.EqualValues(t, 1, f.countPrincipals(t, "complete@kku.edu.sa"))
}

func TestDeleteUserCascades(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()

	user := f.signup(t, "gone@kku.edu.sa", models.RoleStudent)
	course := createCourse(t, f, "MIS101", 3)
	req, err := f.registrations.Submit(ctx, user.ID, &dto.SubmitRegistrationRequest{CourseID: course.ID, Term: "2025A"})
	require.NoError(t, err)
	_, err = f.notifications.Notify(ctx, NotifyInput{UserID: user.ID, Type: models.NotificationInfo, Title: "hi"})
	require.NoError(t, err)

	require.NoError(t, f.accounts.DeleteUser(ctx, user.ID))

	assert.EqualValues(t, 0, f.countUsers(t, "gone@kku.edu.sa"))
	assert.EqualValues(t, 0, f.countPrincipals(t, "gone@kku.edu.sa"))
	var n int64
	require.NoError(t, f.db.Model(&models.RegistrationRequest{}).Where("id = ?", req.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, f.db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, f.db.Model(&models.StudentProfile{}).Where("user_id = ?", user.ID).Count(&n).Error)
	assert.Zero(t, n)

	assert.ErrorIs(t, f.accounts.DeleteUser(ctx, user.ID), ErrNotFound)
}

func TestListUsersAndStudents(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()

	f.signup(t, "s1@kku.edu.sa", models.RoleStudent)
	f.signup(t, "adv@kku.edu.sa", models.RoleAdvisor)

	users, err := f.accounts.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, users, 2)

	advisors, err := f.accounts.ListUsers(ctx, "advisor")
	require.NoError(t, err)
	require.Len(t, advisors, 1)
	assert.Equal(t, "adv@kku.edu.sa", advisors[0].Email)

	_, err = f.accounts.ListUsers(ctx, "dean")
	assert.ErrorIs(t, err, ErrInvalidInput)

	students, err := f.accounts.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.NotNil(t, students[0].StudentProfile)
}

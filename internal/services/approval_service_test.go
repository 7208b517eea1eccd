package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationLifecycle(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()
	s1 := f.signup(t, "s1@kku.edu.sa", models.RoleStudent)
	c1 := createCourse(t, f, "C1", 3)

	req, err := f.registrations.Submit(ctx, s1.ID, &dto.SubmitRegistrationRequest{CourseID: c1.ID, Term: "2025A"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)

	_, err = f.registrations.Submit(ctx, s1.ID, &dto.SubmitRegistrationRequest{CourseID: c1.ID, Term: "2025A"})
	require.ErrorIs(t, err, ErrDuplicateRequest)

	resolved, err := f.approvals.Resolve(ctx, ResolveInput{
		RequestID: req.ID,
		Decision:  "rejected",
		Notes:     strPtr("schedule conflict"),
		Lang:      "en",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, resolved.Status)

	var notifications []models.Notification
	require.NoError(t, f.db.Where("user_id = ?", s1.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationError, notifications[0].Type)
	assert.Contains(t, notifications[0].Message, "C1")
	assert.Contains(t, notifications[0].Message, "schedule conflict")
	require.NotNil(t, notifications[0].RelatedRequestID)
	assert.Equal(t, req.ID, *notifications[0].RelatedRequestID)
	assert.False(t, notifications[0].Read)

	_, err = f.approvals.Resolve(ctx, ResolveInput{RequestID: req.ID, Decision: "approved"})
	require.ErrorIs(t, err, ErrAlreadyResolved)

	var stored models.RegistrationRequest
	require.NoError(t, f.db.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, models.StatusRejected, stored.Status)
	require.NotNil(t, stored.Notes)
	assert.Equal(t, "schedule conflict", *stored.Notes)

	var count int64
	require.NoError(t, f.db.Model(&models.Notification{}).Where("user_id = ?", s1.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestApproveBooksCreditsAndNotifiesOnce(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()
	student := f.signup(t, "s1@kku.edu.sa", models.RoleStudent)
	advisor := f.signup(t, "adv@kku.edu.sa", models.RoleAdvisor)
	course := createCourse(t, f, "MIS201", 4)

	req, err := f.registrations.Submit(ctx, student.ID, &dto.SubmitRegistrationRequest{CourseID: course.ID, Term: "2025A"})
	require.NoError(t, err)

	resolved, err := f.approvals.Resolve(ctx, ResolveInput{RequestID: req.ID, Decision: "approved", ReviewerID: &advisor.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, resolved.Status)
	require.NotNil(t, resolved.ReviewedBy)
	assert.Equal(t, advisor.ID, *resolved.ReviewedBy)

	var profile models.StudentProfile
	require.NoError(t, f.db.First(&profile, "user_id = ?", student.ID).Error)
	assert.Equal(t, 4, profile.TotalCredits)

	var stored models.Course
	require.NoError(t, f.db.First(&stored, "id = ?", course.ID).Error)
	assert.Equal(t, 1, stored.Enrolled)

	var notifications []models.Notification
	require.NoError(t, f.db.Where("related_request_id = ?", req.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, student.ID, notifications[0].UserID)
	assert.Equal(t, models.NotificationSuccess, notifications[0].Type)
	assert.Equal(t, "تمت الموافقة على طلب التسجيل", notifications[0].Title)

	_, err = f.approvals.Resolve(ctx, ResolveInput{RequestID: req.ID, Decision: "approved"})
	require.ErrorIs(t, err, ErrAlreadyResolved)

	require.NoError(t, f.db.First(&profile, "user_id = ?", student.ID).Error)
	assert.Equal(t, 4, profile.TotalCredits)
}

func TestResolveValidation(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()
	student := f.signup(t, "s1@kku.edu.sa", models.RoleStudent)
	course := createCourse(t, f, "MIS101", 3)
	req, err := f.registrations.Submit(ctx, student.ID, &dto.SubmitRegistrationRequest{CourseID: course.ID, Term: "2025A"})
	require.NoError(t, err)

	_, err = f.approvals.Resolve(ctx, ResolveInput{RequestID: uuid.New(), Decision: "approved"})
	assert.ErrorIs(t, err, ErrNotFound)

	for _, decision := range []string{"pending", "maybe", ""} {
		_, err = f.approvals.Resolve(ctx, ResolveInput{RequestID: req.ID, Decision: decision})
		assert.ErrorIs(t, err, ErrInvalidStatus, decision)
	}

	var stored models.RegistrationRequest
	require.NoError(t, f.db.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestResolveSurvivesNotificationFailure(t *testing.T) {
	f := newBlockingFixture(t)
	ctx := context.Background()
	student := f.signup(t, "s1@kku.edu.sa", models.RoleStudent)
	course := createCourse(t, f, "MIS101", 3)
	req, err := f.registrations.Submit(ctx, student.ID, &dto.SubmitRegistrationRequest{CourseID: course.ID, Term: "2025A"})
	require.NoError(t, err)

	require.NoError(t, f.db.Migrator().DropTable(&models.Notification{}))

	resolved, err := f.approvals.Resolve(ctx, ResolveInput{RequestID: req.ID, Decision: "approved"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, resolved.Status)

	var stored models.RegistrationRequest
	require.NoError(t, f.db.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, models.StatusApproved, stored.Status)
}

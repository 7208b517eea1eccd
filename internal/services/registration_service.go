package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/config"
	"github.com/kku-mis/course-registration/internal/database"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/metrics"
	"github.com/kku-mis/course-registration/internal/models"
	"gorm.io/gorm"
)

// RegistrationService stores registration requests. Uniqueness of the
// (student, course, term) triple is left to the storage-level index.
type RegistrationService struct {
	db     *gorm.DB
	policy string
}

func NewRegistrationService(db *gorm.DB, resubmitPolicy string) *RegistrationService {
	return &RegistrationService{db: db, policy: resubmitPolicy}
}

// Submit inserts a pending request. An existing request for the same triple
// fails with ErrDuplicateRequest, except that a rejected one is reopened when
// the resubmit policy allows it.
func (s *RegistrationService) Submit(ctx context.Context, studentID uuid.UUID, req *dto.SubmitRegistrationRequest) (*models.RegistrationRequest, error) {
	req.Term = strings.TrimSpace(req.Term)
	if err := dto.Validate(req); err != nil {
		metrics.Submissions.WithLabelValues("invalid").Inc()
		return nil, invalidInput(err)
	}

	db := s.db.WithContext(ctx)

	var course models.Course
	if err := db.First(&course, "id = ?", req.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course %s", ErrNotFound, req.CourseID)
		}
		return nil, upstream("load course", err)
	}

	request := &models.RegistrationRequest{
		StudentID: studentID,
		CourseID:  course.ID,
		Term:      req.Term,
		Status:    models.StatusPending,
	}
	err := db.Create(request).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrDuplicatedKey):
		if s.policy == config.ResubmitAllowAfterRejection {
			return s.reopen(ctx, studentID, &course, req.Term)
		}
		metrics.Submissions.WithLabelValues("duplicate").Inc()
		return nil, ErrDuplicateRequest
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return nil, fmt.Errorf("%w: student %s", ErrNotFound, studentID)
	default:
		metrics.Submissions.WithLabelValues("error").Inc()
		return nil, upstream("create registration request", err)
	}

	metrics.Submissions.WithLabelValues("created").Inc()
	slog.Info("registration request submitted", "request_id", request.ID, "student_id", studentID,
		"course_id", course.ID, "term", request.Term)
	request.Course = &course
	return request, nil
}

// reopen moves a rejected request for the triple back to pending. Only a
// rejected row can be reopened, so a pending or approved one stays a
// duplicate.
func (s *RegistrationService) reopen(ctx context.Context, studentID uuid.UUID, course *models.Course, term string) (*models.RegistrationRequest, error) {
	db := s.db.WithContext(ctx)

	result := db.Model(&models.RegistrationRequest{}).
		Where("student_id = ? AND course_id = ? AND term = ? AND status = ?", studentID, course.ID, term, models.StatusRejected).
		Updates(map[string]interface{}{
			"status":      models.StatusPending,
			"notes":       nil,
			"reviewed_by": nil,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		metrics.Submissions.WithLabelValues("error").Inc()
		return nil, upstream("reopen registration request", result.Error)
	}
	if result.RowsAffected == 0 {
		metrics.Submissions.WithLabelValues("duplicate").Inc()
		return nil, ErrDuplicateRequest
	}

	var request models.RegistrationRequest
	if err := db.Where("student_id = ? AND course_id = ? AND term = ?", studentID, course.ID, term).First(&request).Error; err != nil {
		return nil, upstream("load registration request", err)
	}

	metrics.Submissions.WithLabelValues("reopened").Inc()
	slog.Info("rejected registration request reopened", "request_id", request.ID, "student_id", studentID, "term", term)
	request.Course = course
	return &request, nil
}

// ListForStudent returns a student's requests newest first.
func (s *RegistrationService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]models.RegistrationRequest, error) {
	var requests []models.RegistrationRequest
	err := s.db.WithContext(ctx).
		Preload("Course").
		Scopes(database.ForStudent(studentID), database.NewestFirst).
		Find(&requests).Error
	if err != nil {
		return nil, upstream("list registration requests", err)
	}
	return requests, nil
}

func (s *RegistrationService) ListAllPending(ctx context.Context) ([]models.RegistrationRequest, error) {
	return s.ListAll(ctx, string(models.StatusPending))
}

// ListAll returns every request newest first, optionally filtered by status.
func (s *RegistrationService) ListAll(ctx context.Context, status string) ([]models.RegistrationRequest, error) {
	switch models.RequestStatus(status) {
	case "", models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var requests []models.RegistrationRequest
	err := s.db.WithContext(ctx).
		Preload("Course").
		Preload("Student").
		Preload("Student.StudentProfile").
		Scopes(database.WithStatus(status), database.NewestFirst).
		Find(&requests).Error
	if err != nil {
		return nil, upstream("list registration requests", err)
	}
	return requests, nil
}

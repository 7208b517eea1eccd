package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/locale"
	"github.com/kku-mis/course-registration/internal/metrics"
	"github.com/kku-mis/course-registration/internal/models"
	"gorm.io/gorm"
)

type ResolveInput struct {
	RequestID  uuid.UUID
	Decision   string
	Notes      *string
	ReviewerID *uuid.UUID
	// Lang selects the notification language; empty uses the default.
	Lang string
}

// ApprovalService moves requests from pending to approved or rejected. Both
// are terminal.
type ApprovalService struct {
	db          *gorm.DB
	notifier    *NotificationService
	defaultLang string
}

func NewApprovalService(db *gorm.DB, notifier *NotificationService, defaultLang string) *ApprovalService {
	return &ApprovalService{db: db, notifier: notifier, defaultLang: defaultLang}
}

// Resolve applies a decision with a conditional update on status = pending,
// so of two concurrent reviewers only one wins and the other gets
// ErrAlreadyResolved. Approval also books the course credits and the seat in
// the same transaction. The student notification is written afterwards and
// its failure is only logged.
func (s *ApprovalService) Resolve(ctx context.Context, in ResolveInput) (*models.RegistrationRequest, error) {
	start := time.Now()
	defer func() {
		metrics.DecisionDuration.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	db := s.db.WithContext(ctx)

	var request models.RegistrationRequest
	if err := db.Preload("Course").First(&request, "id = ?", in.RequestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.Decisions.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		return nil, upstream("load registration request", err)
	}

	decision := models.RequestStatus(in.Decision)
	if !decision.IsDecision() {
		metrics.Decisions.WithLabelValues("invalid_status").Inc()
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Decision)
	}
	if request.Status != models.StatusPending {
		metrics.Decisions.WithLabelValues("already_resolved").Inc()
		return nil, ErrAlreadyResolved
	}

	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RegistrationRequest{}).
			Where("id = ? AND status = ?", request.ID, models.StatusPending).
			Updates(map[string]interface{}{
				"status":      decision,
				"notes":       in.Notes,
				"reviewed_by": in.ReviewerID,
				"updated_at":  now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyResolved
		}

		if decision != models.StatusApproved || request.Course == nil {
			return nil
		}
		if err := tx.Model(&models.StudentProfile{}).
			Where("user_id = ?", request.StudentID).
			Update("total_credits", gorm.Expr("total_credits + ?", request.Course.Credits)).Error; err != nil {
			return err
		}
		return tx.Model(&models.Course{}).
			Where("id = ?", request.CourseID).
			Update("enrolled", gorm.Expr("enrolled + ?", 1)).Error
	})
	if errors.Is(err, ErrAlreadyResolved) {
		metrics.Decisions.WithLabelValues("already_resolved").Inc()
		return nil, err
	}
	if err != nil {
		metrics.Decisions.WithLabelValues("error").Inc()
		return nil, upstream("resolve registration request", err)
	}

	request.Status = decision
	request.Notes = in.Notes
	request.ReviewedBy = in.ReviewerID
	request.UpdatedAt = now
	metrics.Decisions.WithLabelValues(string(decision)).Inc()
	slog.Info("registration request resolved", "request_id", request.ID, "status", decision,
		"student_id", request.StudentID, "reviewer_id", in.ReviewerID)

	s.notifyStudent(context.WithoutCancel(ctx), &request, in.Lang)
	return &request, nil
}

func (s *ApprovalService) notifyStudent(ctx context.Context, request *models.RegistrationRequest, lang string) {
	if lang == "" {
		lang = s.defaultLang
	}

	course := request.CourseID.String()
	if request.Course != nil {
		course = fmt.Sprintf("%s - %s", request.Course.Code, request.Course.Name(lang))
	}
	notes := ""
	if request.Notes != nil {
		notes = *request.Notes
	}

	approved := request.Status == models.StatusApproved
	title, message := locale.DecisionText(lang, approved, course, notes)
	kind := models.NotificationError
	if approved {
		kind = models.NotificationSuccess
	}

	_, err := s.notifier.Notify(ctx, NotifyInput{
		UserID:           request.StudentID,
		Type:             kind,
		Title:            title,
		Message:          message,
		RelatedRequestID: &request.ID,
	})
	if err != nil {
		metrics.NotificationFailures.Inc()
		slog.Error("failed to notify student of decision", "request_id", request.ID,
			"user_id", request.StudentID, "error", err)
	}
}

package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/models"
	"gorm.io/gorm"
)

type StatsService struct {
	db            *gorm.DB
	registrations *RegistrationService
	notifications *NotificationService
}

func NewStatsService(db *gorm.DB, registrations *RegistrationService, notifications *NotificationService) *StatsService {
	return &StatsService{db: db, registrations: registrations, notifications: notifications}
}

func (s *StatsService) Admin(ctx context.Context) (*dto.AdminStats, error) {
	db := s.db.WithContext(ctx)
	stats := &dto.AdminStats{}

	var roles []struct {
		Role  models.Role
		Count int64
	}
	if err := db.Model(&models.User{}).Select("role, COUNT(*) AS count").Group("role").Scan(&roles).Error; err != nil {
		return nil, upstream("count users", err)
	}
	for _, r := range roles {
		stats.Users += r.Count
		switch r.Role {
		case models.RoleStudent:
			stats.Students = r.Count
		case models.RoleAdvisor:
			stats.Advisors = r.Count
		case models.RoleAdmin:
			stats.Admins = r.Count
		}
	}

	if err := db.Model(&models.Course{}).Count(&stats.Courses).Error; err != nil {
		return nil, upstream("count courses", err)
	}
	counts, err := countByStatus(db)
	if err != nil {
		return nil, err
	}
	stats.Requests = counts.total
	stats.PendingRequests = counts.byStatus[models.StatusPending]
	return stats, nil
}

func (s *StatsService) Supervisor(ctx context.Context) (*dto.SupervisorStats, error) {
	db := s.db.WithContext(ctx)

	counts, err := countByStatus(db)
	if err != nil {
		return nil, err
	}
	stats := &dto.SupervisorStats{
		Total:    counts.total,
		Pending:  counts.byStatus[models.StatusPending],
		Approved: counts.byStatus[models.StatusApproved],
		Rejected: counts.byStatus[models.StatusRejected],
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&stats.Students).Error; err != nil {
		return nil, upstream("count students", err)
	}
	return stats, nil
}

// SupervisorNotifications combines the reviewer's own notifications with the
// requests still waiting for a decision.
func (s *StatsService) SupervisorNotifications(ctx context.Context, userID uuid.UUID) (*dto.SupervisorNotifications, error) {
	list, err := s.notifications.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.registrations.ListAllPending(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SupervisorNotifications{NotificationList: *list, PendingRequests: pending}, nil
}

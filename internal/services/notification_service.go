package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/database"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/models"
	"gorm.io/gorm"
)

const notificationListLimit = 50

type NotifyInput struct {
	UserID           uuid.UUID
	Type             models.NotificationType
	Title            string
	Message          string
	RelatedRequestID *uuid.UUID
}

// NotificationService writes notifications into the store. There is no
// transport and no delivery acknowledgement beyond the read flag.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify inserts an unread notification.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	if in.UserID == uuid.Nil || !in.Type.Valid() || strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: notification needs a user, a known type and a title", ErrInvalidInput)
	}

	notification := &models.Notification{
		UserID:           in.UserID,
		Type:             in.Type,
		Title:            in.Title,
		Message:          in.Message,
		RelatedRequestID: in.RelatedRequestID,
	}
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, upstream("create notification", err)
	}
	return notification, nil
}

// Create is the administrative entry point; the recipient must exist.
func (s *NotificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) (*models.Notification, error) {
	if err := dto.Validate(req); err != nil {
		return nil, invalidInput(err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", req.UserID).Count(&count).Error; err != nil {
		return nil, upstream("find user", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, req.UserID)
	}

	return s.Notify(ctx, NotifyInput{
		UserID:           req.UserID,
		Type:             models.NotificationType(req.Type),
		Title:            req.Title,
		Message:          req.Message,
		RelatedRequestID: req.RelatedRequestID,
	})
}

// ListForUser returns the newest notifications and the total unread count.
func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID) (*dto.NotificationList, error) {
	db := s.db.WithContext(ctx)

	list := &dto.NotificationList{Notifications: make([]models.Notification, 0)}
	if err := db.Scopes(database.ForUser(userID), database.NewestFirst).
		Limit(notificationListLimit).
		Find(&list.Notifications).Error; err != nil {
		return nil, upstream("list notifications", err)
	}
	if err := db.Model(&models.Notification{}).
		Scopes(database.ForUser(userID)).
		Where("read = ?", false).
		Count(&list.UnreadCount).Error; err != nil {
		return nil, upstream("count unread notifications", err)
	}
	return list, nil
}

// MarkRead flags one of the user's notifications as read. Marking an already
// read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	db := s.db.WithContext(ctx)

	result := db.Model(&models.Notification{}).
		Scopes(database.ForUser(userID)).
		Where("id = ? AND read = ?", notificationID, false).
		Update("read", true)
	if result.Error != nil {
		return upstream("mark notification read", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var notification models.Notification
	err := db.Scopes(database.ForUser(userID)).First(&notification, "id = ?", notificationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return upstream("load notification", err)
	}
	return nil
}

// MarkAllRead flags every unread notification of the user and returns how
// many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Scopes(database.ForUser(userID)).
		Where("read = ?", false).
		Update("read", true)
	if result.Error != nil {
		return 0, upstream("mark notifications read", result.Error)
	}
	return result.RowsAffected, nil
}

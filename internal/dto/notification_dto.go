package dto

import (
	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/models"
)

type CreateNotificationRequest struct {
	UserID           uuid.UUID  `json:"user_id" validate:"required"`
	Type             string     `json:"type" validate:"required,oneof=info success error request"`
	Title            string     `json:"title" validate:"required,max=255"`
	Message          string     `json:"message"`
	RelatedRequestID *uuid.UUID `json:"related_request_id,omitempty"`
}

type NotificationList struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
}

type SupervisorNotifications struct {
	NotificationList
	PendingRequests []models.RegistrationRequest `json:"pending_requests"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationRequest NotificationType = "request"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInfo, NotificationSuccess, NotificationError, NotificationRequest:
		return true
	}
	return false
}

// Notification is written once and afterwards only flipped to read.
type Notification struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type             NotificationType `gorm:"size:20;not null" json:"type"`
	Title            string           `gorm:"size:255;not null" json:"title"`
	Message          string           `gorm:"type:text" json:"message"`
	RelatedRequestID *uuid.UUID       `gorm:"type:uuid;index" json:"related_request_id,omitempty"`
	Read             bool             `gorm:"not null" json:"read"`
	CreatedAt        time.Time        `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	assignID(&n.ID)
	return nil
}

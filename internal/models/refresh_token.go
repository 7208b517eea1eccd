package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefreshToken struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PrincipalID uuid.UUID `gorm:"type:uuid;not null;index" json:"principal_id"`
	TokenHash   string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`
	Revoked     bool      `gorm:"not null" json:"revoked"`
	CreatedAt   time.Time `json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Principal is the identity-provider record proving an email/password pair.
// Application code only ever creates or deletes it.
type Principal struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	EmailConfirmed bool      `gorm:"not null" json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (p *Principal) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

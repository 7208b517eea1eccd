package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdvisor Role = "advisor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdvisor, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may review registration requests.
func (r Role) IsStaff() bool {
	return r == RoleAdvisor || r == RoleAdmin
}

// User is the application account. A non-nil PrincipalID must point at a live
// Principal; rows whose principal is gone are orphans and get removed by the
// signup reconciler.
type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PrincipalID     *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"principal_id"`
	Email           string     `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Name            string     `gorm:"not null;size:255" json:"name"`
	Role            Role       `gorm:"size:20;not null;index" json:"role"`
	StudentIDNumber *string    `gorm:"size:50" json:"student_id_number,omitempty"`
	Phone           *string    `gorm:"size:30" json:"phone,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	StudentProfile    *StudentProfile    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"student_profile,omitempty"`
	SupervisorProfile *SupervisorProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"supervisor_profile,omitempty"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

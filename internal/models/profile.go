package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinLevel = 1
	MinGPA   = 0.0
	MaxGPA   = 5.0
)

// StudentProfile exists only for users with RoleStudent.
type StudentProfile struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Major            string    `gorm:"size:255" json:"major"`
	Level            int       `gorm:"not null" json:"level"`
	GPA              float64   `gorm:"column:gpa;not null" json:"gpa"`
	TotalCredits     int       `gorm:"not null" json:"total_credits"`
	CompletedCredits int       `gorm:"not null" json:"completed_credits"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (p *StudentProfile) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// SupervisorProfile exists only for users with RoleAdvisor.
type SupervisorProfile struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Department     string    `gorm:"size:255" json:"department"`
	OfficeLocation *string   `gorm:"size:255" json:"office_location,omitempty"`
	OfficeHours    *string   `gorm:"size:255" json:"office_hours,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (p *SupervisorProfile) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// IsDecision reports whether s is a state a reviewer may resolve a request to.
func (s RequestStatus) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// RegistrationRequest asks for a seat in a course for one term. The
// (student_id, course_id, term) triple is unique at the storage level.
type RegistrationRequest struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID  uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_registration_triple,priority:1" json:"student_id"`
	CourseID   uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_registration_triple,priority:2" json:"course_id"`
	Term       string        `gorm:"size:20;not null;uniqueIndex:idx_registration_triple,priority:3" json:"term"`
	Status     RequestStatus `gorm:"size:20;not null;index" json:"status"`
	Notes      *string       `gorm:"size:1000" json:"notes,omitempty"`
	ReviewedBy *uuid.UUID    `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	CreatedAt  time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	Course  *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Student *User   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

func (r *RegistrationRequest) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}

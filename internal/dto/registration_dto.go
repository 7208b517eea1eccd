package dto

import (
	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/models"
)

type SubmitRegistrationRequest struct {
	CourseID uuid.UUID `json:"course_id" validate:"required"`
	Term     string    `json:"term" validate:"required,max=20"`
}

// ResolveRegistrationRequest carries a reviewer's decision. Status is checked
// by the approval service so unknown values surface as invalid status.
type ResolveRegistrationRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type UpdateStudentRequest struct {
	Name  *string  `json:"name,omitempty" validate:"omitempty,max=255"`
	Phone *string  `json:"phone,omitempty" validate:"omitempty,max=30"`
	Major *string  `json:"major,omitempty" validate:"omitempty,max=255"`
	Level *int     `json:"level,omitempty"`
	GPA   *float64 `json:"gpa,omitempty"`
}

type StudentDashboard struct {
	Student         *models.User `json:"student"`
	Total           int64        `json:"total"`
	Pending         int64        `json:"pending"`
	Approved        int64        `json:"approved"`
	Rejected        int64        `json:"rejected"`
	RegisteredHours int          `json:"registered_hours"`
}

type SupervisorStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Students int64 `json:"students"`
}

type AdminStats struct {
	Users           int64 `json:"users"`
	Students        int64 `json:"students"`
	Advisors        int64 `json:"advisors"`
	Admins          int64 `json:"admins"`
	Courses         int64 `json:"courses"`
	Requests        int64 `json:"requests"`
	PendingRequests int64 `json:"pending_requests"`
}

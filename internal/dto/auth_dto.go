package dto

import (
	"time"

	"github.com/kku-mis/course-registration/internal/models"
)

type SignupRequest struct {
	Email           string   `json:"email" validate:"required,email,max=255"`
	Password        string   `json:"password" validate:"required,min=6,max=72"`
	Name            string   `json:"name" validate:"required,max=255"`
	Role            string   `json:"role" validate:"required,oneof=student advisor admin"`
	StudentIDNumber *string  `json:"student_id_number,omitempty" validate:"omitempty,max=50"`
	Phone           *string  `json:"phone,omitempty" validate:"omitempty,max=30"`
	Major           string   `json:"major,omitempty" validate:"max=255"`
	Level           *int     `json:"level,omitempty" validate:"omitempty,gte=1"`
	GPA             *float64 `json:"gpa,omitempty" validate:"omitempty,gte=0,lte=5"`
	Department      string   `json:"department,omitempty" validate:"max=255"`
	OfficeLocation  *string  `json:"office_location,omitempty" validate:"omitempty,max=255"`
	OfficeHours     *string  `json:"office_hours,omitempty" validate:"omitempty,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CleanupOrphanRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type SignupResponse struct {
	User     *models.User `json:"user"`
	Warnings []string     `json:"warnings,omitempty"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *models.User `json:"user"`
}

type CleanupOrphanResponse struct {
	Email   string `json:"email"`
	Cleaned bool   `json:"cleaned"`
}

type ErrorResponse struct {
	Error   bool        `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Redis     string `json:"redis"`
}

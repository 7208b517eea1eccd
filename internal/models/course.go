package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course is read-mostly catalog data. Enrolled is a cache of approved
// registrations, bumped in the same transaction as an approval.
type Course struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code       string         `gorm:"not null;size:20;uniqueIndex" json:"code"`
	NameAr     string         `gorm:"size:255" json:"name_ar"`
	NameEn     string         `gorm:"size:255" json:"name_en"`
	Credits    int            `gorm:"not null" json:"credits"`
	Level      int            `gorm:"not null;index" json:"level"`
	Capacity   int            `gorm:"not null" json:"capacity"`
	Enrolled   int            `gorm:"not null" json:"enrolled"`
	Instructor string         `gorm:"size:255" json:"instructor"`
	Schedule   datatypes.JSON `gorm:"type:jsonb" json:"schedule,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (c *Course) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Name returns the course name in lang, falling back to whichever name is set.
func (c *Course) Name(lang string) string {
	if lang == "en" && c.NameEn != "" {
		return c.NameEn
	}
	if c.NameAr != "" {
		return c.NameAr
	}
	return c.NameEn
}

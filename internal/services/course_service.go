package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/models"
	"gorm.io/gorm"
)

type CourseService struct {
	db *gorm.DB
}

func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{db: db}
}

// List returns the catalog ordered by level then code. A non-nil level
// restricts it to that level.
func (s *CourseService) List(ctx context.Context, level *int) ([]models.Course, error) {
	query := s.db.WithContext(ctx).Order("level").Order("code")
	if level != nil {
		query = query.Where("level = ?", *level)
	}

	courses := make([]models.Course, 0)
	if err := query.Find(&courses).Error; err != nil {
		return nil, upstream("list courses", err)
	}
	return courses, nil
}

func (s *CourseService) Get(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, upstream("load course", err)
	}
	return &course, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/database"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/models"
	"gorm.io/gorm"
)

type StudentService struct {
	db *gorm.DB
}

func NewStudentService(db *gorm.DB) *StudentService {
	return &StudentService{db: db}
}

func (s *StudentService) Get(ctx context.Context, studentID uuid.UUID) (*models.User, error) {
	var student models.User
	err := s.db.WithContext(ctx).
		Preload("StudentProfile").
		Where("id = ? AND role = ?", studentID, models.RoleStudent).
		First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, upstream("load student", err)
	}
	return &student, nil
}

// UpdateProfile changes the student's contact details and academic profile.
// The profile row is created when signup failed to write it.
func (s *StudentService) UpdateProfile(ctx context.Context, studentID uuid.UUID, req *dto.UpdateStudentRequest) (*models.User, error) {
	if err := dto.Validate(req); err != nil {
		return nil, invalidInput(err)
	}
	fields := map[string]string{}
	if req.Level != nil && *req.Level < models.MinLevel {
		fields["level"] = fmt.Sprintf("level must be greater than or equal to %d", models.MinLevel)
	}
	if req.GPA != nil && (*req.GPA < models.MinGPA || *req.GPA > models.MaxGPA) {
		fields["gpa"] = fmt.Sprintf("gpa must be between %.1f and %.1f", models.MinGPA, models.MaxGPA)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		fields["name"] = "name must not be empty"
	}
	if len(fields) > 0 {
		return nil, invalidInput(&dto.ValidationError{Fields: fields})
	}

	student, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	userUpdates := map[string]interface{}{}
	if req.Name != nil {
		userUpdates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		userUpdates["phone"] = *req.Phone
	}

	profile := student.StudentProfile
	if profile == nil {
		profile = &models.StudentProfile{UserID: student.ID, Major: defaultMajor, Level: models.MinLevel}
	}
	if req.Major != nil {
		profile.Major = strings.TrimSpace(*req.Major)
	}
	if req.Level != nil {
		profile.Level = *req.Level
	}
	if req.GPA != nil {
		profile.GPA = *req.GPA
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(userUpdates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", student.ID).Updates(userUpdates).Error; err != nil {
				return err
			}
		}
		return tx.Save(profile).Error
	})
	if err != nil {
		return nil, upstream("update student profile", err)
	}

	return s.Get(ctx, studentID)
}

// Dashboard summarises a student's requests. Registered hours count the
// credits of pending and approved requests.
func (s *StudentService) Dashboard(ctx context.Context, studentID uuid.UUID) (*dto.StudentDashboard, error) {
	student, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	counts, err := countByStatus(s.db.WithContext(ctx).Scopes(database.ForStudent(studentID)))
	if err != nil {
		return nil, err
	}

	var hours int64
	err = s.db.WithContext(ctx).
		Table("registration_requests").
		Joins("JOIN courses ON courses.id = registration_requests.course_id").
		Where("registration_requests.student_id = ? AND registration_requests.status IN ?",
			studentID, []models.RequestStatus{models.StatusPending, models.StatusApproved}).
		Select("COALESCE(SUM(courses.credits), 0)").
		Scan(&hours).Error
	if err != nil {
		return nil, upstream("sum registered hours", err)
	}

	return &dto.StudentDashboard{
		Student:         student,
		Total:           counts.total,
		Pending:         counts.byStatus[models.StatusPending],
		Approved:        counts.byStatus[models.StatusApproved],
		Rejected:        counts.byStatus[models.StatusRejected],
		RegisteredHours: int(hours),
	}, nil
}

type statusCounts struct {
	total    int64
	byStatus map[models.RequestStatus]int64
}

// countByStatus groups registration requests matched by scope.
func countByStatus(scope *gorm.DB) (*statusCounts, error) {
	var rows []struct {
		Status models.RequestStatus
		Count  int64
	}
	err := scope.Model(&models.RegistrationRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, upstream("count registration requests", err)
	}

	counts := &statusCounts{byStatus: make(map[models.RequestStatus]int64, len(rows))}
	for _, row := range rows {
		counts.byStatus[row.Status] = row.Count
		counts.total += row.Count
	}
	return counts, nil
}

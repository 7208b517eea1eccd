package services

import (
	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/models"
	"gorm.io/gorm"
)

// deleteUserRows removes a user and every row that belongs to it. It must be
// called inside a transaction.
func deleteUserRows(tx *gorm.DB, userID uuid.UUID) error {
	if err := tx.Where("user_id = ?", userID).Delete(&models.StudentProfile{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.SupervisorProfile{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.Notification{}).Error; err != nil {
		return err
	}
	if err := tx.Where("student_id = ?", userID).Delete(&models.RegistrationRequest{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", userID).Delete(&models.User{}).Error
}

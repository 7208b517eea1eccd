package logging

import (
	"context"
	"time"

	"github.com/kku-mis/course-registration/internal/models"
	"gorm.io/gorm"
)

// Purge deletes system_logs older than retentionDays and reports how many
// rows went.
func Purge(ctx context.Context, db *gorm.DB, retentionDays int, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -retentionDays)
	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}

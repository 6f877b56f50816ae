package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"gorm.io/gorm"
)

const logRetention = 30 * 24 * time.Hour

// StartCleanup runs a daily goroutine that deletes system_logs older than 30
// days, plus spent refresh tokens.
func StartCleanup(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				Cleanup(db, time.Now())
			case <-done:
				return
			}
		}
	}()
}

// Cleanup performs one retention pass as of now.
func Cleanup(db *gorm.DB, now time.Time) {
	result := db.Where("timestamp < ?", now.Add(-logRetention)).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "action", "cleanup", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "action", "cleanup", "deleted", result.RowsAffected)
	}

	result = db.Where("revoked = ? OR expires_at < ?", true, now).Delete(&models.RefreshToken{})
	if result.Error != nil {
		slog.Error("refresh token cleanup failed", "action", "cleanup", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("refresh tokens purged", "action", "cleanup", "deleted", result.RowsAffected)
	}
}

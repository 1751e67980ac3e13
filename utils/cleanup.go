package utils

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/onboarding-backend/models"
)

// CleanupResult đếm số bản ghi đã xoá trong một lượt dọn dẹp.
type CleanupResult struct {
	Sessions       int64
	PasswordResets int64
}

// CleanupExpired xoá session hết hạn và token đặt lại mật khẩu hết hạn hoặc đã dùng.
func CleanupExpired(ctx context.Context, db *gorm.DB, now time.Time) (CleanupResult, error) {
	var res CleanupResult

	result := db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.Session{})
	if result.Error != nil {
		return res, result.Error
	}
	res.Sessions = result.RowsAffected

	result = db.WithContext(ctx).Where("expires_at < ? OR used = ?", now, true).
		Delete(&models.PasswordReset{})
	if result.Error != nil {
		return res, result.Error
	}
	res.PasswordResets = result.RowsAffected
	return res, nil
}

// StartCleanupJob chạy dọn dẹp ngay khi khởi động rồi lặp lại theo interval
// cho tới khi ctx bị huỷ.
func StartCleanupJob(ctx context.Context, db *gorm.DB, interval time.Duration, logger *slog.Logger) {
	run := func() {
		res, err := CleanupExpired(ctx, db, time.Now().UTC())
		if err != nil {
			logger.Error("cleanup failed", "error", err)
			return
		}
		if res.Sessions > 0 || res.PasswordResets > 0 {
			logger.Info("cleanup done", "sessions", res.Sessions, "password_resets", res.PasswordResets)
		}
	}

	run()
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
	logger.Info("cleanup job started", "interval", interval.String())
}

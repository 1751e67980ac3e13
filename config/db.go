package config

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/vnkhanh/onboarding-backend/models"
)

// OpenDB mở kết nối theo DB_DRIVER và cấu hình connection pool.
func OpenDB(cfg *Config, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Dialector{DriverName: "sqlite", DSN: sqliteDSN(cfg.DatabaseURL)}
	default:
		dialector = postgres.Open(cfg.DatabaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(logger, cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("không thể kết nối database: %w", err)
	}

	// Lấy *sql.DB để config connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("không thể lấy sql.DB từ gorm: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// sqlite chỉ cho một writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if cfg.DBAutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}
	logger.Info("database connected", "driver", cfg.DBDriver, "auto_migrate", cfg.DBAutoMigrate)
	return db, nil
}

// OpenSQLite mở file sqlite và tạo schema bằng AutoMigrate. Dùng cho test và chạy local.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: sqliteDSN(path)}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func sqliteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// AutoMigrate tạo/cập nhật bảng từ models.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Profile{},
		&models.Account{},
		&models.Session{},
		&models.Topic{},
		&models.TopicDocument{},
		&models.TopicLink{},
		&models.TopicContact{},
		&models.ProgressRecord{},
		&models.ActivityLogEntry{},
		&models.PasswordReset{},
	)
	if err != nil {
		return fmt.Errorf("autoMigrate lỗi: %w", err)
	}
	return nil
}

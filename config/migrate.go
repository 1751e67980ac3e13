package config

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

func migrationDir(driver string) (dialect, dir string) {
	if driver == "sqlite" {
		return "sqlite3", "migrations/sqlite"
	}
	return "postgres", "migrations/postgres"
}

// RunMigrations chạy lệnh goose ("up", "down", "status", "version") trên database hiện tại.
func RunMigrations(ctx context.Context, db *gorm.DB, driver, command string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	dialect, dir := migrationDir(driver)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	goose.SetBaseFS(migrationsFS)

	switch command {
	case "up":
		return goose.UpContext(ctx, sqlDB, dir)
	case "down":
		return goose.DownContext(ctx, sqlDB, dir)
	case "status":
		return goose.StatusContext(ctx, sqlDB, dir)
	case "version":
		return goose.VersionContext(ctx, sqlDB, dir)
	default:
		return fmt.Errorf("lệnh migrate không hỗ trợ: %q", command)
	}
}

package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger tạo slog JSON logger theo LOG_LEVEL.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

type gormWriter struct {
	logger *slog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Info(fmt.Sprintf(format, args...), "component", "gorm")
}

// newGormLogger cho gorm ghi qua slog, mức log đi theo LOG_LEVEL.
func newGormLogger(logger *slog.Logger, level string) gormlogger.Interface {
	gl := gormlogger.Warn
	switch parseLevel(level) {
	case slog.LevelDebug:
		gl = gormlogger.Info
	case slog.LevelError:
		gl = gormlogger.Error
	}
	return gormlogger.New(gormWriter{logger: logger}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gl,
		IgnoreRecordNotFoundError: true,
	})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vnkhanh/onboarding-backend/config"
	"github.com/vnkhanh/onboarding-backend/routes"
	"github.com/vnkhanh/onboarding-backend/services"
	"github.com/vnkhanh/onboarding-backend/utils"
	"github.com/vnkhanh/onboarding-backend/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Chạy HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, logger)
	},
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("cấu hình không hợp lệ: %w", err)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newFileStore(cfg *config.Config) (utils.FileStore, error) {
	if cfg.StorageDriver == "supabase" {
		return utils.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
	}
	return utils.NewLocalStore(cfg.FilesDir)
}

func newLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) utils.LoginLimiter {
	if cfg.LoginMaxAttempts == 0 {
		return utils.NoopLimiter{}
	}
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err == nil {
			client := redis.NewClient(opt)
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err = client.Ping(pingCtx).Err()
			cancel()
			if err == nil {
				logger.Info("login limiter: redis")
				return utils.NewRedisLimiter(client, cfg.LoginMaxAttempts, cfg.LoginLockWindow)
			}
			_ = client.Close()
		}
		logger.Warn("redis không khả dụng, dùng limiter trong bộ nhớ", "error", err)
	}
	return utils.NewMemoryLimiter(cfg.LoginMaxAttempts, cfg.LoginLockWindow)
}

func newMailer(cfg *config.Config, logger *slog.Logger) utils.Mailer {
	if cfg.SMTPHost == "" {
		return utils.LogMailer{Logger: logger}
	}
	return utils.SMTPMailer{Host: cfg.SMTPHost, Port: cfg.SMTPPort, From: cfg.SMTPEmail, Password: cfg.SMTPPassword}
}

// buildDeps khởi tạo toàn bộ service từ cấu hình.
func buildDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (routes.Deps, error) {
	db, err := config.OpenDB(cfg, logger)
	if err != nil {
		return routes.Deps{}, err
	}
	tokens, err := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	if err != nil {
		return routes.Deps{}, err
	}
	files, err := newFileStore(cfg)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("khởi tạo storage: %w", err)
	}
	mailer := newMailer(cfg, logger)

	auth := services.NewAuthService(db, tokens, services.AuthConfig{
		RememberMeTTL: cfg.RememberMeTTL,
		ResetTokenTTL: cfg.ResetTokenTTL,
		AppURL:        cfg.AppURL,
	}, logger)
	auth.SetLimiter(newLimiter(ctx, cfg, logger))
	auth.SetMailer(mailer)
	if cfg.GoogleClientID != "" {
		auth.SetGoogleVerifier(services.IDTokenVerifier{ClientID: cfg.GoogleClientID})
	}

	hub := ws.NewHub(logger)
	progress := services.NewProgressService(db, cfg.ActivityLogEnabled, logger)
	progress.SetNotifier(hub)

	return routes.Deps{
		DB:             db,
		Auth:           auth,
		Progress:       progress,
		Topics:         services.NewTopicService(db, files, logger),
		Accounts:       services.NewAccountService(db, mailer, cfg.AppURL, logger),
		Export:         services.NewExportService(progress),
		Files:          files,
		Hub:            hub,
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, nil
}

func serve(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.GinMode)
	deps, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	utils.StartCleanupJob(ctx, deps.DB, cfg.CleanupInterval, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewEngine(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if sqlDB, err := deps.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DBDriver      string // postgres | sqlite
	DatabaseURL   string
	DBAutoMigrate bool

	JWTSecret     string
	JWTIssuer     string
	JWTAudience   string
	TokenTTL      time.Duration
	RememberMeTTL time.Duration
	ResetTokenTTL time.Duration

	CORSAllowedOrigins []string

	StorageDriver  string // local | supabase
	FilesDir       string
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	SMTPHost     string
	SMTPPort     int
	SMTPEmail    string
	SMTPPassword string
	AppURL       string

	RedisURL         string
	LoginMaxAttempts int
	LoginLockWindow  time.Duration

	ActivityLogEnabled bool
	CleanupInterval    time.Duration
	GoogleClientID     string
}

var defaults = map[string]any{
	"PORT":                 "8080",
	"GIN_MODE":             "release",
	"LOG_LEVEL":            "info",
	"DB_DRIVER":            "postgres",
	"DB_HOST":              "localhost",
	"DB_PORT":              "5432",
	"DB_USER":              "postgres",
	"DB_NAME":              "onboarding",
	"DB_SSLMODE":           "disable",
	"SQLITE_PATH":          "onboarding.db",
	"DB_AUTO_MIGRATE":      false,
	"JWT_ISSUER":           "VivoKnowledge",
	"JWT_AUDIENCE":         "VivoKnowledgeUsers",
	"TOKEN_TTL":            "2h",
	"REMEMBER_ME_TTL":      "168h",
	"RESET_TOKEN_TTL":      "1h",
	"CORS_ALLOWED_ORIGINS": "http://localhost:5173",
	"STORAGE_DRIVER":       "local",
	"FILES_DIR":            "files",
	"SUPABASE_BUCKET":      "uploads",
	"SMTP_PORT":            587,
	"APP_URL":              "http://localhost:5173",
	"LOGIN_MAX_ATTEMPTS":   5,
	"LOGIN_LOCK_WINDOW":    "15m",
	"ACTIVITY_LOG_ENABLED": true,
	"CLEANUP_INTERVAL":     "6h",
}

// Load đọc .env (nếu có), config.yaml (nếu có) rồi biến môi trường.
// Biến môi trường luôn được ưu tiên.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("đọc config.yaml: %w", err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		Port:     v.GetString("PORT"),
		GinMode:  v.GetString("GIN_MODE"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DBDriver:      strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		DBAutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),

		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTIssuer:     v.GetString("JWT_ISSUER"),
		JWTAudience:   v.GetString("JWT_AUDIENCE"),
		TokenTTL:      v.GetDuration("TOKEN_TTL"),
		RememberMeTTL: v.GetDuration("REMEMBER_ME_TTL"),
		ResetTokenTTL: v.GetDuration("RESET_TOKEN_TTL"),

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		StorageDriver:  strings.ToLower(v.GetString("STORAGE_DRIVER")),
		FilesDir:       v.GetString("FILES_DIR"),
		SupabaseURL:    v.GetString("SUPABASE_URL"),
		SupabaseKey:    v.GetString("SUPABASE_KEY"),
		SupabaseBucket: v.GetString("SUPABASE_BUCKET"),

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPEmail:    v.GetString("SMTP_EMAIL"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		AppURL:       strings.TrimRight(v.GetString("APP_URL"), "/"),

		RedisURL:         v.GetString("REDIS_URL"),
		LoginMaxAttempts: v.GetInt("LOGIN_MAX_ATTEMPTS"),
		LoginLockWindow:  v.GetDuration("LOGIN_LOCK_WINDOW"),

		ActivityLogEnabled: v.GetBool("ACTIVITY_LOG_ENABLED"),
		CleanupInterval:    v.GetDuration("CLEANUP_INTERVAL"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = buildDSN(v, cfg.DBDriver)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildDSN(v *viper.Viper, driver string) string {
	if driver == "sqlite" {
		return v.GetString("SQLITE_PATH")
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		v.GetString("DB_HOST"), v.GetString("DB_USER"), v.GetString("DB_PASSWORD"),
		v.GetString("DB_NAME"), v.GetString("DB_PORT"), v.GetString("DB_SSLMODE"),
	)
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET là bắt buộc và phải dài ít nhất 32 byte"))
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER không hỗ trợ: %q", c.DBDriver))
	}
	switch c.StorageDriver {
	case "local":
	case "supabase":
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			errs = append(errs, errors.New("STORAGE_DRIVER=supabase cần SUPABASE_URL và SUPABASE_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER không hỗ trợ: %q", c.StorageDriver))
	}
	for name, d := range map[string]time.Duration{
		"TOKEN_TTL":        c.TokenTTL,
		"REMEMBER_ME_TTL":  c.RememberMeTTL,
		"RESET_TOKEN_TTL":  c.ResetTokenTTL,
		"CLEANUP_INTERVAL": c.CleanupInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s phải là duration dương", name))
		}
	}
	if c.LoginMaxAttempts < 0 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS không được âm"))
	}
	if c.LoginMaxAttempts > 0 && c.LoginLockWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_LOCK_WINDOW phải là duration dương"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

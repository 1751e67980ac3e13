package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/onboarding-backend/config"
	"github.com/vnkhanh/onboarding-backend/models"
	"github.com/vnkhanh/onboarding-backend/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return db
}

func createProfile(t *testing.T, db *gorm.DB, name string, role models.Role) models.Profile {
	t.Helper()
	p := models.Profile{Name: name, Role: role, Active: true}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create profile %s: %v", name, err)
	}
	return p
}

func createAccount(t *testing.T, db *gorm.DB, email, password string, profile models.Profile, active bool) models.Account {
	t.Helper()
	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	acc := models.Account{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Test " + email,
		ProfileID:    profile.ID,
		Active:       true,
		FirstLogin:   true,
	}
	if err := db.Omit(clause.Associations).Create(&acc).Error; err != nil {
		t.Fatalf("create account %s: %v", email, err)
	}
	if !active {
		if err := db.Model(&acc).Update("active", false).Error; err != nil {
			t.Fatalf("deactivate: %v", err)
		}
		acc.Active = false
	}
	acc.Profile = profile
	return acc
}

func createTopic(t *testing.T, db *gorm.DB, title, estimate string, active bool) models.Topic {
	t.Helper()
	topic := models.Topic{Title: title, Slug: title, Category: "Geral", EstimatedTime: estimate, Active: true}
	if err := db.Create(&topic).Error; err != nil {
		t.Fatalf("create topic %s: %v", title, err)
	}
	if !active {
		if err := db.Model(&topic).Update("active", false).Error; err != nil {
			t.Fatalf("deactivate topic: %v", err)
		}
		topic.Active = false
	}
	return topic
}

type sentMail struct {
	to, subject, body string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *captureMailer) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

func newTestAuth(t *testing.T, db *gorm.DB) *AuthService {
	t.Helper()
	tokens, err := utils.NewTokenIssuer(testSecret, "VivoKnowledge", "VivoKnowledgeUsers", 2*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return NewAuthService(db, tokens, AuthConfig{
		RememberMeTTL: 7 * 24 * time.Hour,
		ResetTokenTTL: time.Hour,
		AppURL:        "http://localhost:5173",
	}, discardLogger())
}

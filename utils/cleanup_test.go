package utils

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/onboarding-backend/config"
	"github.com/vnkhanh/onboarding-backend/models"
)

func TestCleanupExpired(t *testing.T) {
	db, err := config.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	ctx := context.Background()
	now := time.Now().UTC()

	profile := models.Profile{Name: "QA", Role: models.RoleMember, Active: true}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	acc := models.Account{Email: "qa@vivo.com.br", FullName: "QA", PasswordHash: "x", ProfileID: profile.ID, Active: true}
	if err := db.Omit(clause.Associations).Create(&acc).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}

	sessions := []models.Session{
		{AccountID: acc.ID, AccessTokenHash: "a1", RefreshTokenHash: "r1", ExpiresAt: now.Add(-time.Minute)},
		{AccountID: acc.ID, AccessTokenHash: "a2", RefreshTokenHash: "r2", ExpiresAt: now.Add(time.Hour)},
	}
	if err := db.Omit(clause.Associations).Create(&sessions).Error; err != nil {
		t.Fatalf("create sessions: %v", err)
	}
	resets := []models.PasswordReset{
		{AccountID: acc.ID, TokenHash: "t1", ExpiresAt: now.Add(-time.Minute)},
		{AccountID: acc.ID, TokenHash: "t2", ExpiresAt: now.Add(time.Hour), Used: true},
		{AccountID: acc.ID, TokenHash: "t3", ExpiresAt: now.Add(time.Hour)},
	}
	if err := db.Create(&resets).Error; err != nil {
		t.Fatalf("create resets: %v", err)
	}

	res, err := CleanupExpired(ctx, db, now)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if res.Sessions != 1 || res.PasswordResets != 2 {
		t.Fatalf("unexpected result %+v", res)
	}

	var left []models.Session
	db.Find(&left)
	if len(left) != 1 || left[0].RefreshTokenHash != "r2" {
		t.Fatalf("wrong session kept: %+v", left)
	}
	var reset models.PasswordReset
	if err := db.First(&reset).Error; err != nil || reset.TokenHash != "t3" {
		t.Fatalf("wrong reset kept: %+v (%v)", reset, err)
	}
	if acc.ID == uuid.Nil {
		t.Fatal("account id not generated")
	}
}

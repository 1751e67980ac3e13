package models

import (
	"time"

	"github.com/google/uuid"
)

type PasswordReset struct {
	ID        uint      `gorm:"primaryKey"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenHash string    `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Used      bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session gắn cặp access/refresh token đang hoạt động với một tài khoản.
// Chỉ lưu hash của token.
type Session struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID        uuid.UUID `gorm:"type:uuid;not null;index" json:"accountId"`
	AccessTokenHash  string    `gorm:"size:64;not null;index" json:"-"`
	RefreshTokenHash string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	ExpiresAt        time.Time `gorm:"not null;index" json:"expiresAt"`
	RememberMe       bool      `gorm:"not null" json:"rememberMe"`
	IPAddress        string    `gorm:"size:64" json:"ipAddress"`
	UserAgent        string    `gorm:"size:512" json:"userAgent"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Account Account `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Account struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:text;not null" json:"-"`
	FullName     string     `gorm:"size:150;not null" json:"fullName"`
	ProfileID    uint       `gorm:"not null;index" json:"profileId"`
	Profile      Profile    `gorm:"constraint:OnDelete:RESTRICT;" json:"profile"`
	Active       bool       `gorm:"not null" json:"active"`
	FirstLogin   bool       `gorm:"not null" json:"firstLogin"`
	ManagerID    *uuid.UUID `gorm:"type:uuid;index" json:"managerId,omitempty"` // nil với quản trị viên
	Phone        string     `gorm:"size:50" json:"phone,omitempty"`
	Department   string     `gorm:"size:100" json:"department,omitempty"`
	JobTitle     string     `gorm:"size:100" json:"jobTitle,omitempty"`
	AvatarURL    string     `gorm:"size:500" json:"avatarUrl,omitempty"`
	HiredAt      *time.Time `json:"hiredAt,omitempty"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Email = NormalizeEmail(a.Email)
	return nil
}

// Role trả về vai trò của profile đã preload, mặc định là member.
func (a Account) Role() Role {
	if a.Profile.Role == "" {
		return RoleMember
	}
	return a.Profile.Role
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

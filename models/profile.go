package models

import "time"

// Profile nhóm tài khoản theo đội và xác định vai trò.
type Profile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Role        Role      `gorm:"type:varchar(20);not null" json:"role"`
	Active      bool      `gorm:"not null" json:"active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Accounts []Account `json:"-"`
}

package models

import "time"

// Topic là một đơn vị nội dung onboarding. ID tăng dần quyết định thứ tự gợi ý.
type Topic struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Slug          string    `gorm:"size:200;uniqueIndex" json:"slug"`
	Description   string    `gorm:"size:1000" json:"description"`
	Category      string    `gorm:"size:100;index" json:"category"`
	EstimatedTime string    `gorm:"size:20" json:"estimatedTime"` // "2h", "1.5h", "90min"
	Active        bool      `gorm:"not null;index" json:"active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Documents []TopicDocument `gorm:"constraint:OnDelete:CASCADE" json:"documents"`
	Links     []TopicLink     `gorm:"constraint:OnDelete:CASCADE" json:"links"`
	Contacts  []TopicContact  `gorm:"constraint:OnDelete:CASCADE" json:"contacts"`
}

type TopicDocument struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	TopicID uint   `gorm:"not null;index" json:"-"`
	Title   string `gorm:"size:200;not null" json:"title"`
	Type    string `gorm:"size:20;not null" json:"type"` // pdf|doc|link
	URL     string `gorm:"size:500;not null" json:"url"`
	Size    string `gorm:"size:20" json:"size,omitempty"`
	Pages   int    `json:"pages,omitempty"`
}

type TopicLink struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	TopicID uint   `gorm:"not null;index" json:"-"`
	Title   string `gorm:"size:200;not null" json:"title"`
	URL     string `gorm:"size:500;not null" json:"url"`
}

type TopicContact struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	TopicID    uint   `gorm:"not null;index" json:"-"`
	Name       string `gorm:"size:100;not null" json:"name"`
	Role       string `gorm:"size:100" json:"role"`
	Email      string `gorm:"size:100;not null" json:"email"`
	Phone      string `gorm:"size:50" json:"phone"`
	Department string `gorm:"size:100" json:"department"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressRecord là trạng thái hoàn thành của một tài khoản với một topic.
type ProgressRecord struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AccountID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_account_topic" json:"accountId"`
	TopicID     uint       `gorm:"not null;uniqueIndex:idx_progress_account_topic" json:"topicId"`
	Completed   bool       `gorm:"not null" json:"completed"`
	StartedAt   time.Time  `gorm:"not null" json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	TimeSpent   string     `gorm:"size:50" json:"timeSpent,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	Account Account `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	Topic   Topic   `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE" json:"-"`
}

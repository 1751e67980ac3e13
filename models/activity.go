package models

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityCompleted ActivityType = "completed"
	ActivityStarted   ActivityType = "started"
	ActivityUpdated   ActivityType = "updated"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityCompleted, ActivityStarted, ActivityUpdated:
		return true
	}
	return false
}

// ActivityLogEntry là nhật ký hoạt động, chỉ ghi thêm, không phải nguồn dữ liệu chính.
type ActivityLogEntry struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	AccountID  uuid.UUID    `gorm:"type:uuid;not null;index:idx_activity_account_time" json:"accountId"`
	Action     string       `gorm:"size:200;not null" json:"action"`
	TopicTitle string       `gorm:"size:200" json:"topicTitle"`
	Type       ActivityType `gorm:"type:varchar(20);not null" json:"type"`
	OccurredAt time.Time    `gorm:"not null;index:idx_activity_account_time" json:"occurredAt"`
}

func (ActivityLogEntry) TableName() string {
	return "activity_log"
}

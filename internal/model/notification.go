package model

import (
	"time"
)

// 通知类型
const (
	NotifyInfo    = "INFO"
	NotifySuccess = "SUCCESS"
	NotifyWarning = "WARNING"
	NotifyError   = "ERROR"
)

type Notification struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	TenantID    int64     `gorm:"index;not null" json:"tenant_id"`
	RecipientID int64     `gorm:"index;uniqueIndex:idx_notification_dedup;not null" json:"recipient_id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Message     string    `gorm:"type:text" json:"message"`
	Type        string    `gorm:"size:10;not null" json:"type"`
	IsRead      bool      `json:"is_read"`
	Link        string    `gorm:"size:255" json:"link"`
	DedupKey    *string   `gorm:"size:150;uniqueIndex:idx_notification_dedup" json:"-"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

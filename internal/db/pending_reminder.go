package db

import "time"

// PendingReminder 是已注册的每日提醒触发器
// Identifier 唯一，重复注册同一标识会覆盖旧内容
type PendingReminder struct {
	ID         uint   `gorm:"primaryKey"`
	Identifier string `gorm:"size:120;uniqueIndex;not null"`
	Hour       int    `gorm:"not null"`
	Minute     int    `gorm:"not null"`
	Repeats    bool   `gorm:"default:true"`
	Title      string
	Body       string `gorm:"type:text"`
	Category   string `gorm:"size:60"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName 自定义表名以保持命名一致。
func (PendingReminder) TableName() string {
	return "pending_reminders"
}

package db

import "time"

// WidgetSnapshotKey 是小组件快照唯一一行的主键。
const WidgetSnapshotKey = "widget"

// WidgetSnapshot 保存小组件读取的今日饮水量与目标，只在写操作之后刷新。
type WidgetSnapshot struct {
	Key          string  `gorm:"primaryKey;size:32"`
	TodaysIntake float64 `gorm:"not null;default:0"`
	DailyGoal    float64 `gorm:"not null;default:0"`
	UpdatedAt    time.Time
}

// TableName 自定义表名以保持命名一致。
func (WidgetSnapshot) TableName() string {
	return "widget_snapshots"
}

package db

import "time"

// IntakeRecord 记录一次饮水量，Amount 统一以毫升保存
// 创建后不可修改，只允许删除
type IntakeRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Amount    float64   `gorm:"not null"`
	Timestamp time.Time `gorm:"index;not null"`
	Note      string    `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName 自定义表名以保持命名一致。
func (IntakeRecord) TableName() string {
	return "intake_records"
}

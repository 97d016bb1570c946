package db

import "time"

// Preference 以键值对形式存储用户偏好。
type Preference struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"size:100;uniqueIndex;not null"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 自定义表名以保持命名一致。
func (Preference) TableName() string {
	return "preferences"
}

const (
	PreferenceKeyDailyGoal             = "daily_goal"
	PreferenceKeyNotificationsEnabled  = "notifications_enabled"
	PreferenceKeyNotificationFrequency = "notification_frequency"
	PreferenceKeyIsDarkMode            = "is_dark_mode"
	PreferenceKeyUseMetricSystem       = "use_metric_system"
	PreferenceKeyUsername              = "username"
	PreferenceKeyUserHeight            = "user_height"
	PreferenceKeyUserWeight            = "user_weight"
	PreferenceKeySelectedLanguage      = "selected_language"
	PreferenceKeyReminderStartHour     = "reminder_start_hour"
	PreferenceKeyReminderEndHour       = "reminder_end_hour"
	// PreferenceKeyNotificationPermission 由通知中心维护，不属于用户可编辑的偏好。
	PreferenceKeyNotificationPermission = "notification_permission"
)

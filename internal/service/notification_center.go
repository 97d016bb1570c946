package service

import (
	"context"
	"errors"
	"strings"

	"github.com/drinkwell/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationCenter 用数据库模拟平台通知中心：保存已注册的提醒与授权状态
type NotificationCenter struct {
	db        *gorm.DB
	autoGrant bool
}

// NewNotificationCenter 构造 NotificationCenter
// autoGrant 决定首次请求授权（not_determined）时的结果
func NewNotificationCenter(gdb *gorm.DB, autoGrant bool) *NotificationCenter {
	return &NotificationCenter{db: gdb, autoGrant: autoGrant}
}

// AuthorizationStatus 返回当前授权状态，从未请求过时为 not_determined
func (c *NotificationCenter) AuthorizationStatus(ctx context.Context) (PermissionStatus, error) {
	var record db.Preference
	err := c.db.WithContext(ctx).
		Where("key = ?", db.PreferenceKeyNotificationPermission).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PermissionNotDetermined, nil
		}
		return PermissionUnknown, storageError("load notification permission", err)
	}
	return ParsePermissionStatus(strings.TrimSpace(record.Value)), nil
}

// RequestAuthorization 请求授权，仅 not_determined 状态会被改写
func (c *NotificationCenter) RequestAuthorization(ctx context.Context) (PermissionStatus, error) {
	status, err := c.AuthorizationStatus(ctx)
	if err != nil {
		return status, err
	}
	if status != PermissionNotDetermined && status != PermissionUnknown {
		return status, nil
	}

	resolved := PermissionDenied
	if c.autoGrant {
		resolved = PermissionGranted
	}
	if err := c.SetAuthorization(ctx, resolved); err != nil {
		return status, err
	}
	return resolved, nil
}

// SetAuthorization 直接写入授权状态
func (c *NotificationCenter) SetAuthorization(ctx context.Context, status PermissionStatus) error {
	if ParsePermissionStatus(string(status)) == PermissionUnknown {
		return validationError("unsupported permission status %q", status)
	}
	if err := upsertPreference(c.db.WithContext(ctx), db.PreferenceKeyNotificationPermission, string(status)); err != nil {
		return storageError("save notification permission", err)
	}
	return nil
}

// Register 注册一条提醒，同一标识重复注册会覆盖旧内容
func (c *NotificationCenter) Register(ctx context.Context, trigger Trigger) error {
	if err := trigger.Validate(); err != nil {
		return err
	}

	record := db.PendingReminder{
		Identifier: trigger.Identifier,
		Hour:       trigger.Hour,
		Minute:     trigger.Minute,
		Repeats:    trigger.Repeats,
		Title:      trigger.Title,
		Body:       trigger.Body,
		Category:   trigger.Category,
	}
	if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identifier"}},
		DoUpdates: clause.AssignmentColumns([]string{"hour", "minute", "repeats", "title", "body", "category", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return storageError("register reminder "+trigger.Identifier, err)
	}
	return nil
}

// Cancel 取消指定提醒，不存在时返回 ErrReminderNotFound
func (c *NotificationCenter) Cancel(ctx context.Context, identifier string) error {
	result := c.db.WithContext(ctx).
		Where("identifier = ?", identifier).
		Delete(&db.PendingReminder{})
	if result.Error != nil {
		return storageError("cancel reminder "+identifier, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReminderNotFound
	}
	return nil
}

// CancelAll 取消标识以 prefix 开头的全部提醒，prefix 为空时取消所有提醒
func (c *NotificationCenter) CancelAll(ctx context.Context, prefix string) (int64, error) {
	query := c.db.WithContext(ctx)
	if prefix == "" {
		query = query.Where("1 = 1")
	} else {
		query = query.Where("identifier LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")
	}

	result := query.Delete(&db.PendingReminder{})
	if result.Error != nil {
		return 0, storageError("cancel reminders", result.Error)
	}
	return result.RowsAffected, nil
}

// Pending 返回全部已注册提醒，按触发时间排序
func (c *NotificationCenter) Pending(ctx context.Context) ([]Trigger, error) {
	var records []db.PendingReminder
	if err := c.db.WithContext(ctx).
		Order("hour ASC, minute ASC, identifier ASC").
		Find(&records).Error; err != nil {
		return nil, storageError("list reminders", err)
	}

	triggers := make([]Trigger, 0, len(records))
	for _, record := range records {
		triggers = append(triggers, Trigger{
			Identifier: record.Identifier,
			Hour:       record.Hour,
			Minute:     record.Minute,
			Repeats:    record.Repeats,
			Title:      record.Title,
			Body:       record.Body,
			Category:   record.Category,
		})
	}
	return triggers, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

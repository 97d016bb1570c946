package service

import (
	"context"
	"fmt"
	"time"
)

// PermissionStatus 描述通知权限状态
type PermissionStatus string

const (
	PermissionUnknown       PermissionStatus = "unknown"
	PermissionGranted       PermissionStatus = "granted"
	PermissionDenied        PermissionStatus = "denied"
	PermissionNotDetermined PermissionStatus = "not_determined"
)

// ParsePermissionStatus 解析权限状态字符串，无法识别时返回 PermissionUnknown
func ParsePermissionStatus(raw string) PermissionStatus {
	switch PermissionStatus(raw) {
	case PermissionGranted, PermissionDenied, PermissionNotDetermined:
		return PermissionStatus(raw)
	default:
		return PermissionUnknown
	}
}

// Trigger 是一条每日重复的提醒
type Trigger struct {
	Identifier string `json:"identifier"`
	Hour       int    `json:"hour"`
	Minute     int    `json:"minute"`
	Repeats    bool   `json:"repeats"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Category   string `json:"category"`
}

// Validate 检查触发时间是否落在一天之内
func (t Trigger) Validate() error {
	if t.Identifier == "" {
		return validationError("reminder identifier is required")
	}
	if t.Hour < 0 || t.Hour > 23 {
		return validationError("reminder hour %d out of range", t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return validationError("reminder minute %d out of range", t.Minute)
	}
	return nil
}

// Clock 返回 "08:00" 形式的触发时间
func (t Trigger) Clock() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// NextOccurrence 返回 now 之后（含 now 所在分钟）的下一次触发时间
func NextOccurrence(trigger Trigger, now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), trigger.Hour, trigger.Minute, 0, 0, now.Location())
	if candidate.Before(now.Truncate(time.Minute)) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// Notifier 抽象平台通知子系统，调度器只通过它注册或取消提醒
type Notifier interface {
	AuthorizationStatus(ctx context.Context) (PermissionStatus, error)
	RequestAuthorization(ctx context.Context) (PermissionStatus, error)
	Register(ctx context.Context, trigger Trigger) error
	Cancel(ctx context.Context, identifier string) error
	CancelAll(ctx context.Context, prefix string) (int64, error)
	Pending(ctx context.Context) ([]Trigger, error)
}

// AuthorizationSetter 模拟用户在系统设置里修改通知权限
type AuthorizationSetter interface {
	SetAuthorization(ctx context.Context, status PermissionStatus) error
}

package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/drinkwell/internal/locale"
	"github.com/google/uuid"
)

const (
	// ReminderCategory 是提醒通知的分类，客户端据此展示 "已喝水" 按钮
	ReminderCategory = "WATER_REMINDER"
	// ActionDrank 是通知上 "已喝水" 按钮的动作标识，触发后打开添加记录界面
	ActionDrank = "DRANK_ACTION"

	reminderIdentifierPrefix = "drinkwell.reminder_"
	customReminderPrefix     = reminderIdentifierPrefix + "custom_"
)

// ScheduleState 表示提醒调度器的状态
type ScheduleState string

const (
	StateDisabled  ScheduleState = "disabled"
	StateScheduled ScheduleState = "scheduled"
)

// ReminderConfig 是一次调度所需的全部输入
type ReminderConfig struct {
	Enabled   bool
	Frequency int
	StartHour int
	EndHour   int
	Language  string
}

// ScheduleResult 描述一次 Apply 的结果
type ScheduleResult struct {
	State      ScheduleState    `json:"state"`
	Permission PermissionStatus `json:"permission"`
	Hours      []int            `json:"hours"`
	Registered []Trigger        `json:"registered"`
	Failed     []string         `json:"failed,omitempty"`
	Cancelled  int64            `json:"cancelled"`
}

// CustomReminder 描述一条额外的自定义每日提醒
type CustomReminder struct {
	Identifier string
	Title      string
	Body       string
	Hour       int
	Minute     int
}

// TriggerHours 计算 [startHour, endHour] 内按 frequency 步进的整点，两端都包含
func TriggerHours(frequency, startHour, endHour int) ([]int, error) {
	if frequency < 1 {
		return nil, validationError("reminder frequency must be at least 1, got %d", frequency)
	}
	if err := validateReminderWindow(startHour, endHour); err != nil {
		return nil, err
	}

	hours := make([]int, 0, (endHour-startHour)/frequency+1)
	for hour := startHour; hour <= endHour; hour += frequency {
		hours = append(hours, hour)
	}
	return hours, nil
}

// ReminderIdentifier 返回整点提醒的标识
func ReminderIdentifier(hour int) string {
	return fmt.Sprintf("%s%d", reminderIdentifierPrefix, hour)
}

// ReminderScheduler 把频率与时段换算为每日触发时间并交给 Notifier 注册
// 每次 Apply 都会先清空全部旧提醒再整体重建，不做增量更新
type ReminderScheduler struct {
	notifier Notifier
	events   *EventQueue

	mu       sync.Mutex
	state    ScheduleState
	triggers []Trigger
}

// NewReminderScheduler 构造 ReminderScheduler，events 可以为空
func NewReminderScheduler(notifier Notifier, events *EventQueue) *ReminderScheduler {
	return &ReminderScheduler{notifier: notifier, events: events, state: StateDisabled}
}

// State 返回当前调度状态
func (s *ReminderScheduler) State() ScheduleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Triggers 返回当前由调度器注册的整点提醒
func (s *ReminderScheduler) Triggers() []Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Trigger(nil), s.triggers...)
}

// Apply 按配置整体重建提醒
// 先取消所有旧提醒，再检查授权；未授权时保持禁用并发布 EventPermissionDenied，不会重试
// 单条注册失败只记录日志与事件，已注册的提醒不会回滚
func (s *ReminderScheduler) Apply(ctx context.Context, cfg ReminderConfig) (ScheduleResult, error) {
	var hours []int
	if cfg.Enabled {
		computed, err := TriggerHours(cfg.Frequency, cfg.StartHour, cfg.EndHour)
		if err != nil {
			return ScheduleResult{State: s.State()}, err
		}
		hours = computed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := ScheduleResult{State: StateDisabled, Permission: PermissionUnknown}

	cancelled, err := s.notifier.CancelAll(ctx, "")
	if err != nil {
		return result, fmt.Errorf("cancel reminders: %w", err)
	}
	result.Cancelled = cancelled
	s.state = StateDisabled
	s.triggers = nil
	s.publish(EventRemindersCancelled, fmt.Sprintf("cancelled %d reminders", cancelled), map[string]any{"count": cancelled})

	if !cfg.Enabled {
		logf("reminder", "reminders disabled, cancelled %d", cancelled)
		return result, nil
	}

	status, err := s.notifier.AuthorizationStatus(ctx)
	if err != nil {
		return result, fmt.Errorf("check notification permission: %w", err)
	}
	result.Permission = status
	if status != PermissionGranted {
		logf("reminder", "permission %s, skipping %d triggers", status, len(hours))
		s.publish(EventPermissionDenied, "notification permission not granted", map[string]any{"permission": string(status)})
		return result, nil
	}

	result.Hours = hours
	registered := make([]Trigger, 0, len(hours))
	for _, hour := range hours {
		trigger := Trigger{
			Identifier: ReminderIdentifier(hour),
			Hour:       hour,
			Minute:     0,
			Repeats:    true,
			Title:      locale.ReminderTitle(cfg.Language),
			Body:       locale.ReminderMessage(cfg.Language, hour),
			Category:   ReminderCategory,
		}
		if err := s.notifier.Register(ctx, trigger); err != nil {
			logf("reminder", "register %s failed: %v", trigger.Identifier, err)
			result.Failed = append(result.Failed, trigger.Identifier)
			s.publish(EventRegistrationFailed, err.Error(), map[string]any{"identifier": trigger.Identifier, "hour": hour})
			continue
		}
		registered = append(registered, trigger)
		s.publish(EventReminderRegistered, trigger.Clock(), map[string]any{"identifier": trigger.Identifier, "hour": hour})
	}

	s.state = StateScheduled
	s.triggers = registered
	result.State = StateScheduled
	result.Registered = append([]Trigger(nil), registered...)
	logf("reminder", "scheduled %d/%d triggers every %dh in %02d-%02d", len(registered), len(hours), cfg.Frequency, cfg.StartHour, cfg.EndHour)
	return result, nil
}

// Disable 取消全部提醒并进入禁用状态
func (s *ReminderScheduler) Disable(ctx context.Context) (ScheduleResult, error) {
	return s.Apply(ctx, ReminderConfig{Enabled: false})
}

// ScheduleCustom 额外注册一条自定义每日提醒，需要通知权限
func (s *ReminderScheduler) ScheduleCustom(ctx context.Context, reminder CustomReminder) (Trigger, error) {
	title := strings.TrimSpace(reminder.Title)
	if title == "" {
		return Trigger{}, validationError("reminder title is required")
	}

	identifier := strings.TrimSpace(reminder.Identifier)
	if identifier == "" {
		identifier = customReminderPrefix + uuid.NewString()
	}
	trigger := Trigger{
		Identifier: identifier,
		Hour:       reminder.Hour,
		Minute:     reminder.Minute,
		Repeats:    true,
		Title:      title,
		Body:       strings.TrimSpace(reminder.Body),
		Category:   ReminderCategory,
	}
	if err := trigger.Validate(); err != nil {
		return Trigger{}, err
	}

	status, err := s.notifier.AuthorizationStatus(ctx)
	if err != nil {
		return Trigger{}, fmt.Errorf("check notification permission: %w", err)
	}
	if status != PermissionGranted {
		s.publish(EventPermissionDenied, "notification permission not granted", map[string]any{"permission": string(status)})
		return Trigger{}, fmt.Errorf("schedule custom reminder: %w", ErrPermissionDenied)
	}

	if err := s.notifier.Register(ctx, trigger); err != nil {
		s.publish(EventRegistrationFailed, err.Error(), map[string]any{"identifier": trigger.Identifier, "hour": trigger.Hour})
		return Trigger{}, fmt.Errorf("schedule custom reminder: %w", err)
	}
	s.publish(EventReminderRegistered, trigger.Clock(), map[string]any{"identifier": trigger.Identifier, "hour": trigger.Hour})
	logf("reminder", "custom reminder %s at %s", trigger.Identifier, trigger.Clock())
	return trigger, nil
}

// Cancel 按标识取消单条提醒
func (s *ReminderScheduler) Cancel(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return validationError("reminder identifier is required")
	}
	if err := s.notifier.Cancel(ctx, identifier); err != nil {
		return fmt.Errorf("cancel reminder %s: %w", identifier, err)
	}

	s.mu.Lock()
	for i, trigger := range s.triggers {
		if trigger.Identifier == identifier {
			s.triggers = append(s.triggers[:i:i], s.triggers[i+1:]...)
			if len(s.triggers) == 0 {
				s.state = StateDisabled
			}
			break
		}
	}
	s.mu.Unlock()

	s.publish(EventReminderCancelled, identifier, map[string]any{"identifier": identifier})
	return nil
}

// Pending 返回通知中心里的全部提醒，包括自定义提醒
func (s *ReminderScheduler) Pending(ctx context.Context) ([]Trigger, error) {
	return s.notifier.Pending(ctx)
}

func (s *ReminderScheduler) publish(kind EventKind, message string, data map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Publish(kind, message, data)
}

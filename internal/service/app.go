package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/drinkwell/internal/db"
	"github.com/drinkwell/internal/stats"
	"gorm.io/gorm"
)

// Options 描述构造 App 所需的依赖与配置
type Options struct {
	DB                     *gorm.DB
	Location               *time.Location
	Defaults               *Preferences
	NotificationsAutoGrant bool
	WidgetRefreshInterval  time.Duration
	// Notifier 为空时使用基于数据库的 NotificationCenter
	Notifier Notifier
	Now      func() time.Time
}

// App 是进程内唯一的应用上下文，持有全部存储与调度组件
// 所有入口（HTTP、MCP、脚本）都通过同一个 App 访问数据
type App struct {
	Intakes     *IntakeStore
	Preferences *PreferenceStore
	Reminders   *ReminderScheduler
	Notifier    Notifier
	Events      *EventQueue
	Intents     *IntentQueue
	Widget      *WidgetProjector

	loc *time.Location
	now func() time.Time
}

// NewApp 根据 Options 组装 App，不做任何 I/O；调用方随后需要执行 Start
func NewApp(opts Options) (*App, error) {
	if opts.DB == nil {
		return nil, errors.New("app requires a database")
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	defaults := DefaultPreferences()
	if opts.Defaults != nil {
		defaults = opts.Defaults.clone()
	}
	if err := validatePreferences(defaults); err != nil {
		return nil, fmt.Errorf("default preferences: %w", err)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewNotificationCenter(opts.DB, opts.NotificationsAutoGrant)
	}
	events := NewEventQueue(defaultEventQueueSize)
	events.now = now

	intents := NewIntentQueue()
	intents.now = now

	return &App{
		Intakes:     NewIntakeStore(opts.DB).WithClock(now),
		Preferences: NewPreferenceStore(opts.DB, defaults),
		Reminders:   NewReminderScheduler(notifier, events),
		Notifier:    notifier,
		Events:      events,
		Intents:     intents,
		Widget:      NewWidgetProjector(opts.DB, opts.WidgetRefreshInterval).WithClock(now),
		loc:         loc,
		now:         now,
	}, nil
}

// Start 加载持久化数据并恢复提醒与小组件快照
// 记录或偏好加载失败时返回错误，调用方应当终止进程
func (a *App) Start(ctx context.Context) error {
	if err := a.Intakes.Load(ctx); err != nil {
		return fmt.Errorf("load intake records: %w", err)
	}
	if err := a.Preferences.Load(ctx); err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	if _, err := a.ApplyReminders(ctx); err != nil {
		logf("app", "restore reminders failed: %v", err)
	}
	a.refreshWidget(ctx)
	logf("app", "started with %d intake records", len(a.Intakes.List(nil, nil)))
	return nil
}

// Location 返回用于划分自然日的时区
func (a *App) Location() *time.Location {
	return a.loc
}

// Now 返回应用时区下的当前时间
func (a *App) Now() time.Time {
	return a.now().In(a.loc)
}

// AddIntake 新增饮水记录并立即落盘
// 落盘失败时记录仍保留在内存中，返回的错误包装 ErrStorage
func (a *App) AddIntake(ctx context.Context, input IntakeInput) (db.IntakeRecord, error) {
	record, err := a.Intakes.Add(input)
	if err != nil {
		return db.IntakeRecord{}, err
	}
	a.Events.Publish(EventIntakeAdded, record.ID, map[string]any{"id": record.ID, "amount": record.Amount})

	saveErr := a.SaveIntakes(ctx)
	a.refreshWidget(ctx)
	return record, saveErr
}

// RemoveIntake 删除饮水记录并立即落盘，语义同 AddIntake
func (a *App) RemoveIntake(ctx context.Context, id string) error {
	if err := a.Intakes.Remove(id); err != nil {
		return err
	}
	a.Events.Publish(EventIntakeRemoved, id, map[string]any{"id": id})

	saveErr := a.SaveIntakes(ctx)
	a.refreshWidget(ctx)
	return saveErr
}

// SaveIntakes 落盘待处理的饮水记录变更，也用于存储失败后的重试
func (a *App) SaveIntakes(ctx context.Context) error {
	pending := a.Intakes.Pending()
	if err := a.Intakes.Save(ctx); err != nil {
		logf("intake", "save failed with %d pending changes: %v", a.Intakes.Pending(), err)
		a.Events.Publish(EventStorageFailed, err.Error(), map[string]any{"pending": a.Intakes.Pending()})
		return err
	}
	if pending > 0 {
		a.Events.Publish(EventIntakesSaved, fmt.Sprintf("saved %d changes", pending), map[string]any{"count": pending})
	}
	return nil
}

// TodayTotal 返回今日饮水总量（毫升）
func (a *App) TodayTotal() float64 {
	return stats.DailyTotal(a.Intakes.Entries(), a.Now())
}

// Summary 以当前时间计算统计汇总，目标统一换算为毫升
func (a *App) Summary() stats.Summary {
	return a.SummaryAt(a.Now())
}

// SummaryAt 以 ref 为参考时间计算统计汇总
func (a *App) SummaryAt(ref time.Time) stats.Summary {
	prefs := a.Preferences.Get()
	return stats.Summarize(a.Intakes.Entries(), prefs.DailyGoalML(), ref.In(a.loc))
}

// UpdatePreferences 更新并保存偏好
// 提醒相关字段变化时整体重建提醒，返回的 ScheduleResult 在未重建时为 nil
func (a *App) UpdatePreferences(ctx context.Context, input PreferencesInput) (Preferences, *ScheduleResult, error) {
	before := a.Preferences.Get()
	prefs, err := a.Preferences.Update(input)
	if err != nil {
		return prefs, nil, err
	}
	a.Events.Publish(EventPreferencesUpdated, "preferences updated", nil)

	saveErr := a.savePreferences(ctx)

	var schedule *ScheduleResult
	if before.ReminderConfig() != prefs.ReminderConfig() {
		result, err := a.Reminders.Apply(ctx, prefs.ReminderConfig())
		if err != nil {
			return prefs, &result, err
		}
		schedule = &result
	}

	a.refreshWidget(ctx)
	return prefs, schedule, saveErr
}

// SetUnitSystem 切换单位制并保存，返回是否发生了换算
func (a *App) SetUnitSystem(ctx context.Context, metric bool) (Preferences, bool, error) {
	converted := a.Preferences.SetUnitSystem(metric)
	prefs := a.Preferences.Get()
	if !converted {
		return prefs, false, nil
	}
	a.Events.Publish(EventPreferencesUpdated, "unit system changed", map[string]any{"metric": metric})

	saveErr := a.savePreferences(ctx)
	a.refreshWidget(ctx)
	return prefs, true, saveErr
}

// ResetPreferences 恢复默认偏好，保存后按默认配置重建提醒
func (a *App) ResetPreferences(ctx context.Context) (Preferences, ScheduleResult, error) {
	prefs := a.Preferences.ResetToDefaults()
	a.Events.Publish(EventPreferencesUpdated, "preferences reset", nil)

	saveErr := a.savePreferences(ctx)
	result, err := a.Reminders.Apply(ctx, prefs.ReminderConfig())
	if err != nil {
		return prefs, result, err
	}
	a.refreshWidget(ctx)
	return prefs, result, saveErr
}

// ApplyReminders 按当前偏好整体重建提醒
func (a *App) ApplyReminders(ctx context.Context) (ScheduleResult, error) {
	return a.Reminders.Apply(ctx, a.Preferences.Get().ReminderConfig())
}

// RequestNotificationPermission 请求通知权限，授权后若提醒已开启则立即重建
func (a *App) RequestNotificationPermission(ctx context.Context) (PermissionStatus, *ScheduleResult, error) {
	before, err := a.Notifier.AuthorizationStatus(ctx)
	if err != nil {
		return PermissionUnknown, nil, err
	}
	status, err := a.Notifier.RequestAuthorization(ctx)
	if err != nil {
		return status, nil, err
	}
	if status == before {
		return status, nil, nil
	}

	a.Events.Publish(EventPermissionChanged, string(status), map[string]any{"permission": string(status)})
	if !a.Preferences.Get().NotificationsEnabled {
		return status, nil, nil
	}
	result, err := a.ApplyReminders(ctx)
	return status, &result, err
}

// SetNotificationPermission 模拟用户在系统设置中修改通知权限，随后按偏好重建提醒
func (a *App) SetNotificationPermission(ctx context.Context, status PermissionStatus) (ScheduleResult, error) {
	setter, ok := a.Notifier.(AuthorizationSetter)
	if !ok {
		return ScheduleResult{State: a.Reminders.State()}, validationError("notifier does not support changing permission")
	}
	if err := setter.SetAuthorization(ctx, status); err != nil {
		return ScheduleResult{State: a.Reminders.State()}, err
	}
	a.Events.Publish(EventPermissionChanged, string(status), map[string]any{"permission": string(status)})
	return a.ApplyReminders(ctx)
}

// ScheduleCustomReminder 注册一条自定义提醒
func (a *App) ScheduleCustomReminder(ctx context.Context, reminder CustomReminder) (Trigger, error) {
	return a.Reminders.ScheduleCustom(ctx, reminder)
}

// CancelReminder 按标识取消提醒
func (a *App) CancelReminder(ctx context.Context, identifier string) error {
	return a.Reminders.Cancel(ctx, identifier)
}

// HandleReminderAction 处理通知按钮动作，"已喝水" 会请求打开添加记录界面
func (a *App) HandleReminderAction(action string) (Intent, error) {
	switch action {
	case ActionDrank:
		return a.OpenAddIntake("notification"), nil
	default:
		return Intent{}, validationError("unsupported reminder action %q", action)
	}
}

// OpenAddIntake 排队一个 "打开添加记录界面" 的意图，不修改任何数据
func (a *App) OpenAddIntake(source string) Intent {
	intent, queued := a.Intents.Push(IntentOpenAddIntake, source)
	if queued {
		a.Events.Publish(EventIntentQueued, string(intent.Kind), map[string]any{"id": intent.ID, "source": source})
	}
	return intent
}

// WidgetView 读取小组件快照
func (a *App) WidgetView(ctx context.Context) (WidgetView, error) {
	return a.Widget.Snapshot(ctx)
}

func (a *App) savePreferences(ctx context.Context) error {
	if err := a.Preferences.Save(ctx); err != nil {
		logf("preferences", "save failed: %v", err)
		a.Events.Publish(EventStorageFailed, err.Error(), nil)
		return err
	}
	return nil
}

// refreshWidget 在每次写操作后刷新小组件快照，失败只记录日志
func (a *App) refreshWidget(ctx context.Context) {
	today := a.TodayTotal()
	goal := a.Preferences.Get().DailyGoalML()
	if err := a.Widget.Refresh(ctx, today, goal); err != nil {
		logf("widget", "refresh failed: %v", err)
		return
	}
	a.Events.Publish(EventWidgetRefreshed, "widget refreshed", map[string]any{"todays_intake": today, "daily_goal": goal})
}

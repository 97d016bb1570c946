package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/drinkwell/internal/db"
	"github.com/drinkwell/internal/stats"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultWidgetRefreshInterval = 15 * time.Minute

// WidgetView 是小组件读取的只读视图，数值单位均为毫升
type WidgetView struct {
	TodaysIntake float64   `json:"todays_intake"`
	DailyGoal    float64   `json:"daily_goal"`
	Progress     float64   `json:"progress"`
	Remaining    float64   `json:"remaining"`
	UpdatedAt    time.Time `json:"updated_at"`
	NextRefresh  time.Time `json:"next_refresh"`
}

// WidgetProjector 把今日饮水量与目标投影到共享快照表，小组件只读取快照
type WidgetProjector struct {
	db       *gorm.DB
	interval time.Duration
	now      func() time.Time
}

// NewWidgetProjector 构造 WidgetProjector，interval <= 0 时使用 15 分钟刷新间隔
func NewWidgetProjector(gdb *gorm.DB, interval time.Duration) *WidgetProjector {
	if interval <= 0 {
		interval = defaultWidgetRefreshInterval
	}
	return &WidgetProjector{db: gdb, interval: interval, now: time.Now}
}

// WithClock 替换时间来源，主要面向测试场景。
func (p *WidgetProjector) WithClock(now func() time.Time) *WidgetProjector {
	if now != nil {
		p.now = now
	}
	return p
}

// Refresh 覆盖写入快照
func (p *WidgetProjector) Refresh(ctx context.Context, todaysIntake, dailyGoal float64) error {
	snapshot := db.WidgetSnapshot{
		Key:          db.WidgetSnapshotKey,
		TodaysIntake: todaysIntake,
		DailyGoal:    dailyGoal,
		UpdatedAt:    p.now(),
	}
	if err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"todays_intake", "daily_goal", "updated_at"}),
	}).Create(&snapshot).Error; err != nil {
		return storageError("refresh widget snapshot", err)
	}
	return nil
}

// Snapshot 读取快照，尚未写入时返回零值视图
func (p *WidgetProjector) Snapshot(ctx context.Context) (WidgetView, error) {
	now := p.now()

	var snapshot db.WidgetSnapshot
	err := p.db.WithContext(ctx).Where("key = ?", db.WidgetSnapshotKey).First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WidgetView{NextRefresh: now.Add(p.interval)}, nil
		}
		return WidgetView{}, storageError("load widget snapshot", err)
	}

	return WidgetView{
		TodaysIntake: snapshot.TodaysIntake,
		DailyGoal:    snapshot.DailyGoal,
		Progress:     stats.Progress(snapshot.TodaysIntake, snapshot.DailyGoal),
		Remaining:    math.Max(0, snapshot.DailyGoal-snapshot.TodaysIntake),
		UpdatedAt:    snapshot.UpdatedAt,
		NextRefresh:  now.Add(p.interval),
	}, nil
}

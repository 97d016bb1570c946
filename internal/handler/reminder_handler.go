package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/drinkwell/internal/service"
	"github.com/gin-gonic/gin"
)

type reminderResponse struct {
	service.Trigger
	Time           string    `json:"time"`
	NextOccurrence time.Time `json:"next_occurrence"`
}

type reminderSettingsPayload struct {
	Enabled   *bool `json:"enabled"`
	Frequency *int  `json:"frequency"`
	StartHour *int  `json:"start_hour"`
	EndHour   *int  `json:"end_hour"`
}

type customReminderPayload struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Hour       int    `json:"hour"`
	Minute     int    `json:"minute"`
}

type permissionPayload struct {
	Status string `json:"status"`
}

func (a *API) toReminderResponses(triggers []service.Trigger) []reminderResponse {
	now := a.app.Now()
	items := make([]reminderResponse, 0, len(triggers))
	for _, trigger := range triggers {
		items = append(items, reminderResponse{
			Trigger:        trigger,
			Time:           trigger.Clock(),
			NextOccurrence: service.NextOccurrence(trigger, now),
		})
	}
	return items
}

// GetReminders 返回调度状态、提醒配置与通知中心里的全部提醒
func (a *API) GetReminders(c *gin.Context) {
	ctx := c.Request.Context()
	pending, err := a.app.Reminders.Pending(ctx)
	if err != nil {
		respondServiceError(c, err, "获取提醒失败")
		return
	}
	permission, err := a.app.Notifier.AuthorizationStatus(ctx)
	if err != nil {
		respondServiceError(c, err, "获取通知权限失败")
		return
	}

	prefs := a.app.Preferences.Get()
	c.JSON(http.StatusOK, gin.H{
		"state":      a.app.Reminders.State(),
		"permission": permission,
		"settings": gin.H{
			"enabled":    prefs.NotificationsEnabled,
			"frequency":  prefs.NotificationFrequency,
			"start_hour": prefs.ReminderStartHour,
			"end_hour":   prefs.ReminderEndHour,
		},
		"reminders": a.toReminderResponses(pending),
	})
}

// UpdateReminders 修改提醒开关、频率或时段，并整体重建提醒
func (a *API) UpdateReminders(c *gin.Context) {
	var payload reminderSettingsPayload
	if !bindJSON(c, &payload, "提醒参数错误") {
		return
	}

	ctx := c.Request.Context()
	_, schedule, err := a.app.UpdatePreferences(ctx, service.PreferencesInput{
		NotificationsEnabled:  payload.Enabled,
		NotificationFrequency: payload.Frequency,
		ReminderStartHour:     payload.StartHour,
		ReminderEndHour:       payload.EndHour,
	})
	if err != nil && !errors.Is(err, service.ErrStorage) {
		respondServiceError(c, err, "更新提醒失败")
		return
	}

	if schedule == nil {
		result, applyErr := a.app.ApplyReminders(ctx)
		if applyErr != nil {
			respondServiceError(c, applyErr, "更新提醒失败")
			return
		}
		schedule = &result
	}

	body := gin.H{"schedule": schedule}
	if err != nil {
		respondWithStorageWarning(c, body, 0)
		return
	}
	c.JSON(http.StatusOK, body)
}

// CreateCustomReminder 注册一条自定义提醒
func (a *API) CreateCustomReminder(c *gin.Context) {
	var payload customReminderPayload
	if !bindJSON(c, &payload, "提醒参数错误") {
		return
	}

	trigger, err := a.app.ScheduleCustomReminder(c.Request.Context(), service.CustomReminder{
		Identifier: payload.Identifier,
		Title:      payload.Title,
		Body:       payload.Body,
		Hour:       payload.Hour,
		Minute:     payload.Minute,
	})
	if err != nil {
		respondServiceError(c, err, "创建提醒失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reminder": a.toReminderResponses([]service.Trigger{trigger})[0]})
}

// CancelReminder 按标识取消提醒
func (a *API) CancelReminder(c *gin.Context) {
	if err := a.app.CancelReminder(c.Request.Context(), c.Param("identifier")); err != nil {
		respondServiceError(c, err, "取消提醒失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetPermission 返回通知权限状态
func (a *API) GetPermission(c *gin.Context) {
	status, err := a.app.Notifier.AuthorizationStatus(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "获取通知权限失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"permission": status})
}

// RequestPermission 请求通知权限，结果通过 200 返回，拒绝不视为错误
func (a *API) RequestPermission(c *gin.Context) {
	status, schedule, err := a.app.RequestNotificationPermission(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "请求通知权限失败")
		return
	}

	body := gin.H{"permission": status}
	if schedule != nil {
		body["schedule"] = schedule
	}
	c.JSON(http.StatusOK, body)
}

// SetPermission 模拟在系统设置中修改通知权限
func (a *API) SetPermission(c *gin.Context) {
	var payload permissionPayload
	if !bindJSON(c, &payload, "权限参数错误") {
		return
	}

	status := service.ParsePermissionStatus(strings.TrimSpace(payload.Status))
	schedule, err := a.app.SetNotificationPermission(c.Request.Context(), status)
	if err != nil {
		respondServiceError(c, err, "修改通知权限失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"permission": status, "schedule": schedule})
}

// HandleReminderAction 处理通知按钮动作
func (a *API) HandleReminderAction(c *gin.Context) {
	intent, err := a.app.HandleReminderAction(c.Param("action"))
	if err != nil {
		respondServiceError(c, err, "处理提醒动作失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"intent": intent})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/drinkwell/internal/locale"
	"github.com/drinkwell/internal/service"
	"github.com/gin-gonic/gin"
)

type preferencesResponse struct {
	DailyGoal             float64  `json:"daily_goal"`
	DailyGoalML           float64  `json:"daily_goal_ml"`
	NotificationsEnabled  bool     `json:"notifications_enabled"`
	NotificationFrequency int      `json:"notification_frequency"`
	IsDarkMode            bool     `json:"is_dark_mode"`
	UseMetricSystem       bool     `json:"use_metric_system"`
	Username              string   `json:"username"`
	UserHeight            *float64 `json:"user_height"`
	UserWeight            *float64 `json:"user_weight"`
	SelectedLanguage      string   `json:"selected_language"`
	ReminderStartHour     int      `json:"reminder_start_hour"`
	ReminderEndHour       int      `json:"reminder_end_hour"`
	VolumeUnit            string   `json:"volume_unit"`
	LengthUnit            string   `json:"length_unit"`
	WeightUnit            string   `json:"weight_unit"`
}

type preferencesPayload struct {
	DailyGoal             *float64 `json:"daily_goal"`
	NotificationsEnabled  *bool    `json:"notifications_enabled"`
	NotificationFrequency *int     `json:"notification_frequency"`
	IsDarkMode            *bool    `json:"is_dark_mode"`
	Username              *string  `json:"username"`
	UserHeight            *float64 `json:"user_height"`
	UserWeight            *float64 `json:"user_weight"`
	ClearUserHeight       bool     `json:"clear_user_height"`
	ClearUserWeight       bool     `json:"clear_user_weight"`
	SelectedLanguage      *string  `json:"selected_language"`
	ReminderStartHour     *int     `json:"reminder_start_hour"`
	ReminderEndHour       *int     `json:"reminder_end_hour"`
}

// languageAuto 表示按请求的 Accept-Language 选择语言，无法识别时使用英语
const languageAuto = "auto"

func (p preferencesPayload) toInput() service.PreferencesInput {
	return service.PreferencesInput{
		DailyGoal:             p.DailyGoal,
		NotificationsEnabled:  p.NotificationsEnabled,
		NotificationFrequency: p.NotificationFrequency,
		IsDarkMode:            p.IsDarkMode,
		Username:              p.Username,
		UserHeight:            p.UserHeight,
		UserWeight:            p.UserWeight,
		ClearUserHeight:       p.ClearUserHeight,
		ClearUserWeight:       p.ClearUserWeight,
		SelectedLanguage:      p.SelectedLanguage,
		ReminderStartHour:     p.ReminderStartHour,
		ReminderEndHour:       p.ReminderEndHour,
	}
}

func preferencesToResponse(prefs service.Preferences) preferencesResponse {
	system := prefs.UnitSystem()
	return preferencesResponse{
		DailyGoal:             prefs.DailyGoal,
		DailyGoalML:           prefs.DailyGoalML(),
		NotificationsEnabled:  prefs.NotificationsEnabled,
		NotificationFrequency: prefs.NotificationFrequency,
		IsDarkMode:            prefs.IsDarkMode,
		UseMetricSystem:       prefs.UseMetricSystem,
		Username:              prefs.Username,
		UserHeight:            prefs.UserHeight,
		UserWeight:            prefs.UserWeight,
		SelectedLanguage:      prefs.SelectedLanguage,
		ReminderStartHour:     prefs.ReminderStartHour,
		ReminderEndHour:       prefs.ReminderEndHour,
		VolumeUnit:            system.VolumeLabel(),
		LengthUnit:            system.LengthLabel(),
		WeightUnit:            system.WeightLabel(),
	}
}

// GetPreferences 返回当前偏好
func (a *API) GetPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"preferences": preferencesToResponse(a.app.Preferences.Get())})
}

// UpdatePreferences 更新偏好，提醒相关字段变化时附带新的调度结果
func (a *API) UpdatePreferences(c *gin.Context) {
	var payload preferencesPayload
	if !bindJSON(c, &payload, "偏好参数错误") {
		return
	}
	if payload.SelectedLanguage != nil && *payload.SelectedLanguage == languageAuto {
		language := locale.LanguageFromAcceptLanguage(c.GetHeader("Accept-Language"))
		if language == "" {
			language = locale.LanguageEnglish
		}
		payload.SelectedLanguage = &language
	}

	prefs, schedule, err := a.app.UpdatePreferences(c.Request.Context(), payload.toInput())
	body := gin.H{"preferences": preferencesToResponse(prefs)}
	if schedule != nil {
		body["reminders"] = schedule
	}
	if err != nil {
		if errors.Is(err, service.ErrStorage) {
			respondWithStorageWarning(c, body, 0)
			return
		}
		respondServiceError(c, err, "更新偏好失败")
		return
	}

	c.JSON(http.StatusOK, body)
}

type unitSystemPayload struct {
	UseMetricSystem *bool `json:"use_metric_system"`
}

// SetUnitSystem 切换公制/英制并换算目标、身高、体重
func (a *API) SetUnitSystem(c *gin.Context) {
	var payload unitSystemPayload
	if !bindJSON(c, &payload, "单位参数错误") {
		return
	}
	if payload.UseMetricSystem == nil {
		respondError(c, http.StatusBadRequest, "缺少 use_metric_system")
		return
	}

	prefs, converted, err := a.app.SetUnitSystem(c.Request.Context(), *payload.UseMetricSystem)
	body := gin.H{"preferences": preferencesToResponse(prefs), "converted": converted}
	if err != nil {
		if errors.Is(err, service.ErrStorage) {
			respondWithStorageWarning(c, body, 0)
			return
		}
		respondServiceError(c, err, "切换单位失败")
		return
	}

	c.JSON(http.StatusOK, body)
}

// ResetPreferences 恢复默认偏好
func (a *API) ResetPreferences(c *gin.Context) {
	prefs, schedule, err := a.app.ResetPreferences(c.Request.Context())
	body := gin.H{"preferences": preferencesToResponse(prefs), "reminders": schedule}
	if err != nil {
		if errors.Is(err, service.ErrStorage) {
			respondWithStorageWarning(c, body, 0)
			return
		}
		respondServiceError(c, err, "重置偏好失败")
		return
	}

	c.JSON(http.StatusOK, body)
}

// GetSuggestedIntake 根据体重给出建议饮水量
func (a *API) GetSuggestedIntake(c *gin.Context) {
	prefs := a.app.Preferences.Get()
	suggested := a.app.Preferences.SuggestedWaterIntake()
	c.JSON(http.StatusOK, gin.H{
		"suggested": suggested,
		"unit":      prefs.UnitSystem().VolumeLabel(),
		"display":   prefs.UnitSystem().FormatVolume(prefs.UnitSystem().VolumeToMilliliters(suggested)),
	})
}

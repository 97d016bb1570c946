package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/drinkwell/internal/db"
	"github.com/drinkwell/internal/locale"
	"github.com/drinkwell/internal/units"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultDailyGoalML       = 2500
	defaultDailyGoalOunces   = 84.5
	defaultReminderFrequency = 2
	maxDailyGoalML           = 20000
	maxReminderFrequency     = 24
	maxUsernameRunes         = 50

	minHeightCM = 50
	maxHeightCM = 250
	minWeightKG = 10
	maxWeightKG = 400
)

// Preferences 描述用户可配置的全部偏好
// DailyGoal、UserHeight、UserWeight 以当前单位制保存，切换单位制时一次性换算
type Preferences struct {
	DailyGoal             float64
	NotificationsEnabled  bool
	NotificationFrequency int
	IsDarkMode            bool
	UseMetricSystem       bool
	Username              string
	UserHeight            *float64
	UserWeight            *float64
	SelectedLanguage      string
	ReminderStartHour     int
	ReminderEndHour       int
}

// UnitSystem 返回当前单位制。
func (p Preferences) UnitSystem() units.System {
	return units.SystemFor(p.UseMetricSystem)
}

// DailyGoalML 返回以毫升计的每日目标，聚合计算统一使用该值。
func (p Preferences) DailyGoalML() float64 {
	return p.UnitSystem().VolumeToMilliliters(p.DailyGoal)
}

// ReminderConfig 从偏好中提取提醒调度所需的配置。
func (p Preferences) ReminderConfig() ReminderConfig {
	return ReminderConfig{
		Enabled:   p.NotificationsEnabled,
		Frequency: p.NotificationFrequency,
		StartHour: p.ReminderStartHour,
		EndHour:   p.ReminderEndHour,
		Language:  p.SelectedLanguage,
	}
}

func (p Preferences) clone() Preferences {
	out := p
	if p.UserHeight != nil {
		height := *p.UserHeight
		out.UserHeight = &height
	}
	if p.UserWeight != nil {
		weight := *p.UserWeight
		out.UserWeight = &weight
	}
	return out
}

// DefaultPreferences 返回首次安装时的默认偏好，提醒时段为 8-22 点。
func DefaultPreferences() Preferences {
	return Preferences{
		DailyGoal:             defaultDailyGoalML,
		NotificationsEnabled:  false,
		NotificationFrequency: defaultReminderFrequency,
		UseMetricSystem:       true,
		SelectedLanguage:      locale.LanguageEnglish,
		ReminderStartHour:     8,
		ReminderEndHour:       22,
	}
}

// PreferencesInput 描述一次偏好更新，nil 字段保持不变
// ClearUserHeight/ClearUserWeight 用于显式清空身高体重
type PreferencesInput struct {
	DailyGoal             *float64
	NotificationsEnabled  *bool
	NotificationFrequency *int
	IsDarkMode            *bool
	Username              *string
	UserHeight            *float64
	UserWeight            *float64
	ClearUserHeight       bool
	ClearUserWeight       bool
	SelectedLanguage      *string
	ReminderStartHour     *int
	ReminderEndHour       *int
}

// PreferenceStore 持有进程内唯一的一份偏好，修改只作用于内存，Save 时统一落盘
type PreferenceStore struct {
	db       *gorm.DB
	defaults Preferences

	mu    sync.RWMutex
	prefs Preferences
}

// NewPreferenceStore 构造 PreferenceStore，defaults 同时用于 Load 缺省值与 ResetToDefaults
func NewPreferenceStore(gdb *gorm.DB, defaults Preferences) *PreferenceStore {
	return &PreferenceStore{db: gdb, defaults: defaults.clone(), prefs: defaults.clone()}
}

var preferenceKeys = []string{
	db.PreferenceKeyDailyGoal,
	db.PreferenceKeyNotificationsEnabled,
	db.PreferenceKeyNotificationFrequency,
	db.PreferenceKeyIsDarkMode,
	db.PreferenceKeyUseMetricSystem,
	db.PreferenceKeyUsername,
	db.PreferenceKeyUserHeight,
	db.PreferenceKeyUserWeight,
	db.PreferenceKeySelectedLanguage,
	db.PreferenceKeyReminderStartHour,
	db.PreferenceKeyReminderEndHour,
}

// Load 读取已保存的偏好，缺失或无法解析的值回退到默认值
func (s *PreferenceStore) Load(ctx context.Context) error {
	var records []db.Preference
	if err := s.db.WithContext(ctx).Where("key IN ?", preferenceKeys).Find(&records).Error; err != nil {
		return storageError("load preferences", err)
	}

	prefs := s.defaults.clone()
	for _, record := range records {
		if err := applyStoredPreference(&prefs, record.Key, record.Value); err != nil {
			logf("preferences", "ignoring stored %s=%q: %v", record.Key, record.Value, err)
		}
	}
	prefs = repairPreferences(prefs, s.defaults)

	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()
	return nil
}

// Get 返回当前偏好的副本
func (s *PreferenceStore) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.clone()
}

// Update 校验后应用输入，任一字段不合法时不做任何修改
func (s *PreferenceStore) Update(input PreferencesInput) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := s.prefs.clone()

	if input.DailyGoal != nil {
		candidate.DailyGoal = *input.DailyGoal
	}
	if input.NotificationsEnabled != nil {
		candidate.NotificationsEnabled = *input.NotificationsEnabled
	}
	if input.NotificationFrequency != nil {
		candidate.NotificationFrequency = *input.NotificationFrequency
	}
	if input.IsDarkMode != nil {
		candidate.IsDarkMode = *input.IsDarkMode
	}
	if input.Username != nil {
		candidate.Username = strings.TrimSpace(*input.Username)
	}
	if input.ClearUserHeight {
		candidate.UserHeight = nil
	} else if input.UserHeight != nil {
		height := *input.UserHeight
		candidate.UserHeight = &height
	}
	if input.ClearUserWeight {
		candidate.UserWeight = nil
	} else if input.UserWeight != nil {
		weight := *input.UserWeight
		candidate.UserWeight = &weight
	}
	if input.SelectedLanguage != nil {
		candidate.SelectedLanguage = strings.ToLower(strings.TrimSpace(*input.SelectedLanguage))
	}
	if input.ReminderStartHour != nil {
		candidate.ReminderStartHour = *input.ReminderStartHour
	}
	if input.ReminderEndHour != nil {
		candidate.ReminderEndHour = *input.ReminderEndHour
	}

	if err := validatePreferences(candidate); err != nil {
		return s.prefs.clone(), err
	}

	s.prefs = candidate
	return candidate.clone(), nil
}

// ConvertUnits 按固定系数换算目标、身高与体重，不修改 UseMetricSystem
// 换算是有损的，反复切换会累积浮点误差
func (s *PreferenceStore) ConvertUnits(toMetric bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	convertPreferenceUnits(&s.prefs, toMetric)
}

// SetUnitSystem 切换单位制，仅在单位制实际变化时换算一次，返回是否发生了换算
func (s *PreferenceStore) SetUnitSystem(metric bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prefs.UseMetricSystem == metric {
		return false
	}
	convertPreferenceUnits(&s.prefs, metric)
	s.prefs.UseMetricSystem = metric
	return true
}

// SuggestedWaterIntake 根据体重给出建议饮水量，单位与当前单位制一致
func (s *PreferenceStore) SuggestedWaterIntake() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return suggestedWaterIntake(s.prefs)
}

// ResetToDefaults 恢复默认偏好，界面语言保持不变，需要调用 Save 才会落盘
func (s *PreferenceStore) ResetToDefaults() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	language := s.prefs.SelectedLanguage
	s.prefs = s.defaults.clone()
	s.prefs.SelectedLanguage = language
	return s.prefs.clone()
}

// Save 在一个事务中写入全部偏好，失败时返回 ErrStorage，内存中的偏好保持不变
func (s *PreferenceStore) Save(ctx context.Context) error {
	prefs := s.Get()
	values := encodePreferences(prefs)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range preferenceKeys {
			if err := upsertPreference(tx, key, values[key]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageError("save preferences", err)
	}
	return nil
}

func convertPreferenceUnits(prefs *Preferences, toMetric bool) {
	if toMetric {
		prefs.DailyGoal = units.OuncesToMilliliters(prefs.DailyGoal)
		if prefs.UserHeight != nil {
			height := units.InchesToCentimeters(*prefs.UserHeight)
			prefs.UserHeight = &height
		}
		if prefs.UserWeight != nil {
			weight := units.PoundsToKilograms(*prefs.UserWeight)
			prefs.UserWeight = &weight
		}
		return
	}

	prefs.DailyGoal = units.MillilitersToOunces(prefs.DailyGoal)
	if prefs.UserHeight != nil {
		height := units.CentimetersToInches(*prefs.UserHeight)
		prefs.UserHeight = &height
	}
	if prefs.UserWeight != nil {
		weight := units.KilogramsToPounds(*prefs.UserWeight)
		prefs.UserWeight = &weight
	}
}

func suggestedWaterIntake(prefs Preferences) float64 {
	if prefs.UserWeight != nil {
		if prefs.UseMetricSystem {
			return *prefs.UserWeight * 35
		}
		return *prefs.UserWeight * 0.5
	}
	if prefs.UseMetricSystem {
		return defaultDailyGoalML
	}
	return defaultDailyGoalOunces
}

func validatePreferences(prefs Preferences) error {
	system := prefs.UnitSystem()

	goalML := system.VolumeToMilliliters(prefs.DailyGoal)
	if !(prefs.DailyGoal > 0) || goalML > maxDailyGoalML {
		return validationError("daily goal must be between 0 and %d ml", maxDailyGoalML)
	}
	if prefs.NotificationFrequency < 1 || prefs.NotificationFrequency > maxReminderFrequency {
		return validationError("notification frequency must be between 1 and %d", maxReminderFrequency)
	}
	if err := validateReminderWindow(prefs.ReminderStartHour, prefs.ReminderEndHour); err != nil {
		return err
	}
	if utf8.RuneCountInString(prefs.Username) > maxUsernameRunes {
		return validationError("username must be at most %d characters", maxUsernameRunes)
	}
	if !locale.IsSupported(prefs.SelectedLanguage) {
		return validationError("unsupported language %q", prefs.SelectedLanguage)
	}

	if err := validateHeight(system, prefs.UserHeight); err != nil {
		return err
	}
	return validateWeight(system, prefs.UserWeight)
}

func validateHeight(system units.System, height *float64) error {
	if height == nil {
		return nil
	}
	heightCM := *height
	if system == units.Imperial {
		heightCM = units.InchesToCentimeters(heightCM)
	}
	if heightCM < minHeightCM || heightCM > maxHeightCM {
		return validationError("height must be between %d and %d cm", minHeightCM, maxHeightCM)
	}
	return nil
}

func validateWeight(system units.System, weight *float64) error {
	if weight == nil {
		return nil
	}
	weightKG := *weight
	if system == units.Imperial {
		weightKG = units.PoundsToKilograms(weightKG)
	}
	if weightKG < minWeightKG || weightKG > maxWeightKG {
		return validationError("weight must be between %d and %d kg", minWeightKG, maxWeightKG)
	}
	return nil
}

// repairPreferences 把超出范围的已保存值逐项回退到默认值，仍不合法时整体使用默认值
func repairPreferences(prefs, defaults Preferences) Preferences {
	if validatePreferences(prefs) == nil {
		return prefs
	}

	system := prefs.UnitSystem()
	goalML := system.VolumeToMilliliters(prefs.DailyGoal)
	if !(prefs.DailyGoal > 0) || goalML > maxDailyGoalML {
		logf("preferences", "stored daily goal %v out of range, using default", prefs.DailyGoal)
		prefs.DailyGoal = system.VolumeFromMilliliters(defaults.DailyGoalML())
	}
	if prefs.NotificationFrequency < 1 || prefs.NotificationFrequency > maxReminderFrequency {
		logf("preferences", "stored frequency %d out of range, using default", prefs.NotificationFrequency)
		prefs.NotificationFrequency = defaults.NotificationFrequency
	}
	if validateReminderWindow(prefs.ReminderStartHour, prefs.ReminderEndHour) != nil {
		logf("preferences", "stored reminder window %d-%d invalid, using default", prefs.ReminderStartHour, prefs.ReminderEndHour)
		prefs.ReminderStartHour, prefs.ReminderEndHour = defaults.ReminderStartHour, defaults.ReminderEndHour
	}
	if utf8.RuneCountInString(prefs.Username) > maxUsernameRunes {
		prefs.Username = string([]rune(prefs.Username)[:maxUsernameRunes])
	}
	if !locale.IsSupported(prefs.SelectedLanguage) {
		prefs.SelectedLanguage = defaults.SelectedLanguage
	}
	if err := validateHeight(system, prefs.UserHeight); err != nil {
		logf("preferences", "stored height %v out of range, clearing", *prefs.UserHeight)
		prefs.UserHeight = nil
	}
	if err := validateWeight(system, prefs.UserWeight); err != nil {
		logf("preferences", "stored weight %v out of range, clearing", *prefs.UserWeight)
		prefs.UserWeight = nil
	}

	if err := validatePreferences(prefs); err != nil {
		logf("preferences", "stored preferences still invalid, using defaults: %v", err)
		return defaults.clone()
	}
	return prefs
}

func validateReminderWindow(startHour, endHour int) error {
	if startHour < 0 || startHour > 23 || endHour < 0 || endHour > 23 {
		return validationError("reminder hours must be within 0-23")
	}
	if startHour > endHour {
		return validationError("reminder start hour %d is after end hour %d", startHour, endHour)
	}
	return nil
}

func encodePreferences(prefs Preferences) map[string]string {
	values := map[string]string{
		db.PreferenceKeyDailyGoal:             formatFloat(prefs.DailyGoal),
		db.PreferenceKeyNotificationsEnabled:  strconv.FormatBool(prefs.NotificationsEnabled),
		db.PreferenceKeyNotificationFrequency: strconv.Itoa(prefs.NotificationFrequency),
		db.PreferenceKeyIsDarkMode:            strconv.FormatBool(prefs.IsDarkMode),
		db.PreferenceKeyUseMetricSystem:       strconv.FormatBool(prefs.UseMetricSystem),
		db.PreferenceKeyUsername:              prefs.Username,
		db.PreferenceKeyUserHeight:            "",
		db.PreferenceKeyUserWeight:            "",
		db.PreferenceKeySelectedLanguage:      prefs.SelectedLanguage,
		db.PreferenceKeyReminderStartHour:     strconv.Itoa(prefs.ReminderStartHour),
		db.PreferenceKeyReminderEndHour:       strconv.Itoa(prefs.ReminderEndHour),
	}
	if prefs.UserHeight != nil {
		values[db.PreferenceKeyUserHeight] = formatFloat(*prefs.UserHeight)
	}
	if prefs.UserWeight != nil {
		values[db.PreferenceKeyUserWeight] = formatFloat(*prefs.UserWeight)
	}
	return values
}

func applyStoredPreference(prefs *Preferences, key, raw string) error {
	value := strings.TrimSpace(raw)

	switch key {
	case db.PreferenceKeyDailyGoal:
		return parseFloatInto(value, &prefs.DailyGoal)
	case db.PreferenceKeyNotificationsEnabled:
		return parseBoolInto(value, &prefs.NotificationsEnabled)
	case db.PreferenceKeyNotificationFrequency:
		return parseIntInto(value, &prefs.NotificationFrequency)
	case db.PreferenceKeyIsDarkMode:
		return parseBoolInto(value, &prefs.IsDarkMode)
	case db.PreferenceKeyUseMetricSystem:
		return parseBoolInto(value, &prefs.UseMetricSystem)
	case db.PreferenceKeyUsername:
		prefs.Username = value
	case db.PreferenceKeyUserHeight:
		return parseOptionalFloatInto(value, &prefs.UserHeight)
	case db.PreferenceKeyUserWeight:
		return parseOptionalFloatInto(value, &prefs.UserWeight)
	case db.PreferenceKeySelectedLanguage:
		if normalized := locale.NormalizeLanguage(value); normalized != "" {
			prefs.SelectedLanguage = normalized
		}
	case db.PreferenceKeyReminderStartHour:
		return parseIntInto(value, &prefs.ReminderStartHour)
	case db.PreferenceKeyReminderEndHour:
		return parseIntInto(value, &prefs.ReminderEndHour)
	}
	return nil
}

func upsertPreference(tx *gorm.DB, key, value string) error {
	record := db.Preference{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("upsert preference %s: %w", key, err)
	}
	return nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func parseFloatInto(raw string, dst *float64) error {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*dst = value
	return nil
}

func parseOptionalFloatInto(raw string, dst **float64) error {
	if raw == "" {
		*dst = nil
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*dst = &value
	return nil
}

func parseIntInto(raw string, dst *int) error {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	*dst = value
	return nil
}

func parseBoolInto(raw string, dst *bool) error {
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return err
	}
	*dst = value
	return nil
}

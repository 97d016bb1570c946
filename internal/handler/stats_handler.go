package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/drinkwell/internal/stats"
	"github.com/gin-gonic/gin"
)

type dayTotalResponse struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

type summaryResponse struct {
	Date             string             `json:"date"`
	Goal             float64            `json:"goal"`
	TodayTotal       float64            `json:"today_total"`
	Progress         float64            `json:"progress"`
	Remaining        float64            `json:"remaining"`
	LastSevenDays    []dayTotalResponse `json:"last_seven_days"`
	WeeklyAverage    float64            `json:"weekly_average"`
	Month            []dayTotalResponse `json:"month"`
	MonthlyAverage   float64            `json:"monthly_average"`
	DaysReachingGoal int                `json:"days_reaching_goal"`
	MaxDay           *dayTotalResponse  `json:"max_day"`
	MinDay           *dayTotalResponse  `json:"min_day"`
	CurrentStreak    int                `json:"current_streak"`
	LongestStreak    int                `json:"longest_streak"`
	TotalAmount      float64            `json:"total_amount"`
	EntryCount       int                `json:"entry_count"`
}

func toDayTotals(days []stats.DayTotal) []dayTotalResponse {
	result := make([]dayTotalResponse, 0, len(days))
	for _, day := range days {
		result = append(result, dayTotalResponse{Date: day.Day.Format(dateFormat), Total: day.Total})
	}
	return result
}

func toDayTotalPtr(day *stats.DayTotal) *dayTotalResponse {
	if day == nil {
		return nil
	}
	return &dayTotalResponse{Date: day.Day.Format(dateFormat), Total: day.Total}
}

// GetTodayStats 返回今日饮水量、目标与进度
func (a *API) GetTodayStats(c *gin.Context) {
	now := a.app.Now()
	prefs := a.app.Preferences.Get()
	goal := prefs.DailyGoalML()
	total := stats.DailyTotal(a.app.Intakes.Entries(), now)

	c.JSON(http.StatusOK, gin.H{
		"date":         stats.StartOfDay(now).Format(dateFormat),
		"total":        total,
		"goal":         goal,
		"progress":     stats.Progress(total, goal),
		"remaining":    max(goal-total, 0),
		"display":      prefs.UnitSystem().FormatVolume(total),
		"display_goal": prefs.UnitSystem().FormatVolume(goal),
	})
}

// GetWeeklyStats 返回最近 7 天的每日总量，旧日期在前
func (a *API) GetWeeklyStats(c *gin.Context) {
	days := stats.LastNDays(a.app.Intakes.Entries(), 7, a.app.Now())

	var sum float64
	for _, day := range days {
		sum += day.Total
	}

	c.JSON(http.StatusOK, gin.H{
		"days":    toDayTotals(days),
		"average": sum / float64(len(days)),
		"goal":    a.app.Preferences.Get().DailyGoalML(),
	})
}

// GetMonthlyStats 返回指定月份每天的总量，month 形如 2025-03，默认当月
func (a *API) GetMonthlyStats(c *gin.Context) {
	month := a.app.Now()
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := time.ParseInLocation(monthFormat, raw, a.app.Location())
		if err != nil {
			respondError(c, http.StatusBadRequest, "月份格式错误")
			return
		}
		month = parsed
	}

	entries := a.app.Intakes.Entries()
	c.JSON(http.StatusOK, gin.H{
		"month":         month.Format(monthFormat),
		"days":          toDayTotals(stats.MonthlyTotals(entries, month)),
		"days_in_month": stats.DaysInMonth(month),
		"average":       stats.MonthlyAverage(entries, month),
		"goal":          a.app.Preferences.Get().DailyGoalML(),
	})
}

// GetSummary 返回统计页需要的全部汇总数据
func (a *API) GetSummary(c *gin.Context) {
	summary := a.app.Summary()

	c.JSON(http.StatusOK, summaryResponse{
		Date:             summary.Date.Format(dateFormat),
		Goal:             summary.Goal,
		TodayTotal:       summary.TodayTotal,
		Progress:         summary.Progress,
		Remaining:        summary.Remaining,
		LastSevenDays:    toDayTotals(summary.LastSevenDays),
		WeeklyAverage:    summary.WeeklyAverage,
		Month:            toDayTotals(summary.Month),
		MonthlyAverage:   summary.MonthlyAverage,
		DaysReachingGoal: summary.DaysReachingGoal,
		MaxDay:           toDayTotalPtr(summary.MaxDay),
		MinDay:           toDayTotalPtr(summary.MinDay),
		CurrentStreak:    summary.CurrentStreak,
		LongestStreak:    summary.LongestStreak,
		TotalAmount:      summary.TotalAmount,
		EntryCount:       summary.EntryCount,
	})
}

package stats

import "time"

// Summary 汇总统计页需要的全部派生数据。
type Summary struct {
	Date             time.Time
	Goal             float64
	TodayTotal       float64
	Progress         float64
	Remaining        float64
	LastSevenDays    []DayTotal
	WeeklyAverage    float64
	Month            []DayTotal
	MonthlyAverage   float64
	DaysReachingGoal int
	MaxDay           *DayTotal
	MinDay           *DayTotal
	CurrentStreak    int
	LongestStreak    int
	TotalAmount      float64
	EntryCount       int
}

// Summarize 以 ref 为参考时间计算所有统计项，ref 的时区决定自然日边界。
func Summarize(entries []Entry, goal float64, ref time.Time) Summary {
	loc := ref.Location()
	today := DailyTotal(entries, ref)

	summary := Summary{
		Date:             StartOfDay(ref),
		Goal:             goal,
		TodayTotal:       today,
		Progress:         Progress(today, goal),
		Remaining:        max(goal-today, 0),
		LastSevenDays:    LastNDays(entries, 7, ref),
		Month:            MonthlyTotals(entries, ref),
		MonthlyAverage:   MonthlyAverage(entries, ref),
		DaysReachingGoal: DaysReachingGoal(entries, goal, loc),
		TotalAmount:      TotalAmount(entries),
		EntryCount:       len(entries),
	}

	var weekSum float64
	for _, day := range summary.LastSevenDays {
		weekSum += day.Total
	}
	summary.WeeklyAverage = weekSum / float64(len(summary.LastSevenDays))

	summary.MaxDay, summary.MinDay = ExtremeDays(entries, loc)
	summary.CurrentStreak, summary.LongestStreak = Streaks(entries, goal, ref, loc)

	return summary
}

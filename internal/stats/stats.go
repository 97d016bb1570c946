// Package stats 提供饮水记录的聚合计算，全部为无副作用的纯函数。
//
// 日期边界以传入时间所在时区的自然日为准，跨时区时调用方负责统一 location。
package stats

import (
	"cmp"
	"slices"
	"time"
)

const dayKeyFormat = "2006-01-02"

// Entry 是参与聚合的一条饮水记录。
type Entry struct {
	Amount    float64
	Timestamp time.Time
}

// DayTotal 表示某个自然日的饮水总量，Day 为当日零点。
type DayTotal struct {
	Day   time.Time
	Total float64
}

// StartOfDay 返回 t 所在时区当天的零点。
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// TotalAmount 计算总量，空输入返回 0。
func TotalAmount(entries []Entry) float64 {
	var total float64
	for _, entry := range entries {
		total += entry.Amount
	}
	return total
}

// DailyTotal 统计落在 [startOfDay(day), startOfDay(day)+1天) 内的记录。
func DailyTotal(entries []Entry, day time.Time) float64 {
	start := StartOfDay(day)
	end := start.AddDate(0, 0, 1)

	var total float64
	for _, entry := range entries {
		if !entry.Timestamp.Before(start) && entry.Timestamp.Before(end) {
			total += entry.Amount
		}
	}
	return total
}

// Progress 返回 min(total/goal, 1)，goal<=0 时为 0。
func Progress(total, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return min(max(total/goal, 0), 1)
}

// LastNDays 返回以 ref 所在日为结尾的连续 n 天，按时间正序，无记录的日期总量为 0。
func LastNDays(entries []Entry, n int, ref time.Time) []DayTotal {
	if n <= 0 {
		return []DayTotal{}
	}

	totals := groupByDay(entries, ref.Location())
	end := StartOfDay(ref)

	result := make([]DayTotal, 0, n)
	for offset := n - 1; offset >= 0; offset-- {
		day := end.AddDate(0, 0, -offset)
		result = append(result, DayTotal{Day: day, Total: totals[day.Format(dayKeyFormat)]})
	}
	return result
}

// DaysInMonth 返回 month 所在月份的天数。
func DaysInMonth(month time.Time) int {
	return time.Date(month.Year(), month.Month()+1, 0, 0, 0, 0, 0, month.Location()).Day()
}

// MonthlyTotals 返回 month 所在月份每一天的总量，按时间正序并补零。
func MonthlyTotals(entries []Entry, month time.Time) []DayTotal {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	days := DaysInMonth(month)
	totals := groupByDay(entries, month.Location())

	result := make([]DayTotal, 0, days)
	for i := 0; i < days; i++ {
		day := first.AddDate(0, 0, i)
		result = append(result, DayTotal{Day: day, Total: totals[day.Format(dayKeyFormat)]})
	}
	return result
}

// MonthlyAverage 为当月总量除以当月天数（包含无记录的日期）。
func MonthlyAverage(entries []Entry, month time.Time) float64 {
	var sum float64
	for _, day := range MonthlyTotals(entries, month) {
		sum += day.Total
	}
	return sum / float64(DaysInMonth(month))
}

// DaysReachingGoal 统计按 loc 自然日分组后总量不低于 goal 的天数。
func DaysReachingGoal(entries []Entry, goal float64, loc *time.Location) int {
	count := 0
	for _, total := range groupByDay(entries, loc) {
		if total >= goal {
			count++
		}
	}
	return count
}

// ExtremeDays 返回有记录的日期中总量最高和最低的一天
// 按日期升序遍历，并列时先出现的日期胜出；没有记录时两者均为 nil
func ExtremeDays(entries []Entry, loc *time.Location) (maxDay, minDay *DayTotal) {
	for _, day := range sortedDays(entries, loc) {
		if maxDay == nil || day.Total > maxDay.Total {
			current := day
			maxDay = &current
		}
		if minDay == nil || day.Total < minDay.Total {
			current := day
			minDay = &current
		}
	}
	return maxDay, minDay
}

// Streaks 计算达标天数的连续记录。
// current 以 ref 当天结尾；当天尚未达标时从前一天开始往回数，避免白天就把连胜清零
func Streaks(entries []Entry, goal float64, ref time.Time, loc *time.Location) (current, longest int) {
	if loc == nil {
		loc = time.Local
	}

	reached := make(map[string]bool)
	for key, total := range groupByDay(entries, loc) {
		if total >= goal {
			reached[key] = true
		}
	}
	if len(reached) == 0 {
		return 0, 0
	}

	keys := make([]string, 0, len(reached))
	for key := range reached {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	run := 0
	var previous time.Time
	for i, key := range keys {
		day, _ := time.ParseInLocation(dayKeyFormat, key, loc)
		if i > 0 && previous.AddDate(0, 0, 1).Equal(day) {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
		previous = day
	}

	cursor := StartOfDay(ref.In(loc))
	if !reached[cursor.Format(dayKeyFormat)] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for reached[cursor.Format(dayKeyFormat)] {
		current++
		cursor = cursor.AddDate(0, 0, -1)
	}

	return current, longest
}

func groupByDay(entries []Entry, loc *time.Location) map[string]float64 {
	if loc == nil {
		loc = time.Local
	}

	totals := make(map[string]float64)
	for _, entry := range entries {
		totals[entry.Timestamp.In(loc).Format(dayKeyFormat)] += entry.Amount
	}
	return totals
}

func sortedDays(entries []Entry, loc *time.Location) []DayTotal {
	if loc == nil {
		loc = time.Local
	}

	grouped := groupByDay(entries, loc)
	days := make([]DayTotal, 0, len(grouped))
	for key, total := range grouped {
		day, err := time.ParseInLocation(dayKeyFormat, key, loc)
		if err != nil {
			continue
		}
		days = append(days, DayTotal{Day: day, Total: total})
	}

	slices.SortFunc(days, func(a, b DayTotal) int {
		return cmp.Compare(a.Day.Unix(), b.Day.Unix())
	})
	return days
}

package recurrence

import (
	"fmt"
	"time"

	"github.com/campus-ops/cmms/backend/internal/calendar"
)

// NextOccurrence 根据上一次执行时间计算下一次维护日期，结果保留 lastRunAt 的时刻和时区。
//
//   - Weekly：lastRunAt 之后 7*EveryNWeeks 天
//   - Monthly：lastRunAt 所在月份的第 WeekOfMonth 个 Weekday，若不晚于 lastRunAt 则取下个月的。
//     WeekOfMonth 为 4 时始终表示“第 4 个”，而不是“最后一个”
//   - Yearly：lastRunAt 下一年的 Month 月 DayOfMonth 日，该月没有这一天时取该月最后一天
//
// rule 必须先通过 Validate，周期未设置属于调用方的编程错误，会直接 panic。
func NextOccurrence(rule Rule, lastRunAt time.Time) time.Time {
	switch rule.Cadence {
	case CadenceWeekly:
		return lastRunAt.AddDate(0, 0, 7*rule.EveryNWeeks)
	case CadenceMonthly:
		candidate := nthWeekdayOfMonth(lastRunAt, lastRunAt.Year(), lastRunAt.Month(), rule.Weekday, rule.WeekOfMonth)
		if candidate.After(lastRunAt) {
			return candidate
		}
		next := time.Date(lastRunAt.Year(), lastRunAt.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		return nthWeekdayOfMonth(lastRunAt, next.Year(), next.Month(), rule.Weekday, rule.WeekOfMonth)
	case CadenceYearly:
		year := lastRunAt.Year() + 1
		day := min(rule.DayOfMonth, calendar.DaysIn(year, rule.Month))
		return atClockOf(lastRunAt, year, rule.Month, day)
	default:
		panic(fmt.Sprintf("recurrence: NextOccurrence called with cadence %q", rule.Cadence))
	}
}

// Upcoming 从 lastRunAt 开始连续计算 n 次维护日期
func Upcoming(rule Rule, lastRunAt time.Time, n int) []time.Time {
	out := make([]time.Time, 0, max(n, 0))
	cursor := lastRunAt
	for i := 0; i < n; i++ {
		cursor = NextOccurrence(rule, cursor)
		out = append(out, cursor)
	}
	return out
}

// IsDue 判断截至 now 是否已经到期
func IsDue(rule Rule, lastRunAt, now time.Time) bool {
	return !NextOccurrence(rule, lastRunAt).After(now)
}

func nthWeekdayOfMonth(clock time.Time, year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	// n 最大为 4，因此日期最大为 28，不会越过月末
	return atClockOf(clock, year, month, 1+offset+(n-1)*7)
}

func atClockOf(clock time.Time, year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), clock.Location())
}

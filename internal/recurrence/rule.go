package recurrence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Cadence string

const (
	CadenceWeekly  Cadence = "Weekly"
	CadenceMonthly Cadence = "Monthly"
	CadenceYearly  Cadence = "Yearly"
)

const (
	MinWeeklyFrequency = 1
	// 界面文案写的是 1-3，但输入框的限制是 1-99，这里以输入框为准
	MaxWeeklyFrequency = 99
	MinDayOfMonth      = 1
	MaxDayOfMonth      = 31
	MaxWeekOfMonth     = 4
)

var (
	ErrInvalidCadence     = errors.New("recurrence: invalid cadence")
	ErrInvalidInterval    = errors.New("recurrence: invalid weekly frequency")
	ErrInvalidWeekOfMonth = errors.New("recurrence: week of month must be between 1 and 4")
	ErrInvalidWeekday     = errors.New("recurrence: invalid weekday")
	ErrInvalidMonth       = errors.New("recurrence: invalid month")
	ErrInvalidDayOfMonth  = errors.New("recurrence: day of month must be between 1 and 31")
)

func ParseCadence(s string) (Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly":
		return CadenceWeekly, nil
	case "monthly":
		return CadenceMonthly, nil
	case "yearly":
		return CadenceYearly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCadence, s)
	}
}

// Personnel 指向一名维修人员
type Personnel struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
}

// Rule 描述一个资产的预防性维护周期。
//
// 三种周期各自的参数互不影响：切换 Cadence 不会清空其他周期的参数，
// 序列化时只输出当前周期相关的字段。
type Rule struct {
	Cadence Cadence

	// Weekly
	EveryNWeeks int

	// Monthly
	WeekOfMonth int
	Weekday     time.Weekday

	// Yearly
	Month      time.Month
	DayOfMonth int

	AssignedTo *Personnel
}

func (r *Rule) SetCadence(c Cadence) { r.Cadence = c }

func (r *Rule) SetEveryNWeeks(n int) { r.EveryNWeeks = ClampWeeklyFrequency(n) }

func (r *Rule) SetDayOfMonth(n int) { r.DayOfMonth = ClampDayOfMonth(n) }

// Merge 切换到 other 的周期并覆盖该周期的参数，其他周期之前填写的参数保持不变
func (r *Rule) Merge(other Rule) {
	r.Cadence = other.Cadence
	switch other.Cadence {
	case CadenceWeekly:
		r.EveryNWeeks = other.EveryNWeeks
	case CadenceMonthly:
		r.WeekOfMonth = other.WeekOfMonth
		r.Weekday = other.Weekday
	case CadenceYearly:
		r.Month = other.Month
		r.DayOfMonth = other.DayOfMonth
	}
	r.AssignedTo = other.AssignedTo
}

func ClampWeeklyFrequency(n int) int {
	return clamp(n, MinWeeklyFrequency, MaxWeeklyFrequency)
}

func ClampDayOfMonth(n int) int {
	return clamp(n, MinDayOfMonth, MaxDayOfMonth)
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}

func (r Rule) Validate() error {
	switch r.Cadence {
	case CadenceWeekly:
		if r.EveryNWeeks < MinWeeklyFrequency || r.EveryNWeeks > MaxWeeklyFrequency {
			return fmt.Errorf("%w: %d", ErrInvalidInterval, r.EveryNWeeks)
		}
	case CadenceMonthly:
		if r.WeekOfMonth < 1 || r.WeekOfMonth > MaxWeekOfMonth {
			return fmt.Errorf("%w: %d", ErrInvalidWeekOfMonth, r.WeekOfMonth)
		}
		if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
			return fmt.Errorf("%w: %d", ErrInvalidWeekday, r.Weekday)
		}
	case CadenceYearly:
		if r.Month < time.January || r.Month > time.December {
			return fmt.Errorf("%w: %d", ErrInvalidMonth, r.Month)
		}
		// 不校验 DayOfMonth 是否存在于 Month 中，例如 2 月 31 日，由计算下次日期时处理
		if r.DayOfMonth < MinDayOfMonth || r.DayOfMonth > MaxDayOfMonth {
			return fmt.Errorf("%w: %d", ErrInvalidDayOfMonth, r.DayOfMonth)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCadence, r.Cadence)
	}
	return nil
}

// Describe 返回周期的可读描述
func (r Rule) Describe() string {
	switch r.Cadence {
	case CadenceWeekly:
		if r.EveryNWeeks == 1 {
			return "Every week"
		}
		return fmt.Sprintf("Every %d weeks", r.EveryNWeeks)
	case CadenceMonthly:
		return fmt.Sprintf("%s %s of every month", ordinal(r.WeekOfMonth), r.Weekday)
	case CadenceYearly:
		return fmt.Sprintf("Every year on %s %d", r.Month, r.DayOfMonth)
	default:
		return ""
	}
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdaysByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
	}
	return wd, nil
}

func ParseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
}

type ruleJSON struct {
	Cadence     Cadence    `json:"cadence"`
	EveryNWeeks int        `json:"everyNWeeks,omitempty"`
	WeekOfMonth int        `json:"weekOfMonth,omitempty"`
	Weekday     string     `json:"weekday,omitempty"`
	Month       string     `json:"month,omitempty"`
	DayOfMonth  int        `json:"dayOfMonth,omitempty"`
	AssignedTo  *Personnel `json:"assignedTo,omitempty"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{
		Cadence:    r.Cadence,
		AssignedTo: r.AssignedTo,
	}

	switch r.Cadence {
	case CadenceWeekly:
		out.EveryNWeeks = r.EveryNWeeks
	case CadenceMonthly:
		out.WeekOfMonth = r.WeekOfMonth
		out.Weekday = r.Weekday.String()
	case CadenceYearly:
		out.Month = r.Month.String()
		out.DayOfMonth = r.DayOfMonth
	}

	return json.Marshal(out)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	cadence, err := ParseCadence(string(in.Cadence))
	if err != nil {
		return err
	}

	parsed := Rule{
		Cadence:    cadence,
		AssignedTo: in.AssignedTo,
	}

	switch cadence {
	case CadenceWeekly:
		parsed.SetEveryNWeeks(in.EveryNWeeks)
	case CadenceMonthly:
		parsed.WeekOfMonth = in.WeekOfMonth
		if parsed.Weekday, err = ParseWeekday(in.Weekday); err != nil {
			return err
		}
	case CadenceYearly:
		if parsed.Month, err = ParseMonth(in.Month); err != nil {
			return err
		}
		parsed.SetDayOfMonth(in.DayOfMonth)
	}

	*r = parsed
	return nil
}

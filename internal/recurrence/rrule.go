package recurrence

import (
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// 闰年时各月的天数
var maxDaysInMonth = [...]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// RRule 把维护周期转换成 RFC 5545 重复规则，dtstart 应当是第一次维护的时间。
//
// 年度周期中超出当月天数的日期会被截断到月末，对应 BYMONTHDAY=-1，
// 这样生成的序列与 NextOccurrence 逐次计算的结果一致。
func (r Rule) RRule(dtstart time.Time) (*rrule.RRule, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	opt := rrule.ROption{
		Dtstart:  dtstart,
		Interval: 1,
	}

	switch r.Cadence {
	case CadenceWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = r.EveryNWeeks
	case CadenceMonthly:
		opt.Freq = rrule.MONTHLY
		wd := rruleWeekdays[r.Weekday]
		opt.Byweekday = []rrule.Weekday{wd.Nth(r.WeekOfMonth)}
	case CadenceYearly:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(r.Month)}
		day := r.DayOfMonth
		if day >= maxDaysInMonth[r.Month] {
			day = -1
		}
		opt.Bymonthday = []int{day}
	}

	return rrule.NewRRule(opt)
}

// RRuleString 返回不含 DTSTART 的 RRULE 值，例如 FREQ=MONTHLY;BYDAY=+1MO
func (r Rule) RRuleString(dtstart time.Time) (string, error) {
	rr, err := r.RRule(dtstart)
	if err != nil {
		return "", err
	}
	return rr.OrigOptions.RRuleString(), nil
}

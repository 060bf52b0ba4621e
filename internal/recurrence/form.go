package recurrence

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// 资产表单中预防性维护相关的字段名
const (
	FieldHasPreventiveMaintenance = "has_preventive_maintenance"
	FieldSchedule                 = "schedule"
	FieldWeeklyFrequency          = "weeklyFrequency"
	FieldMonthlyFrequency         = "monthlyFrequency"
	FieldMonthlyDay               = "monthlyDay"
	FieldYearlyMonth              = "yearlyMonth"
	FieldYearlyDay                = "yearlyDay"
	FieldAssignedTo               = "assigned_to"
)

// ClampInput 将用户键入的数字强制落在 [lo, hi] 区间内，而不是拒绝输入。
// 空字符串或非数字按 lo 处理。
func ClampInput(s string, lo, hi int) int {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return lo
	}
	s = strings.TrimPrefix(s, "+")

	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(s)
	}
	if end == 0 {
		return lo
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// 数字过长导致溢出
		return hi
	}
	return clamp(n, lo, hi)
}

// ParseForm 从资产表单中解析预防性维护周期，只读取当前所选周期对应的字段。
// 返回的 enabled 为 false 时表示该资产不需要预防性维护。
func ParseForm(form url.Values) (rule Rule, enabled bool, err error) {
	if form.Get(FieldHasPreventiveMaintenance) != "1" {
		return Rule{}, false, nil
	}

	if rule.Cadence, err = ParseCadence(form.Get(FieldSchedule)); err != nil {
		return Rule{}, true, err
	}

	switch rule.Cadence {
	case CadenceWeekly:
		rule.EveryNWeeks = ClampInput(form.Get(FieldWeeklyFrequency), MinWeeklyFrequency, MaxWeeklyFrequency)
	case CadenceMonthly:
		week, convErr := strconv.Atoi(strings.TrimSpace(form.Get(FieldMonthlyFrequency)))
		if convErr != nil {
			return Rule{}, true, fmt.Errorf("%w: %q", ErrInvalidWeekOfMonth, form.Get(FieldMonthlyFrequency))
		}
		rule.WeekOfMonth = week
		if rule.Weekday, err = ParseWeekday(form.Get(FieldMonthlyDay)); err != nil {
			return Rule{}, true, err
		}
	case CadenceYearly:
		if rule.Month, err = ParseMonth(form.Get(FieldYearlyMonth)); err != nil {
			return Rule{}, true, err
		}
		rule.DayOfMonth = ClampInput(form.Get(FieldYearlyDay), MinDayOfMonth, MaxDayOfMonth)
	}

	if assigned := strings.TrimSpace(form.Get(FieldAssignedTo)); assigned != "" {
		id, convErr := strconv.ParseInt(assigned, 10, 64)
		if convErr != nil {
			return Rule{}, true, fmt.Errorf("recurrence: invalid assignee %q", assigned)
		}
		rule.AssignedTo = &Personnel{ID: id}
	}

	if err := rule.Validate(); err != nil {
		return Rule{}, true, err
	}

	return rule, true, nil
}

// FormValues 是 ParseForm 的逆操作
func (r Rule) FormValues() url.Values {
	form := url.Values{}
	form.Set(FieldHasPreventiveMaintenance, "1")
	form.Set(FieldSchedule, string(r.Cadence))

	switch r.Cadence {
	case CadenceWeekly:
		form.Set(FieldWeeklyFrequency, strconv.Itoa(r.EveryNWeeks))
	case CadenceMonthly:
		form.Set(FieldMonthlyFrequency, strconv.Itoa(r.WeekOfMonth))
		form.Set(FieldMonthlyDay, r.Weekday.String())
	case CadenceYearly:
		form.Set(FieldYearlyMonth, r.Month.String())
		form.Set(FieldYearlyDay, strconv.Itoa(r.DayOfMonth))
	}

	if r.AssignedTo != nil {
		form.Set(FieldAssignedTo, strconv.FormatInt(r.AssignedTo.ID, 10))
	}

	return form
}

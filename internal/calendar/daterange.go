package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
)

var ErrInvalidDateRange = errors.New("calendar: 无法解析日期范围")

// DateRange 为最终提交的日期范围，满足 StartDate <= EndDate
type DateRange struct {
	StartDate Date `json:"startDate"`
	EndDate   Date `json:"endDate"`
}

func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.StartDate) && !d.After(r.EndDate)
}

func (r DateRange) Overlaps(other DateRange) bool {
	return !r.EndDate.Before(other.StartDate) && !other.EndDate.Before(r.StartDate)
}

func (r DateRange) String() string {
	return FormatDateRange(r.StartDate, r.EndDate)
}

// FormatDateRange 按照各端点自身所在的年月进行格式化：
//
//	January 5 - 12, 2024
//	January 30 - February 2, 2024
//	December 30, 2023 - January 2, 2024
func FormatDateRange(start, end Date) string {
	switch {
	case start.Year != end.Year:
		return fmt.Sprintf("%s %d, %d - %s %d, %d", start.Month, start.Day, start.Year, end.Month, end.Day, end.Year)
	case start.Month != end.Month:
		return fmt.Sprintf("%s %d - %s %d, %d", start.Month, start.Day, end.Month, end.Day, end.Year)
	default:
		return fmt.Sprintf("%s %d - %d, %d", start.Month, start.Day, end.Day, end.Year)
	}
}

// ParseDateRange 是 FormatDateRange 的逆操作
func ParseDateRange(s string) (DateRange, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), " - ")
	if !ok {
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
	}
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)

	var start, end Date

	if t, err := time.Parse("January 2, 2006", right); err == nil {
		end = DateOf(t)
	} else if t, err := time.Parse("2, 2006", right); err == nil {
		// 右侧只有日和年，月份与左侧相同
		end = NewDate(t.Year(), 0, t.Day())
	} else {
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
	}

	if t, err := time.Parse("January 2, 2006", left); err == nil {
		start = DateOf(t)
	} else if t, err := time.Parse("January 2", left); err == nil {
		start = NewDate(end.Year, t.Month(), t.Day())
	} else {
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
	}

	if end.Month == 0 {
		end.Month = start.Month
	}

	if !start.IsValid() || !end.IsValid() || end.Before(start) {
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
	}

	return DateRange{StartDate: start, EndDate: end}, nil
}

// DateRangeSelector 维护用户在日历上的起止日期选择，保证 start <= end
type DateRangeSelector struct {
	start mo.Option[Date]
	end   mo.Option[Date]

	// 当前展示的月份，仅用于网格翻页，与选择无关
	displayYear  int
	displayMonth time.Month
}

func NewDateRangeSelector(year int, month time.Month) *DateRangeSelector {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return &DateRangeSelector{
		start:        mo.None[Date](),
		end:          mo.None[Date](),
		displayYear:  first.Year(),
		displayMonth: first.Month(),
	}
}

func (s *DateRangeSelector) Start() mo.Option[Date] { return s.start }
func (s *DateRangeSelector) End() mo.Option[Date]   { return s.end }

func (s *DateRangeSelector) Displayed() (int, time.Month) {
	return s.displayYear, s.displayMonth
}

func (s *DateRangeSelector) Grid() []Day {
	return GenerateGrid(s.displayYear, s.displayMonth)
}

func (s *DateRangeSelector) SelectStart(d Date) {
	s.start = mo.Some(d)
	if end, ok := s.end.Get(); ok && d.After(end) {
		s.end = mo.Some(d)
	}
}

func (s *DateRangeSelector) SelectEnd(d Date) {
	s.end = mo.Some(d)
	if start, ok := s.start.Get(); ok && d.Before(start) {
		s.start = mo.Some(d)
	}
}

// SelectStartDay 以当前展示的月份解释 day
func (s *DateRangeSelector) SelectStartDay(day int) {
	s.SelectStart(NewDate(s.displayYear, s.displayMonth, day))
}

func (s *DateRangeSelector) SelectEndDay(day int) {
	s.SelectEnd(NewDate(s.displayYear, s.displayMonth, day))
}

func (s *DateRangeSelector) NavigateMonth(delta int) {
	t := time.Date(s.displayYear, s.displayMonth+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	s.displayYear, s.displayMonth = t.Year(), t.Month()
}

// IsInRange 只判断严格位于起止日期之间的日期，端点由调用方单独高亮
func (s *DateRangeSelector) IsInRange(d Date) bool {
	start, okStart := s.start.Get()
	end, okEnd := s.end.Get()
	if !okStart || !okEnd {
		return false
	}
	return d.After(start) && d.Before(end)
}

func (s *DateRangeSelector) Range() (DateRange, bool) {
	start, okStart := s.start.Get()
	end, okEnd := s.end.Get()
	if !okStart || !okEnd {
		return DateRange{}, false
	}
	return DateRange{StartDate: start, EndDate: end}, true
}

func (s *DateRangeSelector) FormattedRange() string {
	r, ok := s.Range()
	if !ok {
		return ""
	}
	return r.String()
}

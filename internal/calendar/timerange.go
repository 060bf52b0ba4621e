package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidClock = errors.New("calendar: 时间格式应为 HH:MM")

type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// On 将时刻落到某一天上
func (c Clock) On(d Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}

// TimeRange 不强制 Start <= End，结束时间早于开始时间的输入也会被原样保留
type TimeRange struct {
	Start Clock `json:"startTime"`
	End   Clock `json:"endTime"`
}

func ParseTimeRange(s string) (TimeRange, error) {
	left, right, ok := strings.Cut(s, " - ")
	if !ok {
		return TimeRange{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	start, err := ParseClock(left)
	if err != nil {
		return TimeRange{}, err
	}
	end, err := ParseClock(right)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Start: start, End: end}, nil
}

// Overnight 报告结束时间是否早于开始时间，仅供展示提示
func (r TimeRange) Overnight() bool {
	return r.End.Minutes() < r.Start.Minutes()
}

func (r TimeRange) String() string {
	return r.Start.String() + " - " + r.End.String()
}

// TimeRangeSelector 保存用户输入的原始 HH:MM 字符串
type TimeRangeSelector struct {
	start string
	end   string
}

func (s *TimeRangeSelector) SetStart(value string) { s.start = value }
func (s *TimeRangeSelector) SetEnd(value string)   { s.end = value }

func (s *TimeRangeSelector) StartTime() string { return s.start }
func (s *TimeRangeSelector) EndTime() string   { return s.end }

func (s *TimeRangeSelector) FormattedRange() string {
	return s.start + " - " + s.end
}

func (s *TimeRangeSelector) Range() (TimeRange, error) {
	start, err := ParseClock(s.start)
	if err != nil {
		return TimeRange{}, err
	}
	end, err := ParseClock(s.end)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Start: start, End: end}, nil
}

package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorKeepsStartBeforeEnd(t *testing.T) {
	days := []int{1, 5, 9, 14, 20, 28}

	for _, a := range days {
		for _, b := range days {
			s := NewDateRangeSelector(2024, time.March)
			s.SelectStartDay(a)
			s.SelectEndDay(b)
			assertOrdered(t, s)

			s = NewDateRangeSelector(2024, time.March)
			s.SelectEndDay(a)
			s.SelectStartDay(b)
			assertOrdered(t, s)
		}
	}
}

func assertOrdered(t *testing.T, s *DateRangeSelector) {
	t.Helper()
	r, ok := s.Range()
	require.True(t, ok)
	assert.False(t, r.EndDate.Before(r.StartDate), "%s > %s", r.StartDate, r.EndDate)
}

func TestSelectStartPullsEndUp(t *testing.T) {
	s := NewDateRangeSelector(2024, time.March)
	s.SelectStartDay(3)
	s.SelectEndDay(10)
	s.SelectStartDay(15)

	assert.Equal(t, NewDate(2024, time.March, 15), s.Start().MustGet())
	assert.Equal(t, NewDate(2024, time.March, 15), s.End().MustGet())
}

func TestSelectEndPullsStartDown(t *testing.T) {
	s := NewDateRangeSelector(2024, time.March)
	s.SelectStartDay(10)
	s.SelectEndDay(20)
	s.SelectEndDay(4)

	assert.Equal(t, NewDate(2024, time.March, 4), s.Start().MustGet())
	assert.Equal(t, NewDate(2024, time.March, 4), s.End().MustGet())
}

func TestSelectorStartsEmpty(t *testing.T) {
	s := NewDateRangeSelector(2024, time.March)

	assert.True(t, s.Start().IsAbsent())
	assert.True(t, s.End().IsAbsent())
	assert.Equal(t, "", s.FormattedRange())
	assert.False(t, s.IsInRange(NewDate(2024, time.March, 5)))

	s.SelectStartDay(5)
	assert.Equal(t, "", s.FormattedRange())
}

func TestIsInRangeIsStrict(t *testing.T) {
	s := NewDateRangeSelector(2024, time.March)
	s.SelectStartDay(10)
	s.SelectEndDay(13)

	assert.False(t, s.IsInRange(NewDate(2024, time.March, 10)))
	assert.True(t, s.IsInRange(NewDate(2024, time.March, 11)))
	assert.True(t, s.IsInRange(NewDate(2024, time.March, 12)))
	assert.False(t, s.IsInRange(NewDate(2024, time.March, 13)))
	assert.False(t, s.IsInRange(NewDate(2024, time.March, 9)))
}

func TestNavigateMonthWrapsYears(t *testing.T) {
	s := NewDateRangeSelector(2024, time.December)
	s.NavigateMonth(1)
	year, month := s.Displayed()
	assert.Equal(t, 2025, year)
	assert.Equal(t, time.January, month)

	s.NavigateMonth(-1)
	s.NavigateMonth(-1)
	year, month = s.Displayed()
	assert.Equal(t, 2024, year)
	assert.Equal(t, time.November, month)

	s = NewDateRangeSelector(2024, time.January)
	s.NavigateMonth(-1)
	year, month = s.Displayed()
	assert.Equal(t, 2023, year)
	assert.Equal(t, time.December, month)
}

func TestFormattedRangeUsesEachEndpointsMonth(t *testing.T) {
	s := NewDateRangeSelector(2024, time.January)
	s.SelectStartDay(5)
	s.SelectEndDay(12)
	assert.Equal(t, "January 5 - 12, 2024", s.FormattedRange())

	s.SelectStartDay(30)
	s.NavigateMonth(1)
	s.SelectEndDay(2)
	assert.Equal(t, "January 30 - February 2, 2024", s.FormattedRange())

	s = NewDateRangeSelector(2023, time.December)
	s.SelectStartDay(30)
	s.NavigateMonth(1)
	s.SelectEndDay(2)
	// 展示月份已经切到 2024 年 1 月，但起始日期仍按 2023 年 12 月格式化
	assert.Equal(t, "December 30, 2023 - January 2, 2024", s.FormattedRange())
}

func TestParseDateRangeRoundTrip(t *testing.T) {
	ranges := []DateRange{
		{NewDate(2024, time.January, 5), NewDate(2024, time.January, 12)},
		{NewDate(2024, time.January, 30), NewDate(2024, time.February, 2)},
		{NewDate(2023, time.December, 30), NewDate(2024, time.January, 2)},
		{NewDate(2024, time.February, 29), NewDate(2024, time.February, 29)},
	}

	for _, r := range ranges {
		parsed, err := ParseDateRange(r.String())
		require.NoError(t, err, r.String())
		assert.Equal(t, r, parsed)
	}
}

func TestParseDateRangeRejectsGarbage(t *testing.T) {
	inputs := []string{
		"",
		"January 5",
		"January 12 - 5, 2024",
		"February 30 - 31, 2023",
		"Smarch 1 - 2, 2024",
	}

	for _, in := range inputs {
		_, err := ParseDateRange(in)
		assert.ErrorIs(t, err, ErrInvalidDateRange, in)
	}
}

func TestDateJSON(t *testing.T) {
	data, err := json.Marshal(NewDate(2024, time.February, 9))
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-02-09"`, string(data))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2023-12-31"`), &d))
	assert.Equal(t, NewDate(2023, time.December, 31), d)

	assert.Error(t, json.Unmarshal([]byte(`"2023-13-01"`), &d))
}

func TestDateRangeOverlaps(t *testing.T) {
	a := DateRange{NewDate(2024, time.March, 1), NewDate(2024, time.March, 5)}
	b := DateRange{NewDate(2024, time.March, 5), NewDate(2024, time.March, 9)}
	c := DateRange{NewDate(2024, time.March, 6), NewDate(2024, time.March, 9)}

	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))
	assert.False(t, a.Overlaps(c))
	assert.True(t, a.Contains(NewDate(2024, time.March, 5)))
	assert.False(t, a.Contains(NewDate(2024, time.March, 6)))
}

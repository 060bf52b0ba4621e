package recurrence

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRRuleString(t *testing.T) {
	start := date(2024, time.February, 5)

	tests := []struct {
		rule Rule
		want string
	}{
		{Rule{Cadence: CadenceWeekly, EveryNWeeks: 2}, "FREQ=WEEKLY;INTERVAL=2"},
		{Rule{Cadence: CadenceMonthly, WeekOfMonth: 1, Weekday: time.Monday}, "FREQ=MONTHLY;INTERVAL=1;BYDAY=+1MO"},
		{Rule{Cadence: CadenceYearly, Month: time.February, DayOfMonth: 30}, "FREQ=YEARLY;INTERVAL=1;BYMONTH=2;BYMONTHDAY=-1"},
		{Rule{Cadence: CadenceYearly, Month: time.March, DayOfMonth: 15}, "FREQ=YEARLY;INTERVAL=1;BYMONTH=3;BYMONTHDAY=15"},
	}

	for _, tt := range tests {
		got, err := tt.rule.RRuleString(start)
		require.NoError(t, err)
		assert.ElementsMatch(t, strings.Split(tt.want, ";"), strings.Split(got, ";"))
	}

	_, err := Rule{Cadence: CadenceMonthly, WeekOfMonth: 6}.RRuleString(start)
	assert.ErrorIs(t, err, ErrInvalidWeekOfMonth)
}

// RRULE 展开的序列应当与 NextOccurrence 逐次计算的序列一致
func TestRRuleMatchesNextOccurrence(t *testing.T) {
	rules := []Rule{
		{Cadence: CadenceWeekly, EveryNWeeks: 1},
		{Cadence: CadenceWeekly, EveryNWeeks: 3},
		{Cadence: CadenceMonthly, WeekOfMonth: 1, Weekday: time.Monday},
		{Cadence: CadenceMonthly, WeekOfMonth: 4, Weekday: time.Friday},
		{Cadence: CadenceMonthly, WeekOfMonth: 2, Weekday: time.Sunday},
		{Cadence: CadenceYearly, Month: time.February, DayOfMonth: 29},
		{Cadence: CadenceYearly, Month: time.February, DayOfMonth: 31},
		{Cadence: CadenceYearly, Month: time.April, DayOfMonth: 31},
		{Cadence: CadenceYearly, Month: time.January, DayOfMonth: 31},
		{Cadence: CadenceYearly, Month: time.February, DayOfMonth: 28},
	}

	last := date(2023, time.June, 17)
	for _, r := range rules {
		first := NextOccurrence(r, last)
		until := first.AddDate(8, 0, 0)

		rr, err := r.RRule(first)
		require.NoError(t, err)
		expanded := rr.Between(first, until, true)

		chained := []time.Time{first}
		for next := NextOccurrence(r, first); !next.After(until); next = NextOccurrence(r, next) {
			chained = append(chained, next)
		}

		require.Equal(t, len(chained), len(expanded), r.Describe())
		for i := range chained {
			assert.True(t, chained[i].Equal(expanded[i]), "%s: %s != %s", r.Describe(), chained[i], expanded[i])
		}
	}
}

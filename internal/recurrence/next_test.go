package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name      string
		rule      Rule
		lastRunAt time.Time
		want      time.Time
	}{
		{
			name:      "every two weeks",
			rule:      Rule{Cadence: CadenceWeekly, EveryNWeeks: 2},
			lastRunAt: date(2024, time.January, 1),
			want:      date(2024, time.January, 15),
		},
		{
			name:      "weekly across a year boundary",
			rule:      Rule{Cadence: CadenceWeekly, EveryNWeeks: 1},
			lastRunAt: date(2024, time.December, 28),
			want:      date(2025, time.January, 4),
		},
		{
			name:      "first monday already passed in the same month",
			rule:      Rule{Cadence: CadenceMonthly, WeekOfMonth: 1, Weekday: time.Monday},
			lastRunAt: date(2024, time.January, 1),
			want:      date(2024, time.February, 5),
		},
		{
			name:      "third monday still ahead in the same month",
			rule:      Rule{Cadence: CadenceMonthly, WeekOfMonth: 3, Weekday: time.Monday},
			lastRunAt: date(2024, time.January, 1),
			want:      date(2024, time.January, 15),
		},
		{
			name:      "fourth means fourth even when a fifth exists",
			rule:      Rule{Cadence: CadenceMonthly, WeekOfMonth: 4, Weekday: time.Monday},
			lastRunAt: date(2024, time.January, 2),
			want:      date(2024, time.January, 22),
		},
		{
			name:      "fourth monday is skipped past the fifth",
			rule:      Rule{Cadence: CadenceMonthly, WeekOfMonth: 4, Weekday: time.Monday},
			lastRunAt: date(2024, time.January, 23),
			want:      date(2024, time.February, 26),
		},
		{
			name:      "monthly wraps december",
			rule:      Rule{Cadence: CadenceMonthly, WeekOfMonth: 2, Weekday: time.Tuesday},
			lastRunAt: date(2024, time.December, 31),
			want:      date(2025, time.January, 14),
		},
		{
			name:      "yearly february 30 clamps to leap day",
			rule:      Rule{Cadence: CadenceYearly, Month: time.February, DayOfMonth: 30},
			lastRunAt: date(2023, time.March, 1),
			want:      date(2024, time.February, 29),
		},
		{
			name:      "yearly february 29 clamps in common years",
			rule:      Rule{Cadence: CadenceYearly, Month: time.February, DayOfMonth: 29},
			lastRunAt: date(2024, time.February, 29),
			want:      date(2025, time.February, 28),
		},
		{
			name:      "yearly april 31 clamps to april 30",
			rule:      Rule{Cadence: CadenceYearly, Month: time.April, DayOfMonth: 31},
			lastRunAt: date(2024, time.May, 1),
			want:      date(2025, time.April, 30),
		},
		{
			name:      "yearly always moves to the next calendar year",
			rule:      Rule{Cadence: CadenceYearly, Month: time.March, DayOfMonth: 15},
			lastRunAt: date(2024, time.January, 10),
			want:      date(2025, time.March, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextOccurrence(tt.rule, tt.lastRunAt))
		})
	}
}

func TestNextOccurrenceKeepsClockAndLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	last := time.Date(2024, time.March, 5, 9, 30, 0, 0, loc)

	weekly := NextOccurrence(Rule{Cadence: CadenceWeekly, EveryNWeeks: 1}, last)
	assert.Equal(t, time.Date(2024, time.March, 12, 9, 30, 0, 0, loc), weekly)

	monthly := NextOccurrence(Rule{Cadence: CadenceMonthly, WeekOfMonth: 1, Weekday: time.Friday}, last)
	assert.Equal(t, time.Date(2024, time.April, 5, 9, 30, 0, 0, loc), monthly)

	yearly := NextOccurrence(Rule{Cadence: CadenceYearly, Month: time.August, DayOfMonth: 1}, last)
	assert.Equal(t, time.Date(2025, time.August, 1, 9, 30, 0, 0, loc), yearly)
}

func TestMonthlySameDayLaterClock(t *testing.T) {
	// 上次执行时间早于当天的目标时刻，因此仍然是本月
	rule := Rule{Cadence: CadenceMonthly, WeekOfMonth: 1, Weekday: time.Monday}
	last := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, time.February, 5, 8, 0, 0, 0, time.UTC), NextOccurrence(rule, last))
}

func TestNextOccurrencePanicsOnUnsetCadence(t *testing.T) {
	assert.Panics(t, func() {
		NextOccurrence(Rule{}, date(2024, time.January, 1))
	})
}

func TestUpcoming(t *testing.T) {
	rule := Rule{Cadence: CadenceYearly, Month: time.February, DayOfMonth: 31}
	got := Upcoming(rule, date(2023, time.June, 1), 3)

	assert.Equal(t, []time.Time{
		date(2024, time.February, 29),
		date(2025, time.February, 28),
		date(2026, time.February, 28),
	}, got)

	assert.Empty(t, Upcoming(rule, date(2023, time.June, 1), 0))
}

func TestIsDue(t *testing.T) {
	rule := Rule{Cadence: CadenceWeekly, EveryNWeeks: 1}
	last := date(2024, time.March, 1)

	assert.False(t, IsDue(rule, last, date(2024, time.March, 7)))
	assert.True(t, IsDue(rule, last, date(2024, time.March, 8)))
	assert.True(t, IsDue(rule, last, date(2024, time.April, 1)))
}

func TestMonthlyOccurrenceAlwaysFallsOnWeekday(t *testing.T) {
	last := date(2023, time.January, 1)
	for week := 1; week <= MaxWeekOfMonth; week++ {
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			rule := Rule{Cadence: CadenceMonthly, WeekOfMonth: week, Weekday: wd}
			for _, occ := range Upcoming(rule, last, 24) {
				assert.Equal(t, wd, occ.Weekday())
				assert.Equal(t, week, (occ.Day()-1)/7+1)
			}
		}
	}
}

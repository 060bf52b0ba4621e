package recurrence

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampInput(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"150", 99},
		{"99", 99},
		{"2", 2},
		{"0", 1},
		{"-4", 1},
		{"", 1},
		{"abc", 1},
		{"12abc", 12},
		{"+7", 7},
		{"99999999999999999999999", 99},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampInput(tt.in, MinWeeklyFrequency, MaxWeeklyFrequency), tt.in)
	}
}

func TestParseFormDisabled(t *testing.T) {
	_, enabled, err := ParseForm(url.Values{"schedule": {"Weekly"}})
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestParseFormWeeklyClamps(t *testing.T) {
	form := url.Values{
		FieldHasPreventiveMaintenance: {"1"},
		FieldSchedule:                 {"Weekly"},
		FieldWeeklyFrequency:          {"150"},
		// 非当前周期的字段即使非法也会被忽略
		FieldMonthlyFrequency: {"9"},
		FieldAssignedTo:       {"42"},
	}

	rule, enabled, err := ParseForm(form)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, Rule{Cadence: CadenceWeekly, EveryNWeeks: 99, AssignedTo: &Personnel{ID: 42}}, rule)
}

func TestParseFormMonthly(t *testing.T) {
	form := url.Values{
		FieldHasPreventiveMaintenance: {"1"},
		FieldSchedule:                 {"Monthly"},
		FieldMonthlyFrequency:         {"3"},
		FieldMonthlyDay:               {"Friday"},
	}

	rule, _, err := ParseForm(form)
	require.NoError(t, err)
	assert.Equal(t, Rule{Cadence: CadenceMonthly, WeekOfMonth: 3, Weekday: time.Friday}, rule)

	form.Set(FieldMonthlyFrequency, "5")
	_, _, err = ParseForm(form)
	assert.ErrorIs(t, err, ErrInvalidWeekOfMonth)
}

func TestParseFormYearlyClampsDay(t *testing.T) {
	form := url.Values{
		FieldHasPreventiveMaintenance: {"1"},
		FieldSchedule:                 {"Yearly"},
		FieldYearlyMonth:              {"February"},
		FieldYearlyDay:                {"45"},
	}

	rule, _, err := ParseForm(form)
	require.NoError(t, err)
	assert.Equal(t, Rule{Cadence: CadenceYearly, Month: time.February, DayOfMonth: 31}, rule)
}

func TestParseFormErrors(t *testing.T) {
	base := func() url.Values {
		return url.Values{FieldHasPreventiveMaintenance: {"1"}}
	}

	form := base()
	form.Set(FieldSchedule, "Hourly")
	_, enabled, err := ParseForm(form)
	assert.True(t, enabled)
	assert.ErrorIs(t, err, ErrInvalidCadence)

	form = base()
	form.Set(FieldSchedule, "Yearly")
	form.Set(FieldYearlyMonth, "Brumaire")
	_, _, err = ParseForm(form)
	assert.ErrorIs(t, err, ErrInvalidMonth)

	form = base()
	form.Set(FieldSchedule, "Weekly")
	form.Set(FieldAssignedTo, "someone")
	_, _, err = ParseForm(form)
	assert.Error(t, err)
}

func TestFormValuesRoundTrip(t *testing.T) {
	rules := []Rule{
		{Cadence: CadenceWeekly, EveryNWeeks: 4, AssignedTo: &Personnel{ID: 3}},
		{Cadence: CadenceMonthly, WeekOfMonth: 2, Weekday: time.Sunday},
		{Cadence: CadenceYearly, Month: time.November, DayOfMonth: 31},
	}

	for _, r := range rules {
		parsed, enabled, err := ParseForm(r.FormValues())
		require.NoError(t, err)
		assert.True(t, enabled)
		assert.Equal(t, r, parsed)
	}
}

func TestFormValuesOnlyWritesActiveCadence(t *testing.T) {
	r := Rule{Cadence: CadenceMonthly, EveryNWeeks: 2, WeekOfMonth: 1, Weekday: time.Monday, Month: time.May, DayOfMonth: 4}
	form := r.FormValues()

	assert.Equal(t, "Monthly", form.Get(FieldSchedule))
	assert.Equal(t, "1", form.Get(FieldMonthlyFrequency))
	assert.Equal(t, "Monday", form.Get(FieldMonthlyDay))
	assert.False(t, form.Has(FieldWeeklyFrequency))
	assert.False(t, form.Has(FieldYearlyMonth))
	assert.False(t, form.Has(FieldYearlyDay))
}

package recurrence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampWeeklyFrequency(t *testing.T) {
	assert.Equal(t, 99, ClampWeeklyFrequency(150))
	assert.Equal(t, 1, ClampWeeklyFrequency(0))
	assert.Equal(t, 1, ClampWeeklyFrequency(-3))
	assert.Equal(t, 3, ClampWeeklyFrequency(3))
}

func TestClampDayOfMonth(t *testing.T) {
	assert.Equal(t, 31, ClampDayOfMonth(45))
	assert.Equal(t, 1, ClampDayOfMonth(0))
	assert.Equal(t, 30, ClampDayOfMonth(30))
}

func TestSettersCoerce(t *testing.T) {
	var r Rule
	r.SetEveryNWeeks(150)
	r.SetDayOfMonth(-2)

	assert.Equal(t, 99, r.EveryNWeeks)
	assert.Equal(t, 1, r.DayOfMonth)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want error
	}{
		{"weekly", Rule{Cadence: CadenceWeekly, EveryNWeeks: 2}, nil},
		{"weekly zero", Rule{Cadence: CadenceWeekly}, ErrInvalidInterval},
		{"monthly", Rule{Cadence: CadenceMonthly, WeekOfMonth: 4, Weekday: time.Saturday}, nil},
		{"monthly fifth week", Rule{Cadence: CadenceMonthly, WeekOfMonth: 5, Weekday: time.Monday}, ErrInvalidWeekOfMonth},
		{"monthly bad weekday", Rule{Cadence: CadenceMonthly, WeekOfMonth: 1, Weekday: 9}, ErrInvalidWeekday},
		{"yearly february 31 is accepted", Rule{Cadence: CadenceYearly, Month: time.February, DayOfMonth: 31}, nil},
		{"yearly no month", Rule{Cadence: CadenceYearly, DayOfMonth: 1}, ErrInvalidMonth},
		{"yearly day 32", Rule{Cadence: CadenceYearly, Month: time.May, DayOfMonth: 32}, ErrInvalidDayOfMonth},
		{"unset", Rule{}, ErrInvalidCadence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSwitchingCadenceKeepsInertParameters(t *testing.T) {
	r := Rule{Cadence: CadenceWeekly, EveryNWeeks: 3}
	r.SetCadence(CadenceYearly)
	r.Month = time.June
	r.SetDayOfMonth(10)

	assert.Equal(t, 3, r.EveryNWeeks)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cadence":"Yearly","month":"June","dayOfMonth":10}`, string(data))

	r.SetCadence(CadenceWeekly)
	data, err = json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cadence":"Weekly","everyNWeeks":3}`, string(data))
}

func TestRuleJSONRoundTrip(t *testing.T) {
	rules := []Rule{
		{Cadence: CadenceWeekly, EveryNWeeks: 2},
		{Cadence: CadenceMonthly, WeekOfMonth: 3, Weekday: time.Wednesday, AssignedTo: &Personnel{ID: 7, FullName: "王伟"}},
		{Cadence: CadenceYearly, Month: time.February, DayOfMonth: 30},
	}

	for _, r := range rules {
		data, err := json.Marshal(r)
		require.NoError(t, err)

		var decoded Rule
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, r, decoded)
	}
}

func TestRuleUnmarshalClampsAndRejects(t *testing.T) {
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(`{"cadence":"weekly","everyNWeeks":150}`), &r))
	assert.Equal(t, 99, r.EveryNWeeks)

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"cadence":"daily"}`), &r), ErrInvalidCadence)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"cadence":"Monthly","weekOfMonth":1,"weekday":"Funday"}`), &r), ErrInvalidWeekday)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Every week", Rule{Cadence: CadenceWeekly, EveryNWeeks: 1}.Describe())
	assert.Equal(t, "Every 3 weeks", Rule{Cadence: CadenceWeekly, EveryNWeeks: 3}.Describe())
	assert.Equal(t, "2nd Tuesday of every month", Rule{Cadence: CadenceMonthly, WeekOfMonth: 2, Weekday: time.Tuesday}.Describe())
	assert.Equal(t, "Every year on February 30", Rule{Cadence: CadenceYearly, Month: time.February, DayOfMonth: 30}.Describe())
}

func TestParseNames(t *testing.T) {
	wd, err := ParseWeekday(" thursday ")
	require.NoError(t, err)
	assert.Equal(t, time.Thursday, wd)

	m, err := ParseMonth("SEPTEMBER")
	require.NoError(t, err)
	assert.Equal(t, time.September, m)

	_, err = ParseMonth("Sept")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestMergeKeepsOtherCadenceParameters(t *testing.T) {
	r := Rule{Cadence: CadenceWeekly, EveryNWeeks: 3}

	r.Merge(Rule{Cadence: CadenceMonthly, WeekOfMonth: 2, Weekday: time.Friday})
	assert.Equal(t, CadenceMonthly, r.Cadence)
	assert.Equal(t, 3, r.EveryNWeeks)
	assert.Equal(t, 2, r.WeekOfMonth)

	r.Merge(Rule{Cadence: CadenceWeekly, EveryNWeeks: 5, AssignedTo: &Personnel{ID: 4}})
	assert.Equal(t, 5, r.EveryNWeeks)
	assert.Equal(t, time.Friday, r.Weekday)
	require.NotNil(t, r.AssignedTo)
	assert.Equal(t, int64(4), r.AssignedTo.ID)
}

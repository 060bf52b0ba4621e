package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campus-ops/cmms/backend/internal/recurrence"
)

func TestCycleCompletion(t *testing.T) {
	firstMonday := &recurrence.Rule{Cadence: recurrence.CadenceMonthly, WeekOfMonth: 1, Weekday: time.Monday}
	everyTwoWeeks := &recurrence.Rule{Cadence: recurrence.CadenceWeekly, EveryNWeeks: 2}

	cases := []struct {
		name        string
		rule        *recurrence.Rule
		lastRunAt   time.Time
		completedAt time.Time
		want        time.Time
	}{
		{
			// 本轮 2 月 5 日到期，2 月 3 日提前完成
			name:        "monthly completed early",
			rule:        firstMonday,
			lastRunAt:   time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
			completedAt: time.Date(2024, time.February, 3, 10, 0, 0, 0, time.UTC),
			want:        time.Date(2024, time.February, 5, 10, 0, 0, 0, time.UTC),
		},
		{
			name:        "monthly completed late",
			rule:        firstMonday,
			lastRunAt:   time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
			completedAt: time.Date(2024, time.February, 8, 15, 0, 0, 0, time.UTC),
			want:        time.Date(2024, time.February, 8, 15, 0, 0, 0, time.UTC),
		},
		{
			name:        "weekly completed early",
			rule:        everyTwoWeeks,
			lastRunAt:   time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
			completedAt: time.Date(2024, time.March, 13, 9, 0, 0, 0, time.UTC),
			want:        time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC),
		},
		{
			name:        "no schedule",
			lastRunAt:   time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
			completedAt: time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC),
			want:        time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			asset := &Asset{HasPreventiveMaintenance: tc.rule != nil, Schedule: tc.rule, LastRunAt: &tc.lastRunAt}
			assert.Equal(t, tc.want, asset.CycleCompletion(tc.completedAt))
		})
	}
}

func TestEarlyCompletionMovesToNextCycle(t *testing.T) {
	rule := &recurrence.Rule{Cadence: recurrence.CadenceMonthly, WeekOfMonth: 1, Weekday: time.Monday}
	lastRunAt := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	asset := &Asset{HasPreventiveMaintenance: true, Schedule: rule, LastRunAt: &lastRunAt}

	runAt := asset.CycleCompletion(time.Date(2024, time.February, 3, 10, 0, 0, 0, time.UTC))
	asset.LastRunAt = &runAt
	asset.RefreshNextDue()

	assert.Equal(t, time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC), *asset.NextDueAt)
}

func TestWorkOrderCycleRunAt(t *testing.T) {
	dueAt := time.Date(2024, time.February, 5, 10, 0, 0, 0, time.UTC)
	order := &WorkOrder{Preventive: true, DueAt: &dueAt}

	early := time.Date(2024, time.February, 3, 10, 0, 0, 0, time.UTC)
	late := time.Date(2024, time.February, 6, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, dueAt, order.CycleRunAt(early))
	assert.Equal(t, late, order.CycleRunAt(late))
	assert.Equal(t, late, (&WorkOrder{}).CycleRunAt(late))
}

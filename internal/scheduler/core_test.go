package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-ops/cmms/backend/internal/domain"
	"github.com/campus-ops/cmms/backend/internal/recurrence"
)

func newAsset(id int64, rule *recurrence.Rule, lastRunAt time.Time) *domain.Asset {
	return &domain.Asset{
		ID:                       id,
		Name:                     "空调机组",
		Location:                 "教学楼 A101",
		HasPreventiveMaintenance: rule != nil,
		Schedule:                 rule,
		LastRunAt:                &lastRunAt,
	}
}

func TestDueAssets(t *testing.T) {
	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

	weekly := &recurrence.Rule{Cadence: recurrence.CadenceWeekly, EveryNWeeks: 1}
	monthly := &recurrence.Rule{Cadence: recurrence.CadenceMonthly, WeekOfMonth: 2, Weekday: time.Tuesday}
	yearly := &recurrence.Rule{Cadence: recurrence.CadenceYearly, Month: time.June, DayOfMonth: 1}

	assets := []*domain.Asset{
		// 3 月 5 日 + 7 天 = 3 月 12 日，在 3 天窗口内
		newAsset(1, weekly, time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)),
		// 3 月的第 2 个周二是 3 月 12 日，但上次执行在 3 月 12 日之后，下一次是 4 月 9 日
		newAsset(2, monthly, time.Date(2024, time.March, 13, 9, 0, 0, 0, time.UTC)),
		// 2 月 20 日 + 7 天 = 2 月 27 日，已经逾期
		newAsset(3, weekly, time.Date(2024, time.February, 20, 9, 0, 0, 0, time.UTC)),
		// 明年 6 月 1 日
		newAsset(4, yearly, time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)),
		// 没有开启预防性维护
		newAsset(5, nil, time.Date(2023, time.January, 1, 9, 0, 0, 0, time.UTC)),
	}

	dues := DueAssets(assets, now, 72*time.Hour)
	require.Len(t, dues, 2)

	assert.Equal(t, int64(3), dues[0].Asset.ID)
	assert.True(t, dues[0].Overdue)
	assert.Equal(t, time.Date(2024, time.February, 27, 9, 0, 0, 0, time.UTC), dues[0].DueAt)

	assert.Equal(t, int64(1), dues[1].Asset.ID)
	assert.False(t, dues[1].Overdue)
	assert.Equal(t, time.Date(2024, time.March, 12, 9, 0, 0, 0, time.UTC), dues[1].DueAt)
}

func TestDueAssetsSkipsInvalidRule(t *testing.T) {
	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	broken := &recurrence.Rule{Cadence: recurrence.CadenceMonthly, WeekOfMonth: 5, Weekday: time.Monday}

	dues := DueAssets([]*domain.Asset{newAsset(1, broken, now.AddDate(0, -2, 0))}, now, time.Hour)
	assert.Empty(t, dues)
}

func TestDueAssetsBoundary(t *testing.T) {
	last := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	rule := &recurrence.Rule{Cadence: recurrence.CadenceWeekly, EveryNWeeks: 1}
	due := time.Date(2024, time.March, 8, 9, 0, 0, 0, time.UTC)

	// 到期时间恰好等于窗口末尾也算到期
	dues := DueAssets([]*domain.Asset{newAsset(1, rule, last)}, due.Add(-time.Hour), time.Hour)
	require.Len(t, dues, 1)
	assert.False(t, dues[0].Overdue)

	dues = DueAssets([]*domain.Asset{newAsset(1, rule, last)}, due.Add(-time.Hour-time.Second), time.Hour)
	assert.Empty(t, dues)
}

func TestDedupeKey(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*60*60)
	a := dedupeKey(7, time.Date(2024, time.March, 12, 9, 0, 0, 0, shanghai))
	b := dedupeKey(7, time.Date(2024, time.March, 12, 1, 0, 0, 0, time.UTC))
	assert.Equal(t, a, b)
	assert.Equal(t, "reminder_asset_7_2024-03-12", a)
}

func TestDueAssetsAfterEarlyCompletion(t *testing.T) {
	rule := &recurrence.Rule{Cadence: recurrence.CadenceMonthly, WeekOfMonth: 1, Weekday: time.Monday}
	asset := newAsset(1, rule, time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC))

	// 2 月 5 日到期的一轮在 2 月 3 日完成
	runAt := asset.CycleCompletion(time.Date(2024, time.February, 3, 10, 0, 0, 0, time.UTC))
	asset.LastRunAt = &runAt

	now := time.Date(2024, time.February, 12, 10, 0, 0, 0, time.UTC)
	assert.Empty(t, DueAssets([]*domain.Asset{asset}, now, 72*time.Hour))

	dues := DueAssets([]*domain.Asset{asset}, time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC), 72*time.Hour)
	require.Len(t, dues, 1)
	assert.Equal(t, time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC), dues[0].DueAt)
	assert.NotEqual(t, dedupeKey(1, time.Date(2024, time.February, 5, 10, 0, 0, 0, time.UTC)), dedupeKey(1, dues[0].DueAt))
}

package seed

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-ops/cmms/backend/internal/recurrence"
)

func TestParseAssetRegister(t *testing.T) {
	input := strings.Join([]string{
		"\ufeff名称,类别,位置,序列号,维护周期,间隔周数,第几周,星期,月份,日期,负责人,上次维护",
		"冷却塔,暖通,实验楼屋顶,CT-01,weekly,150,,,,,zhangw01,2024-03-01",
		"配电柜,电气,实验楼 102,EL-01,Yearly,,,,February,30,,2024-02-29",
		"投影仪,教学设备,教学楼 B 203,PJ-01,,,,,,,,",
		",暖通,无名,X-01,,,,,,,,",
		"锅炉,暖通,锅炉房,BL-01,Monthly,,5,Monday,,,,",
	}, "\n")

	records, errs := ParseAssetRegister(strings.NewReader(input), time.UTC)
	require.Len(t, records, 3)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "第 5 行")
	assert.ErrorIs(t, errs[1], recurrence.ErrInvalidWeekOfMonth)

	tower := records[0]
	assert.Equal(t, "冷却塔", tower.Asset.Name)
	assert.Equal(t, "zhangw01", tower.AssigneeUsername)
	require.NotNil(t, tower.Asset.Schedule)
	assert.Equal(t, recurrence.CadenceWeekly, tower.Asset.Schedule.Cadence)
	assert.Equal(t, 99, tower.Asset.Schedule.EveryNWeeks)
	require.NotNil(t, tower.Asset.LastRunAt)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), *tower.Asset.LastRunAt)

	cabinet := records[1]
	require.NotNil(t, cabinet.Asset.Schedule)
	assert.Equal(t, time.February, cabinet.Asset.Schedule.Month)
	assert.Equal(t, 30, cabinet.Asset.Schedule.DayOfMonth)
	cabinet.Asset.RefreshNextDue()
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), *cabinet.Asset.NextDueAt)

	projector := records[2]
	assert.False(t, projector.Asset.HasPreventiveMaintenance)
	assert.Nil(t, projector.Asset.Schedule)
	assert.Nil(t, projector.Asset.LastRunAt)
}

func TestBundledAssetRegister(t *testing.T) {
	file, err := os.Open("data/assets.csv")
	require.NoError(t, err)
	defer file.Close()

	records, errs := ParseAssetRegister(file, time.UTC)
	assert.Empty(t, errs)
	assert.Len(t, records, 8)
	for _, record := range records {
		if record.Asset.Schedule != nil {
			assert.NoError(t, record.Asset.Schedule.Validate())
		}
	}
}

package scheduler

import (
	"sort"
	"time"

	"github.com/campus-ops/cmms/backend/internal/domain"
	"github.com/campus-ops/cmms/backend/internal/recurrence"
)

// DueAssets 返回在 now+lookahead 之前到期的资产，按到期时间升序。
// 未开启预防性维护、没有周期或者周期非法的资产会被跳过
func DueAssets(assets []*domain.Asset, now time.Time, lookahead time.Duration) []Due {
	deadline := now.Add(lookahead)

	dues := make([]Due, 0)
	for _, asset := range assets {
		if !asset.HasPreventiveMaintenance || asset.Schedule == nil || asset.LastRunAt == nil {
			continue
		}
		if err := asset.Schedule.Validate(); err != nil {
			continue
		}

		next := recurrence.NextOccurrence(*asset.Schedule, *asset.LastRunAt)
		if next.After(deadline) {
			continue
		}

		dues = append(dues, Due{
			Asset:   asset,
			DueAt:   next,
			Overdue: next.Before(now),
		})
	}

	sort.SliceStable(dues, func(i, j int) bool {
		return dues[i].DueAt.Before(dues[j].DueAt)
	})

	return dues
}

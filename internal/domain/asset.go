package domain

import (
	"time"

	"github.com/campus-ops/cmms/backend/internal/recurrence"
)

type Asset struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Location     string `json:"location"`
	SerialNumber string `json:"serialNumber"`
	Description  string `json:"description"`

	HasPreventiveMaintenance bool             `json:"hasPreventiveMaintenance"`
	Schedule                 *recurrence.Rule `json:"schedule"`
	// 上一次完成维护的时间，新建资产时为创建时间
	LastRunAt *time.Time `json:"lastRunAt"`
	NextDueAt *time.Time `json:"nextDueAt"`

	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

// RefreshNextDue 根据维护周期重新计算下一次维护时间
func (a *Asset) RefreshNextDue() {
	a.NextDueAt = nil
	if !a.HasPreventiveMaintenance || a.Schedule == nil || a.LastRunAt == nil {
		return
	}
	next := recurrence.NextOccurrence(*a.Schedule, *a.LastRunAt)
	a.NextDueAt = &next
}

// CycleCompletion 返回完成本轮维护后应记录的 last_run_at。
// 提前完成时记为本轮的到期时间，否则下一轮会重新落在同一个到期日上
func (a *Asset) CycleCompletion(completedAt time.Time) time.Time {
	if a.Schedule == nil || a.LastRunAt == nil || a.Schedule.Validate() != nil {
		return completedAt
	}
	due := recurrence.NextOccurrence(*a.Schedule, *a.LastRunAt)
	if due.After(completedAt) {
		return due
	}
	return completedAt
}

package domain

import "time"

type WorkOrderStatus string

const (
	WorkOrderOpen       WorkOrderStatus = "open"
	WorkOrderInProgress WorkOrderStatus = "in_progress"
	WorkOrderCompleted  WorkOrderStatus = "completed"
)

type WorkOrderPriority string

const (
	PriorityLow    WorkOrderPriority = "low"
	PriorityMedium WorkOrderPriority = "medium"
	PriorityHigh   WorkOrderPriority = "high"
)

type WorkOrder struct {
	ID          int64             `json:"id"`
	AssetID     *int64            `json:"assetID"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Priority    WorkOrderPriority `json:"priority"`
	Status      WorkOrderStatus   `json:"status"`
	AssigneeID  *int64            `json:"assigneeID"`
	// 预防性维护工单由提醒扫描自动生成，完成后会推进资产的维护周期
	Preventive  bool       `json:"preventive"`
	DueAt       *time.Time `json:"dueAt"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	Version     int32      `json:"-"`
}

// CycleRunAt 返回完成预防性工单后资产应记录的 last_run_at，提前完成时取工单的到期时间
func (o *WorkOrder) CycleRunAt(completedAt time.Time) time.Time {
	if o.DueAt != nil && o.DueAt.After(completedAt) {
		return *o.DueAt
	}
	return completedAt
}

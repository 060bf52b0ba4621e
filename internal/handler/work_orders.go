package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/campus-ops/cmms/backend/internal/domain"
)

func (h *Handler) CreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssetID     *int64     `json:"assetID"`
		Title       string     `json:"title" validate:"required,max=200"`
		Description string     `json:"description" validate:"max=2000"`
		Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
		AssigneeID  *int64     `json:"assigneeID"`
		DueAt       *time.Time `json:"dueAt"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	order := &domain.WorkOrder{
		AssetID:     req.AssetID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.WorkOrderPriority(req.Priority),
		Status:      domain.WorkOrderOpen,
		AssigneeID:  req.AssigneeID,
		DueAt:       req.DueAt,
	}
	if order.Priority == "" {
		order.Priority = domain.PriorityMedium
	}

	if err := h.repository.CreateWorkOrder(order); err != nil {
		switch constraintName(err) {
		case "work_orders_asset_id_fkey":
			h.badRequest(w, r, errors.New("资产不存在"))
		case "work_orders_assignee_id_fkey":
			h.badRequest(w, r, errors.New("负责人不存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建工单成功", order)
}

func (h *Handler) GetAllWorkOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.WorkOrderStatus(r.URL.Query().Get("status"))
	if err := h.validate.Var(string(status), "omitempty,oneof=open in_progress completed"); err != nil {
		h.errorResponse(w, r, "无效的工单状态")
		return
	}

	var assigneeID int64
	if s := r.URL.Query().Get("assignee"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "负责人ID无效")
			return
		}
		assigneeID = id
	}

	orders, err := h.repository.GetWorkOrders(status, assigneeID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取工单列表成功", orders)
}

func (h *Handler) GetWorkOrder(w http.ResponseWriter, r *http.Request) {
	order := r.Context().Value(WorkOrderCtx).(*domain.WorkOrder)
	h.successResponse(w, r, "获取工单成功", order)
}

// UpdateWorkOrderStatus 更新工单状态。完成预防性工单时会同时推进资产的维护周期
func (h *Handler) UpdateWorkOrderStatus(w http.ResponseWriter, r *http.Request) {
	order := r.Context().Value(WorkOrderCtx).(*domain.WorkOrder)

	var req struct {
		Status string `json:"status" validate:"required,oneof=open in_progress completed"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	status := domain.WorkOrderStatus(req.Status)
	if order.Status == domain.WorkOrderCompleted {
		h.errorResponse(w, r, "工单已完成，不能修改状态")
		return
	}

	var err error
	switch {
	case status == domain.WorkOrderCompleted && order.Preventive && order.AssetID != nil:
		now := h.now()
		err = h.repository.CompletePreventiveWorkOrder(order, order.CycleRunAt(now), now)
	case status == domain.WorkOrderCompleted:
		now := h.now()
		order.Status = status
		order.CompletedAt = &now
		err = h.repository.UpdateWorkOrderStatus(order)
	default:
		order.Status = status
		err = h.repository.UpdateWorkOrderStatus(order)
	}

	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新工单状态失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新工单状态成功", order)
}

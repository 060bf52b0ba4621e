package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/campus-ops/cmms/backend/internal/domain"
	"github.com/campus-ops/cmms/backend/internal/feed"
	"github.com/campus-ops/cmms/backend/internal/recurrence"
)

const maxAssetFormMemory = 10 << 20

// parseAssetForm 解析资产表单，同时支持 multipart/form-data 和 x-www-form-urlencoded。
// 上传的附件不做保存
func parseAssetForm(r *http.Request) (url.Values, error) {
	err := r.ParseMultipartForm(maxAssetFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

type assetFields struct {
	Name         string `validate:"required,max=100"`
	Category     string `validate:"max=50"`
	Location     string `validate:"max=100"`
	SerialNumber string `validate:"max=100"`
	Description  string `validate:"max=1000"`
}

func readAssetFields(form url.Values) assetFields {
	return assetFields{
		Name:         form.Get("name"),
		Category:     form.Get("category"),
		Location:     form.Get("location"),
		SerialNumber: form.Get("serial_number"),
		Description:  form.Get("description"),
	}
}

// resolveAssignee 检查维护负责人是否为在职的维修人员，并补全姓名
func (h *Handler) resolveAssignee(rule *recurrence.Rule) error {
	if rule.AssignedTo == nil {
		return nil
	}

	user, err := h.repository.GetUserByID(rule.AssignedTo.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.New("维护负责人不存在")
		}
		return err
	}
	if user.Role != domain.RoleTechnician || !user.IsActive {
		return errors.New("维护负责人必须是在职的维修人员")
	}

	rule.AssignedTo.FullName = user.FullName
	return nil
}

func (h *Handler) assetConflict(w http.ResponseWriter, r *http.Request, err error) {
	switch constraintName(err) {
	case "assets_serial_number_key":
		h.badRequest(w, r, errors.New("序列号已存在"))
	case "assets_pm_assigned_to_fkey":
		h.badRequest(w, r, errors.New("维护负责人不存在"))
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	form, err := parseAssetForm(r)
	if err != nil {
		h.badRequest(w, r, errors.New("表单格式错误"))
		return
	}

	fields := readAssetFields(form)
	if err := h.validate.Struct(fields); err != nil {
		h.badRequest(w, r, err)
		return
	}

	rule, enabled, err := recurrence.ParseForm(form)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	asset := &domain.Asset{
		Name:                     fields.Name,
		Category:                 fields.Category,
		Location:                 fields.Location,
		SerialNumber:             fields.SerialNumber,
		Description:              fields.Description,
		HasPreventiveMaintenance: enabled,
	}

	if enabled {
		if err := h.resolveAssignee(&rule); err != nil {
			h.badRequest(w, r, err)
			return
		}
		asset.Schedule = &rule
	}

	if err := h.repository.CreateAsset(asset); err != nil {
		h.assetConflict(w, r, err)
		return
	}

	h.successResponse(w, r, "创建资产成功", asset)
}

func (h *Handler) GetAllAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.repository.GetAllAssets()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取资产列表成功", assets)
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	asset := r.Context().Value(AssetCtx).(*domain.Asset)
	h.successResponse(w, r, "获取资产成功", asset)
}

// UpdateAsset 只更新表单中出现的字段。切换维护周期时，其他周期之前保存的参数会被保留
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	asset := r.Context().Value(AssetCtx).(*domain.Asset)

	form, err := parseAssetForm(r)
	if err != nil {
		h.badRequest(w, r, errors.New("表单格式错误"))
		return
	}

	fields := readAssetFields(form)
	if !form.Has("name") {
		fields.Name = asset.Name
	}
	if !form.Has("category") {
		fields.Category = asset.Category
	}
	if !form.Has("location") {
		fields.Location = asset.Location
	}
	if !form.Has("serial_number") {
		fields.SerialNumber = asset.SerialNumber
	}
	if !form.Has("description") {
		fields.Description = asset.Description
	}
	if err := h.validate.Struct(fields); err != nil {
		h.badRequest(w, r, err)
		return
	}

	asset.Name = fields.Name
	asset.Category = fields.Category
	asset.Location = fields.Location
	asset.SerialNumber = fields.SerialNumber
	asset.Description = fields.Description

	if form.Has(recurrence.FieldHasPreventiveMaintenance) {
		rule, enabled, err := recurrence.ParseForm(form)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}

		asset.HasPreventiveMaintenance = enabled
		if enabled {
			if err := h.resolveAssignee(&rule); err != nil {
				h.badRequest(w, r, err)
				return
			}
			if asset.Schedule == nil {
				asset.Schedule = &recurrence.Rule{}
			}
			asset.Schedule.Merge(rule)
		}
	}

	if err := h.repository.UpdateAsset(asset); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.errorResponse(w, r, "更新资产失败，请重试")
			return
		}
		h.assetConflict(w, r, err)
		return
	}

	h.successResponse(w, r, "更新资产成功", asset)
}

func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	asset := r.Context().Value(AssetCtx).(*domain.Asset)

	if err := h.repository.DeleteAsset(asset.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除资产成功", nil)
}

type assetSchedule struct {
	Rule        recurrence.Rule `json:"rule"`
	Description string          `json:"description"`
	RRule       string          `json:"rrule"`
	LastRunAt   time.Time       `json:"lastRunAt"`
	NextDueAt   time.Time       `json:"nextDueAt"`
	Upcoming    []time.Time     `json:"upcoming"`
}

// buildAssetSchedule 计算资产接下来 count 次维护时间，资产没有开启预防性维护时返回 false
func buildAssetSchedule(asset *domain.Asset, count int, loc *time.Location) (*assetSchedule, bool, error) {
	if !asset.HasPreventiveMaintenance || asset.Schedule == nil || asset.LastRunAt == nil {
		return nil, false, nil
	}

	rule := *asset.Schedule
	if err := rule.Validate(); err != nil {
		return nil, true, err
	}

	lastRunAt := asset.LastRunAt.In(loc)
	upcoming := recurrence.Upcoming(rule, lastRunAt, max(count, 1))

	rrule, err := rule.RRuleString(upcoming[0])
	if err != nil {
		return nil, true, err
	}

	return &assetSchedule{
		Rule:        rule,
		Description: rule.Describe(),
		RRule:       rrule,
		LastRunAt:   lastRunAt,
		NextDueAt:   upcoming[0],
		Upcoming:    upcoming,
	}, true, nil
}

func (h *Handler) GetAssetSchedule(w http.ResponseWriter, r *http.Request) {
	asset := r.Context().Value(AssetCtx).(*domain.Asset)

	count := h.config.Calendar.UpcomingLimit
	if s := r.URL.Query().Get("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			h.errorResponse(w, r, "数量必须在 1 到 100 之间")
			return
		}
		count = n
	}

	schedule, enabled, err := buildAssetSchedule(asset, count, h.location)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !enabled {
		h.errorResponse(w, r, "该资产未开启预防性维护")
		return
	}

	h.successResponse(w, r, "获取维护计划成功", schedule)
}

func (h *Handler) GetAssetScheduleFeed(w http.ResponseWriter, r *http.Request) {
	asset := r.Context().Value(AssetCtx).(*domain.Asset)

	if !asset.HasPreventiveMaintenance || asset.Schedule == nil || asset.LastRunAt == nil {
		h.errorResponse(w, r, "该资产未开启预防性维护")
		return
	}

	f := feed.New(asset.Name+" 维护计划", h.now())
	if err := f.AddMaintenance(feed.MaintenanceEntry{
		AssetID:   asset.ID,
		Summary:   "预防性维护：" + asset.Name,
		Location:  asset.Location,
		Rule:      *asset.Schedule,
		LastRunAt: asset.LastRunAt.In(h.location),
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeCalendar(w, r, "asset-"+strconv.FormatInt(asset.ID, 10)+".ics", f)
}

func (h *Handler) CompleteAssetMaintenance(w http.ResponseWriter, r *http.Request) {
	asset := r.Context().Value(AssetCtx).(*domain.Asset)

	if !asset.HasPreventiveMaintenance || asset.Schedule == nil {
		h.errorResponse(w, r, "该资产未开启预防性维护")
		return
	}

	var req struct {
		CompletedAt *time.Time `json:"completedAt"`
	}
	if r.ContentLength != 0 {
		if err := h.readJSON(r, &req); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}

	completedAt := h.now()
	if req.CompletedAt != nil {
		if req.CompletedAt.After(completedAt) {
			h.errorResponse(w, r, "完成时间不能晚于当前时间")
			return
		}
		completedAt = *req.CompletedAt
	}

	if err := h.repository.CompleteMaintenance(asset, asset.CycleCompletion(completedAt), completedAt); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "记录维护失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "已记录本次维护", asset)
}

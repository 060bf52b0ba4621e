package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/campus-ops/cmms/backend/internal/scheduler"
)

// GetDueMaintenance 列出 within 天内到期（包括已逾期）的预防性维护，默认使用提醒扫描的窗口
func (h *Handler) GetDueMaintenance(w http.ResponseWriter, r *http.Request) {
	within := time.Duration(h.config.Reminder.Lookahead) * time.Second
	if s := r.URL.Query().Get("within"); s != "" {
		days, err := strconv.Atoi(s)
		if err != nil || days < 0 || days > 366 {
			h.errorResponse(w, r, "天数必须在 0 到 366 之间")
			return
		}
		within = time.Duration(days) * 24 * time.Hour
	}

	assets, err := h.repository.GetPreventiveAssets()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取到期维护成功", scheduler.DueAssets(assets, h.now(), within))
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/campus-ops/cmms/backend/internal/calendar"
)

type calendarCell struct {
	calendar.Day
	IsStart   bool `json:"isStart"`
	IsEnd     bool `json:"isEnd"`
	IsInRange bool `json:"isInRange"`
}

type calendarView struct {
	Year      int            `json:"year"`
	Month     time.Month     `json:"month"`
	MonthName string         `json:"monthName"`
	Cells     []calendarCell `json:"cells"`
}

func newCalendarView(year int, month time.Month, sel *calendar.DateRangeSelector) calendarView {
	grid := calendar.GenerateGrid(year, month)
	cells := make([]calendarCell, len(grid))
	for i, day := range grid {
		cells[i] = calendarCell{Day: day}
		if sel == nil {
			continue
		}
		cells[i].IsStart = sel.Start().IsPresent() && sel.Start().MustGet().Equal(day.Date)
		cells[i].IsEnd = sel.End().IsPresent() && sel.End().MustGet().Equal(day.Date)
		cells[i].IsInRange = sel.IsInRange(day.Date)
	}

	return calendarView{
		Year:      year,
		Month:     month,
		MonthName: month.String(),
		Cells:     cells,
	}
}

// parseYearMonth 读取 year、month 查询参数，缺省时使用当前月份
func (h *Handler) parseYearMonth(r *http.Request) (int, time.Month, error) {
	now := h.now().In(h.location)
	year, month := now.Year(), now.Month()

	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1 || y > 9999 {
			return 0, 0, errors.New("年份无效")
		}
		year = y
	}

	if s := r.URL.Query().Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, errors.New("月份无效")
		}
		month = time.Month(m)
	}

	return year, month, nil
}

func (h *Handler) GetCalendarGrid(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.parseYearMonth(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.successResponse(w, r, "获取日历成功", newCalendarView(year, month, nil))
}

type selectionAction struct {
	Type  string         `json:"type" validate:"required,oneof=start end startDay endDay navigate"`
	Date  *calendar.Date `json:"date" validate:"required_if=Type start,required_if=Type end"`
	Day   int            `json:"day" validate:"required_if=Type startDay,required_if=Type endDay,min=0,max=31"`
	Delta int            `json:"delta"`
}

// SelectDateRange 按顺序重放一组日期选择操作，返回最终的选择状态
func (h *Handler) SelectDateRange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year      int               `json:"year" validate:"required,min=1,max=9999"`
		Month     int               `json:"month" validate:"required,min=1,max=12"`
		Actions   []selectionAction `json:"actions" validate:"dive"`
		StartTime string            `json:"startTime"`
		EndTime   string            `json:"endTime"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	sel := calendar.NewDateRangeSelector(req.Year, time.Month(req.Month))
	for _, action := range req.Actions {
		if action.Type == "startDay" || action.Type == "endDay" {
			year, month := sel.Displayed()
			if !calendar.NewDate(year, month, action.Day).IsValid() {
				h.errorResponse(w, r, "所选日期不存在")
				return
			}
		}

		switch action.Type {
		case "start":
			sel.SelectStart(*action.Date)
		case "end":
			sel.SelectEnd(*action.Date)
		case "startDay":
			sel.SelectStartDay(action.Day)
		case "endDay":
			sel.SelectEndDay(action.Day)
		case "navigate":
			sel.NavigateMonth(action.Delta)
		}
	}

	var times calendar.TimeRangeSelector
	times.SetStart(req.StartTime)
	times.SetEnd(req.EndTime)

	year, month := sel.Displayed()
	resp := struct {
		StartDate          *calendar.Date `json:"startDate"`
		EndDate            *calendar.Date `json:"endDate"`
		FormattedRange     string         `json:"dateRange"`
		FormattedTimeRange string         `json:"timeRange"`
		Calendar           calendarView   `json:"calendar"`
	}{
		StartDate:      sel.Start().ToPointer(),
		EndDate:        sel.End().ToPointer(),
		FormattedRange: sel.FormattedRange(),
		Calendar:       newCalendarView(year, month, sel),
	}
	if req.StartTime != "" || req.EndTime != "" {
		resp.FormattedTimeRange = times.FormattedRange()
	}

	h.successResponse(w, r, "选择日期成功", resp)
}

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/campus-ops/cmms/backend/internal/calendar"
	"github.com/campus-ops/cmms/backend/internal/domain"
	"github.com/campus-ops/cmms/backend/internal/feed"
	"github.com/campus-ops/cmms/backend/internal/repository"
	"github.com/campus-ops/cmms/backend/internal/utils"
)

type bookingRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Location    string `json:"location" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Attendees   int32  `json:"attendees" validate:"omitempty,min=1,max=10000"`

	// 日期可以是格式化后的范围字符串，也可以分别给出起止日期
	DateRange string         `json:"dateRange" validate:"required_without_all=StartDate EndDate"`
	StartDate *calendar.Date `json:"startDate" validate:"required_without=DateRange"`
	EndDate   *calendar.Date `json:"endDate" validate:"required_without=DateRange"`

	// 时间同理
	TimeRange string `json:"timeRange" validate:"required_without_all=StartTime EndTime"`
	StartTime string `json:"startTime" validate:"required_without=TimeRange"`
	EndTime   string `json:"endTime" validate:"required_without=TimeRange"`
}

// normalize 按照日历选择器的规则得到最终的日期和时间范围：
// 先选开始日期，再选结束日期，结束日期早于开始日期时开始日期会被拉到结束日期
func (req *bookingRequest) normalize() (calendar.DateRange, calendar.TimeRange, error) {
	var start, end calendar.Date
	if req.DateRange != "" {
		dr, err := calendar.ParseDateRange(req.DateRange)
		if err != nil {
			return calendar.DateRange{}, calendar.TimeRange{}, errors.New("日期范围格式错误")
		}
		start, end = dr.StartDate, dr.EndDate
	} else {
		start, end = *req.StartDate, *req.EndDate
	}

	sel := calendar.NewDateRangeSelector(start.Year, start.Month)
	sel.SelectStart(start)
	sel.SelectEnd(end)
	dr, _ := sel.Range()

	var times calendar.TimeRangeSelector
	if req.TimeRange != "" {
		startTime, endTime, ok := strings.Cut(req.TimeRange, " - ")
		if !ok {
			return calendar.DateRange{}, calendar.TimeRange{}, errors.New("时间范围格式错误")
		}
		times.SetStart(startTime)
		times.SetEnd(endTime)
	} else {
		times.SetStart(req.StartTime)
		times.SetEnd(req.EndTime)
	}

	tr, err := times.Range()
	if err != nil {
		return calendar.DateRange{}, calendar.TimeRange{}, errors.New("时间格式错误，应为 HH:MM")
	}

	return dr, tr, nil
}

func bookingViews(bookings []*domain.Booking) []domain.BookingView {
	views := make([]domain.BookingView, len(bookings))
	for i, b := range bookings {
		views[i] = b.View()
	}
	return views
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req bookingRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	dr, tr, err := req.normalize()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	today := calendar.DateOf(h.now().In(h.location))
	if dr.StartDate.Before(today) {
		h.errorResponse(w, r, "不能预约过去的日期")
		return
	}

	booking := &domain.Booking{
		Reference:   uuid.NewString(),
		Title:       req.Title,
		Location:    req.Location,
		Description: req.Description,
		Attendees:   max(req.Attendees, 1),
		RequesterID: myInfo.ID,
		DateRange:   dr,
		TimeRange:   tr,
		Status:      domain.BookingPending,
	}

	conflict, err := h.repository.CreateBooking(booking, utils.FindBookingConflict)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if conflict != nil {
		h.errorResponse(w, r, "该地点在所选时间段已被预约")
		return
	}

	h.successResponse(w, r, "提交预约成功", booking.View())
}

// bookingWindow 读取 dateRange 或 from、to 查询参数，均未给出时返回 nil
func bookingWindow(r *http.Request) (*calendar.DateRange, error) {
	q := r.URL.Query()
	if s := q.Get("dateRange"); s != "" {
		dr, err := calendar.ParseDateRange(s)
		if err != nil {
			return nil, errors.New("日期范围格式错误")
		}
		return &dr, nil
	}

	if q.Get("from") == "" && q.Get("to") == "" {
		return nil, nil
	}

	from, err := calendar.ParseDate(q.Get("from"))
	if err != nil {
		return nil, err
	}
	to, err := calendar.ParseDate(q.Get("to"))
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, errors.New("结束日期不能早于开始日期")
	}
	return &calendar.DateRange{StartDate: from, EndDate: to}, nil
}

// requesterFilter 在 mine=1 时只返回当前用户的预约
func requesterFilter(r *http.Request) (int64, error) {
	if r.URL.Query().Get("mine") != "1" {
		return 0, nil
	}
	sub, _ := r.Context().Value(SubCtxKey).(string)
	return strconv.ParseInt(sub, 10, 64)
}

func (h *Handler) GetAllBookings(w http.ResponseWriter, r *http.Request) {
	window, err := bookingWindow(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	requesterID, err := requesterFilter(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	bookings, err := h.repository.GetBookings(window, requesterID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取预约列表成功", bookingViews(bookings))
}

func (h *Handler) GetBookingFeed(w http.ResponseWriter, r *http.Request) {
	window, err := bookingWindow(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	requesterID, err := requesterFilter(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	bookings, err := h.repository.GetBookings(window, requesterID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	f := feed.New("场地预约", h.now())
	for _, b := range bookings {
		f.AddBooking(feed.BookingEntry{
			BookingID: b.ID,
			Title:     b.Title,
			Location:  b.Location,
			Status:    b.Status.ICalStatus(),
			DateRange: b.DateRange,
			TimeRange: b.TimeRange,
		}, h.location)
	}

	h.writeCalendar(w, r, "bookings.ics", f)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking := r.Context().Value(BookingCtx).(*domain.Booking)
	h.successResponse(w, r, "获取预约成功", booking.View())
}

func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	booking := r.Context().Value(BookingCtx).(*domain.Booking)

	if err := h.repository.DeleteBooking(booking.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除预约成功", nil)
}

func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	booking := r.Context().Value(BookingCtx).(*domain.Booking)

	var req struct {
		Status string `json:"status" validate:"required,oneof=approved rejected cancelled"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	status := domain.BookingStatus(req.Status)
	if booking.Status == status {
		h.successResponse(w, r, "预约状态未改变", booking.View())
		return
	}
	if booking.Status == domain.BookingCancelled || booking.Status == domain.BookingRejected {
		h.errorResponse(w, r, "该预约已结束，不能修改状态")
		return
	}

	// 批准时需要重新检查冲突，其他状态只会释放时间段
	var conflicts repository.ConflictFunc
	if status == domain.BookingApproved {
		conflicts = utils.FindBookingConflict
	}

	previous := booking.Status
	booking.Status = status
	conflict, err := h.repository.UpdateBookingStatus(booking, conflicts)
	if err != nil {
		booking.Status = previous
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新预约状态失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if conflict != nil {
		booking.Status = previous
		h.errorResponse(w, r, "与其他预约时间冲突")
		return
	}

	// 状态已经保存，通知失败不影响本次请求的结果
	requester, err := h.repository.GetUserByID(booking.RequesterID)
	if err != nil {
		slog.Error("无法获取预约人，未发送状态通知", "booking", booking.ID, "error", err)
	} else {
		h.notifyBookingStatus(r, requester, booking)
	}

	h.successResponse(w, r, "更新预约状态成功", booking.View())
}

func bookingStatusMail(requester *domain.User, booking *domain.Booking) domain.MailMessage {
	return domain.MailMessage{
		Type: domain.MailTypeBookingStatus,
		To:   requester.Email,
		Data: domain.BookingStatusMailData{
			FullName:  requester.FullName,
			Title:     booking.Title,
			Reference: booking.Reference,
			DateRange: booking.DateRange.String(),
			TimeRange: booking.TimeRange.String(),
			Status:    string(booking.Status),
		},
	}
}

// notifyBookingStatus 通知预约人状态变化，发送失败只记录日志
func (h *Handler) notifyBookingStatus(r *http.Request, requester *domain.User, booking *domain.Booking) bool {
	if err := h.sendMail(r, bookingStatusMail(requester, booking)); err != nil {
		slog.Error("预约状态通知发送失败", "booking", booking.ID, "to", requester.Email, "error", err)
		return false
	}
	return true
}

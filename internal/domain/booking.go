package domain

import (
	"time"

	"github.com/campus-ops/cmms/backend/internal/calendar"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

// ICalStatus 对应 iCalendar 中 VEVENT 的 STATUS
func (s BookingStatus) ICalStatus() string {
	switch s {
	case BookingApproved:
		return "CONFIRMED"
	case BookingRejected, BookingCancelled:
		return "CANCELLED"
	default:
		return "TENTATIVE"
	}
}

type Booking struct {
	ID          int64              `json:"id"`
	Reference   string             `json:"reference"`
	Title       string             `json:"title"`
	Location    string             `json:"location"`
	Description string             `json:"description"`
	Attendees   int32              `json:"attendees"`
	RequesterID int64              `json:"requesterID"`
	DateRange   calendar.DateRange `json:"-"`
	TimeRange   calendar.TimeRange `json:"-"`
	Status      BookingStatus      `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
	Version     int32              `json:"-"`
}

// BookingView 是返回给前端的预约信息，同时带有格式化后的日期、时间范围
type BookingView struct {
	*Booking
	StartDate          calendar.Date `json:"startDate"`
	EndDate            calendar.Date `json:"endDate"`
	StartTime          string        `json:"startTime"`
	EndTime            string        `json:"endTime"`
	FormattedDateRange string        `json:"dateRange"`
	FormattedTimeRange string        `json:"timeRange"`
}

func (b *Booking) View() BookingView {
	return BookingView{
		Booking:            b,
		StartDate:          b.DateRange.StartDate,
		EndDate:            b.DateRange.EndDate,
		StartTime:          b.TimeRange.Start.String(),
		EndTime:            b.TimeRange.End.String(),
		FormattedDateRange: b.DateRange.String(),
		FormattedTimeRange: b.TimeRange.String(),
	}
}

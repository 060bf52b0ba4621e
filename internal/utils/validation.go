package utils

import (
	"github.com/campus-ops/cmms/backend/internal/calendar"
	"github.com/campus-ops/cmms/backend/internal/domain"
)

// 跨越午夜的时间段按 [start, 24:00) 和 [00:00, end) 两段处理
func timeSegments(tr calendar.TimeRange) [][2]int {
	start, end := tr.Start.Minutes(), tr.End.Minutes()
	if tr.Overnight() {
		return [][2]int{{start, 24 * 60}, {0, end}}
	}
	return [][2]int{{start, end}}
}

func timeRangesOverlap(a, b calendar.TimeRange) bool {
	for _, x := range timeSegments(a) {
		for _, y := range timeSegments(b) {
			if x[0] < y[1] && y[0] < x[1] {
				return true
			}
		}
	}
	return false
}

func isActiveBooking(b *domain.Booking) bool {
	return b.Status == domain.BookingPending || b.Status == domain.BookingApproved
}

// BookingsConflict 判断两个预约是否在同一地点的同一时间段内
func BookingsConflict(a, b *domain.Booking) bool {
	if a.Location != b.Location || !isActiveBooking(a) || !isActiveBooking(b) {
		return false
	}
	return a.DateRange.Overlaps(b.DateRange) && timeRangesOverlap(a.TimeRange, b.TimeRange)
}

// FindBookingConflict 返回 existing 中第一个与 booking 冲突的预约
func FindBookingConflict(booking *domain.Booking, existing []*domain.Booking) *domain.Booking {
	for _, other := range existing {
		if other == booking || (other.ID != 0 && other.ID == booking.ID) {
			continue
		}
		if BookingsConflict(booking, other) {
			return other
		}
	}
	return nil
}

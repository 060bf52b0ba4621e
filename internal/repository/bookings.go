package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/campus-ops/cmms/backend/internal/calendar"
	"github.com/campus-ops/cmms/backend/internal/domain"
)

const bookingColumns = `
	id,
	reference,
	title,
	location,
	description,
	attendees,
	requester_id,
	start_date,
	end_date,
	to_char(start_time, 'HH24:MI'),
	to_char(end_time, 'HH24:MI'),
	status,
	created_at,
	version
`

func scanBooking(s scanner) (*domain.Booking, error) {
	var (
		booking            domain.Booking
		startDate, endDate time.Time
		startTime, endTime string
	)

	dst := []any{
		&booking.ID,
		&booking.Reference,
		&booking.Title,
		&booking.Location,
		&booking.Description,
		&booking.Attendees,
		&booking.RequesterID,
		&startDate,
		&endDate,
		&startTime,
		&endTime,
		&booking.Status,
		&booking.CreatedAt,
		&booking.Version,
	}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}

	booking.DateRange = calendar.DateRange{StartDate: calendar.DateOf(startDate), EndDate: calendar.DateOf(endDate)}

	tr, err := calendar.ParseTimeRange(startTime + " - " + endTime)
	if err != nil {
		return nil, err
	}
	booking.TimeRange = tr

	return &booking, nil
}

// ConflictFunc 在候选预约中找出与 booking 冲突的一个，没有冲突时返回 nil
type ConflictFunc func(booking *domain.Booking, candidates []*domain.Booking) *domain.Booking

// lockLocation 对地点加事务级的咨询锁，同一地点的冲突检查和写入串行执行
func lockLocation(ctx context.Context, tx *sql.Tx, location string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, location)
	return err
}

// bookingCandidates 只按地点、状态和日期筛选，时间段是否重叠由 ConflictFunc 判断，
// 跨越午夜的时间段无法用简单的区间比较表达
func bookingCandidates(ctx context.Context, tx *sql.Tx, booking *domain.Booking) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + ` FROM bookings
		WHERE location = $1
		  AND status IN ('pending', 'approved')
		  AND id <> $2
		  AND start_date <= $4::date AND end_date >= $3::date
		ORDER BY id
	`

	rows, err := tx.QueryContext(ctx, query,
		booking.Location,
		booking.ID,
		booking.DateRange.StartDate.String(),
		booking.DateRange.EndDate.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return candidates, nil
}

// CreateBooking 在同一事务中检查冲突并插入预约。存在冲突时不插入，返回冲突的预约
func (r *Repository) CreateBooking(booking *domain.Booking, conflicts ConflictFunc) (*domain.Booking, error) {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockLocation(ctx, tx, booking.Location); err != nil {
		return nil, err
	}

	candidates, err := bookingCandidates(ctx, tx, booking)
	if err != nil {
		return nil, err
	}
	if conflict := conflicts(booking, candidates); conflict != nil {
		return conflict, nil
	}

	query := `
		INSERT INTO bookings (
			reference,
			title,
			location,
			description,
			attendees,
			requester_id,
			start_date,
			end_date,
			start_time,
			end_time,
			status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, version
	`

	args := []any{
		booking.Reference,
		booking.Title,
		booking.Location,
		booking.Description,
		booking.Attendees,
		booking.RequesterID,
		booking.DateRange.StartDate.String(),
		booking.DateRange.EndDate.String(),
		booking.TimeRange.Start.String(),
		booking.TimeRange.End.String(),
		booking.Status,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&booking.ID, &booking.CreatedAt, &booking.Version); err != nil {
		return nil, err
	}

	return nil, tx.Commit()
}

func (r *Repository) GetBookingByID(id int64) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanBooking(r.dbpool.QueryRowContext(ctx, query, id))
}

// GetBookings 返回与 window 有交集的预约，window 为 nil 时返回全部；requesterID 不为 0 时只返回该用户的预约
func (r *Repository) GetBookings(window *calendar.DateRange, requesterID int64) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + ` FROM bookings
		WHERE ($1::date IS NULL OR end_date >= $1::date)
		  AND ($2::date IS NULL OR start_date <= $2::date)
		  AND ($3::bigint = 0 OR requester_id = $3::bigint)
		ORDER BY start_date, start_time, id
	`

	var from, to any
	if window != nil {
		from = window.StartDate.String()
		to = window.EndDate.String()
	}

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, from, to, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// UpdateBookingStatus 更新预约状态。conflicts 不为 nil 时，先在同一事务中检查冲突，
// 存在冲突时不更新，返回冲突的预约
func (r *Repository) UpdateBookingStatus(booking *domain.Booking, conflicts ConflictFunc) (*domain.Booking, error) {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if conflicts != nil {
		if err := lockLocation(ctx, tx, booking.Location); err != nil {
			return nil, err
		}
		candidates, err := bookingCandidates(ctx, tx, booking)
		if err != nil {
			return nil, err
		}
		if conflict := conflicts(booking, candidates); conflict != nil {
			return conflict, nil
		}
	}

	query := `
		UPDATE bookings
		SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`
	if err := tx.QueryRowContext(ctx, query, booking.Status, booking.ID, booking.Version).Scan(&booking.Version); err != nil {
		return nil, err
	}

	return nil, tx.Commit()
}

func (r *Repository) DeleteBooking(id int64) error {
	query := `DELETE FROM bookings WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

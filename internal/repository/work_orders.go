package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/campus-ops/cmms/backend/internal/domain"
)

const workOrderColumns = `
	id,
	asset_id,
	title,
	description,
	priority,
	status,
	assignee_id,
	preventive,
	due_at,
	completed_at,
	created_at,
	version
`

func scanWorkOrder(s scanner) (*domain.WorkOrder, error) {
	var (
		order       domain.WorkOrder
		assetID     sql.NullInt64
		assigneeID  sql.NullInt64
		dueAt       sql.NullTime
		completedAt sql.NullTime
	)

	dst := []any{
		&order.ID,
		&assetID,
		&order.Title,
		&order.Description,
		&order.Priority,
		&order.Status,
		&assigneeID,
		&order.Preventive,
		&dueAt,
		&completedAt,
		&order.CreatedAt,
		&order.Version,
	}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}

	if assetID.Valid {
		order.AssetID = &assetID.Int64
	}
	if assigneeID.Valid {
		order.AssigneeID = &assigneeID.Int64
	}
	if dueAt.Valid {
		order.DueAt = &dueAt.Time
	}
	if completedAt.Valid {
		order.CompletedAt = &completedAt.Time
	}

	return &order, nil
}

func (r *Repository) CreateWorkOrder(order *domain.WorkOrder) error {
	query := `
		INSERT INTO work_orders (asset_id, title, description, priority, status, assignee_id, preventive, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{order.AssetID, order.Title, order.Description, order.Priority, order.Status, order.AssigneeID, order.Preventive, order.DueAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&order.ID, &order.CreatedAt, &order.Version); err != nil {
		return err
	}

	return nil
}

// CreatePreventiveWorkOrder 为资产的某一次到期维护创建工单。
// 同一资产同一天只会有一张预防性工单，已存在时返回已有的工单，created 为 false
func (r *Repository) CreatePreventiveWorkOrder(order *domain.WorkOrder) (created bool, err error) {
	query := `
		INSERT INTO work_orders (asset_id, title, description, priority, status, assignee_id, preventive, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
		ON CONFLICT (asset_id, due_date) WHERE preventive DO NOTHING
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	order.Preventive = true
	args := []any{order.AssetID, order.Title, order.Description, order.Priority, order.Status, order.AssigneeID, order.DueAt}
	err = r.dbpool.QueryRowContext(ctx, query, args...).Scan(&order.ID, &order.CreatedAt, &order.Version)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	query = `
		SELECT ` + workOrderColumns + ` FROM work_orders
		WHERE asset_id = $1 AND due_date = ($2::timestamptz AT TIME ZONE 'UTC')::date AND preventive
	`
	existing, err := scanWorkOrder(r.dbpool.QueryRowContext(ctx, query, order.AssetID, order.DueAt))
	if err != nil {
		return false, err
	}
	*order = *existing

	return false, nil
}

func (r *Repository) GetWorkOrderByID(id int64) (*domain.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanWorkOrder(r.dbpool.QueryRowContext(ctx, query, id))
}

// GetWorkOrders 返回工单列表，status 不为空时按状态过滤，assigneeID 不为 0 时只返回指派给该用户的工单
func (r *Repository) GetWorkOrders(status domain.WorkOrderStatus, assigneeID int64) ([]*domain.WorkOrder, error) {
	query := `
		SELECT ` + workOrderColumns + ` FROM work_orders
		WHERE ($1 = '' OR status = $1)
		  AND ($2::bigint = 0 OR assignee_id = $2::bigint)
		ORDER BY due_at NULLS LAST, id
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, string(status), assigneeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*domain.WorkOrder, 0)
	for rows.Next() {
		order, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *Repository) UpdateWorkOrderStatus(order *domain.WorkOrder) error {
	query := `
		UPDATE work_orders
		SET status = $1, completed_at = $2, version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, order.Status, order.CompletedAt, order.ID, order.Version).Scan(&order.Version); err != nil {
		return err
	}

	return nil
}

// CompletePreventiveWorkOrder 完成一张预防性工单，并将对应资产的 last_run_at 推进到 lastRunAt
func (r *Repository) CompletePreventiveWorkOrder(order *domain.WorkOrder, lastRunAt, completedAt time.Time) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE work_orders
		SET status = 'completed', completed_at = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`
	if err := tx.QueryRowContext(ctx, query, completedAt, order.ID, order.Version).Scan(&order.Version); err != nil {
		return err
	}

	query = `
		UPDATE assets
		SET last_run_at = GREATEST(last_run_at, $1), version = version + 1
		WHERE id = $2
	`
	if _, err := tx.ExecContext(ctx, query, lastRunAt, order.AssetID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	order.Status = domain.WorkOrderCompleted
	order.CompletedAt = &completedAt

	return nil
}

package repository

import (
	"database/sql"
	"time"

	"github.com/campus-ops/cmms/backend/internal/domain"
	"github.com/campus-ops/cmms/backend/internal/recurrence"
)

const assetColumns = `
	a.id,
	a.name,
	a.category,
	a.location,
	a.serial_number,
	a.description,
	a.has_preventive_maintenance,
	a.pm_cadence,
	a.pm_every_n_weeks,
	a.pm_week_of_month,
	a.pm_weekday,
	a.pm_month,
	a.pm_day_of_month,
	a.pm_assigned_to,
	u.full_name,
	a.last_run_at,
	a.created_at,
	a.version
`

const assetFrom = `FROM assets a LEFT JOIN users u ON a.pm_assigned_to = u.id`

type scanner interface {
	Scan(dest ...any) error
}

// 数据库中保存全部三种周期的参数，切换周期不会丢失之前填写的内容
type assetRow struct {
	domain.Asset

	Cadence      sql.NullString
	EveryNWeeks  sql.NullInt32
	WeekOfMonth  sql.NullInt32
	Weekday      sql.NullInt32
	Month        sql.NullInt32
	DayOfMonth   sql.NullInt32
	AssignedTo   sql.NullInt64
	AssigneeName sql.NullString
	LastRunAt    sql.NullTime
}

func scanAsset(s scanner) (*domain.Asset, error) {
	var row assetRow
	dst := []any{
		&row.ID,
		&row.Name,
		&row.Category,
		&row.Location,
		&row.SerialNumber,
		&row.Description,
		&row.HasPreventiveMaintenance,
		&row.Cadence,
		&row.EveryNWeeks,
		&row.WeekOfMonth,
		&row.Weekday,
		&row.Month,
		&row.DayOfMonth,
		&row.AssignedTo,
		&row.AssigneeName,
		&row.LastRunAt,
		&row.CreatedAt,
		&row.Version,
	}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}

	asset := row.Asset
	if row.Cadence.Valid {
		rule := &recurrence.Rule{
			Cadence:     recurrence.Cadence(row.Cadence.String),
			EveryNWeeks: int(row.EveryNWeeks.Int32),
			WeekOfMonth: int(row.WeekOfMonth.Int32),
			Weekday:     time.Weekday(row.Weekday.Int32),
			Month:       time.Month(row.Month.Int32),
			DayOfMonth:  int(row.DayOfMonth.Int32),
		}
		if row.AssignedTo.Valid {
			rule.AssignedTo = &recurrence.Personnel{ID: row.AssignedTo.Int64, FullName: row.AssigneeName.String}
		}
		asset.Schedule = rule
	}
	if row.LastRunAt.Valid {
		lastRunAt := row.LastRunAt.Time
		asset.LastRunAt = &lastRunAt
	}
	asset.RefreshNextDue()

	return &asset, nil
}

func scheduleArgs(asset *domain.Asset) []any {
	if asset.Schedule == nil {
		return []any{nil, nil, nil, nil, nil, nil, nil}
	}

	rule := asset.Schedule
	var assignedTo any
	if rule.AssignedTo != nil {
		assignedTo = rule.AssignedTo.ID
	}

	return []any{
		string(rule.Cadence),
		rule.EveryNWeeks,
		rule.WeekOfMonth,
		int(rule.Weekday),
		int(rule.Month),
		rule.DayOfMonth,
		assignedTo,
	}
}

func (r *Repository) CreateAsset(asset *domain.Asset) error {
	query := `
		INSERT INTO assets (
			name,
			category,
			location,
			serial_number,
			description,
			has_preventive_maintenance,
			pm_cadence,
			pm_every_n_weeks,
			pm_week_of_month,
			pm_weekday,
			pm_month,
			pm_day_of_month,
			pm_assigned_to,
			last_run_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, COALESCE($14, NOW()))
		RETURNING id, last_run_at, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{asset.Name, asset.Category, asset.Location, asset.SerialNumber, asset.Description, asset.HasPreventiveMaintenance}
	args = append(args, scheduleArgs(asset)...)
	args = append(args, asset.LastRunAt)

	var lastRunAt time.Time
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&asset.ID, &lastRunAt, &asset.CreatedAt, &asset.Version); err != nil {
		return err
	}
	asset.LastRunAt = &lastRunAt
	asset.RefreshNextDue()

	return nil
}

func (r *Repository) GetAssetByID(id int64) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + assetFrom + ` WHERE a.id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanAsset(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetAllAssets() ([]*domain.Asset, error) {
	return r.listAssets(`SELECT ` + assetColumns + assetFrom + ` ORDER BY a.id`)
}

// GetPreventiveAssets 返回所有开启了预防性维护的资产
func (r *Repository) GetPreventiveAssets() ([]*domain.Asset, error) {
	return r.listAssets(`SELECT ` + assetColumns + assetFrom + ` WHERE a.has_preventive_maintenance ORDER BY a.id`)
}

func (r *Repository) listAssets(query string, args ...any) ([]*domain.Asset, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]*domain.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assets, nil
}

func (r *Repository) UpdateAsset(asset *domain.Asset) error {
	query := `
		UPDATE assets
		SET
			name = $1,
			category = $2,
			location = $3,
			serial_number = $4,
			description = $5,
			has_preventive_maintenance = $6,
			pm_cadence = $7,
			pm_every_n_weeks = $8,
			pm_week_of_month = $9,
			pm_weekday = $10,
			pm_month = $11,
			pm_day_of_month = $12,
			pm_assigned_to = $13,
			version = version + 1
		WHERE id = $14 AND version = $15
		RETURNING version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{asset.Name, asset.Category, asset.Location, asset.SerialNumber, asset.Description, asset.HasPreventiveMaintenance}
	args = append(args, scheduleArgs(asset)...)
	args = append(args, asset.ID, asset.Version)

	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&asset.Version); err != nil {
		return err
	}
	asset.RefreshNextDue()

	return nil
}

func (r *Repository) DeleteAsset(id int64) error {
	query := `DELETE FROM assets WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

// CompleteMaintenance 记录一次维护完成，将资产的 last_run_at 推进到 lastRunAt，
// 同时将该资产所有未完成的预防性工单标记为完成
func (r *Repository) CompleteMaintenance(asset *domain.Asset, lastRunAt, completedAt time.Time) error {
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
		UPDATE assets
		SET last_run_at = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`
	if err := tx.QueryRowContext(ctx, query, lastRunAt, asset.ID, asset.Version).Scan(&asset.Version); err != nil {
		return err
	}

	query = `
		UPDATE work_orders
		SET status = 'completed', completed_at = $1, version = version + 1
		WHERE asset_id = $2 AND preventive AND status <> 'completed'
	`
	if _, err := tx.ExecContext(ctx, query, completedAt, asset.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	asset.LastRunAt = &lastRunAt
	asset.RefreshNextDue()

	return nil
}

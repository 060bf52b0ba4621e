package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campus-ops/cmms/backend/internal/domain"
)

type Store interface {
	GetPreventiveAssets() ([]*domain.Asset, error)
	GetUserByID(id int64) (*domain.User, error)
	CreatePreventiveWorkOrder(order *domain.WorkOrder) (bool, error)
}

type Notifier interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

// Deduper 记录已经发送过的提醒，Claim 返回 false 表示已经提醒过
type Deduper interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisDeduper struct {
	client *redis.Client
}

func NewRedisDeduper(client *redis.Client) *RedisDeduper {
	return &RedisDeduper{client: client}
}

func (d *RedisDeduper) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return d.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
}

func (d *RedisDeduper) Release(ctx context.Context, key string) error {
	return d.client.Del(ctx, key).Err()
}

type Scheduler struct {
	parameters *Parameters
	store      Store
	notifier   Notifier
	deduper    Deduper
	now        func() time.Time
}

func New(parameters *Parameters, store Store, notifier Notifier, deduper Deduper) *Scheduler {
	return &Scheduler{
		parameters: parameters,
		store:      store,
		notifier:   notifier,
		deduper:    deduper,
		now:        time.Now,
	}
}

// Run 立即扫描一次，之后按照 ScanInterval 周期扫描，直到 ctx 被取消
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.parameters.ScanInterval)
	defer ticker.Stop()

	for {
		report, err := s.Scan(ctx)
		if err != nil {
			slog.Error("扫描维护计划失败", "error", err)
		} else {
			slog.Info("已扫描维护计划", "scanned", report.Scanned, "due", report.Due, "created", report.Created, "notified", report.Notified, "duplicated", report.Duplicated)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Scan 为窗口内到期的资产生成预防性工单并发送提醒邮件。
// 单个资产处理失败只记录日志，不影响其他资产
func (s *Scheduler) Scan(ctx context.Context) (Report, error) {
	var report Report

	assets, err := s.store.GetPreventiveAssets()
	if err != nil {
		return report, err
	}
	report.Scanned = len(assets)

	dues := DueAssets(assets, s.now(), s.parameters.Lookahead)
	report.Due = len(dues)

	for _, due := range dues {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		out, err := s.handle(ctx, due)
		if out.created {
			report.Created++
		}
		if err != nil {
			slog.Error("处理到期维护失败", "asset", due.Asset.ID, "dueAt", due.DueAt, "error", err)
			continue
		}
		if out.notified {
			report.Notified++
		}
		if out.duplicated {
			report.Duplicated++
		}
	}

	return report, nil
}

type outcome struct {
	created    bool
	notified   bool
	duplicated bool
}

func (s *Scheduler) handle(ctx context.Context, due Due) (out outcome, err error) {
	asset := due.Asset
	dueAt := due.DueAt

	order := &domain.WorkOrder{
		AssetID:     &asset.ID,
		Title:       fmt.Sprintf("预防性维护：%s", asset.Name),
		Description: asset.Schedule.Describe(),
		Priority:    domain.PriorityMedium,
		Status:      domain.WorkOrderOpen,
		DueAt:       &dueAt,
	}
	if due.Overdue {
		order.Priority = domain.PriorityHigh
	}
	if asset.Schedule.AssignedTo != nil {
		order.AssigneeID = &asset.Schedule.AssignedTo.ID
	}

	out.created, err = s.store.CreatePreventiveWorkOrder(order)
	if err != nil {
		return out, err
	}

	if asset.Schedule.AssignedTo == nil {
		return out, nil
	}

	user, err := s.store.GetUserByID(asset.Schedule.AssignedTo.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return out, nil
		}
		return out, err
	}
	if !canReceiveReminder(user) {
		return out, nil
	}

	key := dedupeKey(asset.ID, dueAt)
	claimed, err := s.deduper.Claim(ctx, key, s.parameters.DedupeTTL)
	if err != nil {
		return out, err
	}
	if !claimed {
		out.duplicated = true
		return out, nil
	}

	if err := s.notifier.Publish(ctx, domain.MailMessage{
		Type: domain.MailTypeMaintenanceReminder,
		To:   user.Email,
		Data: domain.MaintenanceReminderMailData{
			FullName:    user.FullName,
			AssetName:   asset.Name,
			Location:    asset.Location,
			Schedule:    asset.Schedule.Describe(),
			DueDate:     dueAt.Format("January 2, 2006 15:04"),
			WorkOrderID: order.ID,
		},
	}); err != nil {
		// 发送失败时释放去重记录，下次扫描重试
		if releaseErr := s.deduper.Release(ctx, key); releaseErr != nil {
			return out, errors.Join(err, releaseErr)
		}
		return out, err
	}

	out.notified = true
	return out, nil
}

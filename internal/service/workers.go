package service

import (
	"context"
	"time"

	"UFresher/internal/pkg"
	"UFresher/internal/repository/mysql"
	"UFresher/internal/telemetry"

	"go.uber.org/zap"
)

// EventSender 由 kafka producer 实现
type EventSender interface {
	Send(ctx context.Context, key string, value []byte) error
}

// OutboxRelayer 从 outbox 表读取事件投递到 kafka
type OutboxRelayer struct {
	repo      OutboxStore
	sender    EventSender
	batchSize int
	maxRetry  int
	interval  time.Duration
}

func NewOutboxRelayer(repo OutboxStore, sender EventSender) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      repo,
		sender:    sender,
		batchSize: 200,
		maxRetry:  5,
		interval:  time.Second,
	}
}

// Run outbox 启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce 失败的事件重试次数未超限时放回 pending，下一轮继续投递
func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	if n, err := r.repo.RequeueFailed(ctx, r.maxRetry); err != nil {
		zap.L().Warn("outbox requeue failed", zap.Error(err))
	} else if n > 0 {
		zap.L().Debug("outbox requeued", zap.Int64("count", n))
	}

	rows, err := r.repo.ListPending(ctx, r.batchSize)
	if err != nil {
		zap.L().Error("outbox query failed", zap.Error(err))
		return
	}
	for i := range rows {
		ob := rows[i]
		if err = r.sender.Send(ctx, pkg.MakeKeyFromID(ob.AggregateID), []byte(ob.Payload)); err != nil {
			telemetry.OutboxEventsTotal.WithLabelValues("failed").Inc()
			zap.L().Warn("outbox send failed", zap.Uint64("id", ob.ID), zap.String("event", ob.EventType), zap.Error(err))
			_ = r.repo.MarkFailed(ctx, ob.ID)
			continue
		}
		telemetry.OutboxEventsTotal.WithLabelValues("sent").Inc()
		_ = r.repo.MarkSent(ctx, ob.ID)
	}
}

// LogSender kafka 未启用时使用，只打日志
type LogSender struct{}

func (LogSender) Send(_ context.Context, key string, value []byte) error {
	zap.L().Info("outbox event", zap.String("key", key), zap.ByteString("payload", value))
	return nil
}

// MemberCountReconciler 成员计数对账
type MemberCountReconciler struct {
	repo      MemberCountStore
	batchSize int
	interval  time.Duration
	// OnFix 修正计数后回调，用于丢弃进程内缓存
	OnFix func(kind string, id uint64)
}

func NewMemberCountReconciler(repo MemberCountStore) *MemberCountReconciler {
	return &MemberCountReconciler{
		repo:      repo,
		batchSize: 500,             // 一次对账的批量
		interval:  5 * time.Minute, // 对账间隔
	}
}

// Run 对账定时任务启动器
func (r *MemberCountReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

type countSource struct {
	kind string
	list func(ctx context.Context, lastID uint64, batchSize int) ([]mysql.CountPair, error)
	real func(ctx context.Context, id uint64) (int64, error)
	fix  func(ctx context.Context, id uint64, n int64) error
}

// reconcileOnce 先在成员表查询真实值，再与计数列比对更新
func (r *MemberCountReconciler) reconcileOnce(ctx context.Context) {
	sources := []countSource{
		{"community", r.repo.ListCommunities, r.repo.RealCommunityMembers, r.repo.FixCommunity},
		{"club", r.repo.ListClubs, r.repo.RealClubMembers, r.repo.FixClub},
	}
	for _, src := range sources {
		r.reconcile(ctx, src)
	}
}

func (r *MemberCountReconciler) reconcile(ctx context.Context, src countSource) {
	var lastID uint64
	for {
		rows, err := src.list(ctx, lastID, r.batchSize)
		if err != nil {
			zap.L().Error("reconcile list failed", zap.String("kind", src.kind), zap.Error(err))
			return
		}
		for _, row := range rows {
			actual, err := src.real(ctx, row.ID)
			if err != nil {
				continue
			}
			if actual != row.MemberCount {
				if err = src.fix(ctx, row.ID, actual); err == nil {
					if r.OnFix != nil {
						r.OnFix(src.kind, row.ID)
					}
					telemetry.MemberCountDriftTotal.WithLabelValues(src.kind).Inc()
					zap.L().Info("member count fixed", zap.String("kind", src.kind),
						zap.Uint64("id", row.ID), zap.Int64("from", row.MemberCount), zap.Int64("to", actual))
				}
			}
		}
		if len(rows) < r.batchSize {
			return
		}
		lastID = rows[len(rows)-1].ID
	}
}

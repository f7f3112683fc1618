package service

import (
	"context"
	"time"

	"github.com/rbxmart/fulfillment/internal/core/domain"
	"github.com/rbxmart/fulfillment/internal/core/port"
	"go.uber.org/zap"
)

const (
	defaultSweepInterval = time.Minute
	sweepBatchLimit      = 50
)

// Sweeper periodically re-enqueues orders parked in SUPPLIER_PENDING by the
// no-eligible-suppliers policy once their scheduled retry time arrives. It is
// the only retry mechanism; there are no in-memory timers to lose on restart.
type Sweeper struct {
	repo     port.Repository
	queue    port.Enqueuer
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewSweeper(repo port.Repository, queue port.Enqueuer, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		repo:     repo,
		queue:    queue,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run blocks until ctx is canceled.
func (sw *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sw.sweep(ctx)
		}
	}
}

func (sw *Sweeper) sweep(ctx context.Context) {
	orders, err := sw.repo.ListOrdersByStatus(ctx, domain.OrderStatusSupplierPending)
	if err != nil {
		sw.logger.Warn("sweep: list failed", zap.Error(err))
		return
	}

	now := sw.now()
	fired := 0
	for _, order := range orders {
		if fired >= sweepBatchLimit {
			break
		}
		retry := order.Details.NoSuppliersRetry
		if retry == nil {
			continue
		}
		// An order with an upstream id is with the supplier, not waiting for
		// one.
		if order.Details.UpstreamOrderID != "" {
			continue
		}
		if retry.NextRetryAt.After(now) {
			continue
		}
		sw.queue.EnqueuePurchase(order.ID)
		fired++
	}

	if fired > 0 {
		sw.logger.Info("sweep: retries fired", zap.Int("count", fired))
	}
}

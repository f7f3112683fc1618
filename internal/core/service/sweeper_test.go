package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rbxmart/fulfillment/internal/core/domain"
	"github.com/rbxmart/fulfillment/internal/core/port/mock"
	"github.com/rbxmart/fulfillment/internal/core/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func pendingOrder(id string, retry *domain.RetryState, upstreamID string) *domain.Order {
	return &domain.Order{
		ID:     id,
		Status: domain.OrderStatusSupplierPending,
		Details: domain.OrderDetails{
			UpstreamOrderID:  upstreamID,
			NoSuppliersRetry: retry,
		},
	}
}

func TestSweeperFiresOnlyDueRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock.NewMockRepository(ctrl)
	queue := mock.NewMockEnqueuer(ctrl)
	logger, _ := zap.NewDevelopment()

	now := time.Now()
	repo.EXPECT().ListOrdersByStatus(gomock.Any(), domain.OrderStatusSupplierPending).
		Return([]*domain.Order{
			pendingOrder("due", &domain.RetryState{Count: 1, NextRetryAt: now.Add(-time.Second)}, ""),
			pendingOrder("not-due", &domain.RetryState{Count: 1, NextRetryAt: now.Add(time.Hour)}, ""),
			pendingOrder("no-retry-state", nil, ""),
			pendingOrder("with-upstream", &domain.RetryState{Count: 1, NextRetryAt: now.Add(-time.Second)}, "up-1"),
		}, nil).AnyTimes()

	enqueued := make(chan string, 64)
	queue.EXPECT().EnqueuePurchase(gomock.Any()).
		Do(func(id string) {
			select {
			case enqueued <- id:
			default:
			}
		}).AnyTimes()

	sw := service.NewSweeper(repo, queue, 5*time.Millisecond, logger)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(stopped)
	}()

	select {
	case id := <-enqueued:
		assert.Equal(t, "due", id)
	case <-time.After(time.Second):
		assert.Fail(t, "no retry was enqueued")
	}
	cancel()
	<-stopped

	// Later ticks may have fired again, but never for the other orders.
	for {
		select {
		case id := <-enqueued:
			assert.Equal(t, "due", id)
		default:
			return
		}
	}
}

func TestSweeperListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock.NewMockRepository(ctrl)
	queue := mock.NewMockEnqueuer(ctrl)
	logger, _ := zap.NewDevelopment()

	// No EnqueuePurchase expectation: a failed list sweeps nothing.
	repo.EXPECT().ListOrdersByStatus(gomock.Any(), domain.OrderStatusSupplierPending).
		Return(nil, domain.ErrInternal).AnyTimes()

	sw := service.NewSweeper(repo, queue, 5*time.Millisecond, logger)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(stopped)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		assert.Fail(t, "sweeper did not stop")
	}
}

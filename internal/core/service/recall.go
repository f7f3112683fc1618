package service

import (
	"context"

	"github.com/rbxmart/fulfillment/internal/core/domain"
	"github.com/rbxmart/fulfillment/internal/core/port"
)

// RecallOrders re-enqueues orders that were ready for purchase when the
// process last stopped. Orders parked by the retry policy are left to the
// sweeper.
func RecallOrders(ctx context.Context, repo port.Repository, queue port.Enqueuer) error {
	orders, err := repo.ListOrdersByStatus(ctx, domain.OrderStatusReadyToBuy)
	if err != nil {
		return err
	}
	for _, order := range orders {
		queue.EnqueuePurchase(order.ID)
	}
	return nil
}

package port

import (
	"context"

	"github.com/govalues/decimal"
	"github.com/rbxmart/fulfillment/internal/core/domain"
)

// DealEvent is a paid-deal intake event from the buyer-facing platform.
type DealEvent struct {
	DealID      string
	ChatID      string
	AmountRobux int
	OfferURL    string
	ProductID   string
	ItemName    string
}

// MessageEvent is a free-text buyer reply.
type MessageEvent struct {
	DealID    string
	ChatID    string
	Text      string
	FromBuyer bool
}

// Enqueuer accepts orders for fulfillment. Submitting an order that is
// already in flight is a no-op.
type Enqueuer interface {
	EnqueuePurchase(orderID string)
}

type Service interface {
	Enqueuer

	HandleDealEvent(ctx context.Context, ev DealEvent) error
	HandleMessageEvent(ctx context.Context, ev MessageEvent) error

	ListOrders(ctx context.Context, statuses ...domain.OrderStatus) ([]*domain.Order, error)
	ResetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	SetQuote(ctx context.Context, orderID string, costRub decimal.Decimal) (*domain.Order, error)

	SupplierSnapshot() *domain.PoolSnapshot
	ForceRefreshSuppliers(ctx context.Context, supplierID string, sampleQuantity int) error
	SupplierSettings(ctx context.Context) (*domain.PoolConfig, error)
	UpdateSupplierSettings(ctx context.Context, cfg *domain.PoolConfig) error
}

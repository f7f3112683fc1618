package port

import (
	"context"

	"github.com/govalues/decimal"
	"github.com/rbxmart/fulfillment/internal/core/domain"
)

// PickedSupplier is the registry's answer for one purchase attempt.
type PickedSupplier struct {
	ID           string
	OfferURL     string
	UnitPriceRub decimal.Decimal
	RequiredRub  decimal.Decimal
	QueueSize    int
}

// SupplierPool selects suppliers by price and runs purchase jobs under the
// per-supplier FIFO queue and the global concurrency cap.
type SupplierPool interface {
	PickSupplier(ctx context.Context, quantity int) (*PickedSupplier, error)
	PickSupplierForOrder(ctx context.Context, quantity int, preferredID string) (*PickedSupplier, error)
	RunOnSupplier(ctx context.Context, supplierID string, jobID string, fn func(context.Context) error) error
	ForceRefresh(ctx context.Context, supplierID string, sampleQuantity int) error
	ApplyConfig(cfg *domain.PoolConfig)
	Snapshot() *domain.PoolSnapshot
	TotalQueued() int
}

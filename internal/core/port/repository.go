package port

import (
	"context"

	"github.com/rbxmart/fulfillment/internal/core/domain"
)

type Repository interface {
	// Order
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ReadOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ReadOrderByDealID(ctx context.Context, dealID string) (*domain.Order, error)
	LatestOrderByChat(ctx context.Context, chatID string) (*domain.Order, error)
	ListOrdersByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]*domain.Order, error)

	// Settings
	SaveSupplierSettings(ctx context.Context, cfg *domain.PoolConfig) error
	LoadSupplierSettings(ctx context.Context) (*domain.PoolConfig, error)
}

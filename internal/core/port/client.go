package port

import (
	"context"

	"github.com/govalues/decimal"
)

// ExecuteStatus is the terminal (or still-pending) outcome of one purchase
// execution against the upstream marketplace.
type ExecuteStatus string

const (
	ExecuteStatusSellerDone ExecuteStatus = "SELLER_DONE"
	ExecuteStatusTimeout    ExecuteStatus = "TIMEOUT"
	ExecuteStatusCanceled   ExecuteStatus = "CANCELED"
	ExecuteStatusRefunded   ExecuteStatus = "REFUNDED"
	ExecuteStatusPending    ExecuteStatus = "PENDING"
)

// ExecuteState is intermediate progress the executor reports as soon as it is
// known, so the upstream order id and message cursor survive a crash
// mid-purchase.
type ExecuteState struct {
	UpstreamOrderID   string
	LastSeenMessageID string
}

type ExecuteRequest struct {
	OfferURL      string
	Quantity      int
	BuyerUsername string
	GamepassURL   string
	GamepassID    string

	// Resume state from a previous attempt.
	ExistingOrderID   string
	LastSeenMessageID string

	// Progress, when non-nil, is invoked whenever the upstream order id or
	// the message cursor advances.
	Progress func(ExecuteState)
}

type ExecuteResult struct {
	UpstreamOrderID   string
	Status            ExecuteStatus
	LastSeenMessageID string
}

// PurchaseExecutor runs one purchase to a terminal outcome or its own overall
// timeout. It never hangs indefinitely; a timeout is reported as
// ExecuteStatusTimeout, not as an error.
type PurchaseExecutor interface {
	Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error)
}

// PriceLookup quotes the total price for a quantity on one offer. Returns
// domain.ErrPriceNotFound when the offer quotes no price for the quantity.
type PriceLookup interface {
	TotalPrice(ctx context.Context, offerURL string, quantity int) (decimal.Decimal, error)
}

// BalanceProvider reports the funds available for purchases.
type BalanceProvider interface {
	AvailableBalance(ctx context.Context) (decimal.Decimal, error)
}

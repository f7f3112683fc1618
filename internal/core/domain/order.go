package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type OrderStatus string

const (
	OrderStatusPaidReceived    OrderStatus = "PAID_RECEIVED"
	OrderStatusWaitUsername    OrderStatus = "WAIT_USERNAME"
	OrderStatusWaitGamepassURL OrderStatus = "WAIT_GAMEPASS_URL"
	OrderStatusWaitGamepassID  OrderStatus = "WAIT_GAMEPASS_ID"
	OrderStatusReadyToBuy      OrderStatus = "READY_TO_BUY"
	OrderStatusWaitTopup       OrderStatus = "WAIT_TOPUP"
	OrderStatusSupplierPending OrderStatus = "SUPPLIER_PENDING"
	OrderStatusSupplierError   OrderStatus = "SUPPLIER_ERROR"
	OrderStatusDone            OrderStatus = "DONE"
	OrderStatusFailed          OrderStatus = "FAILED"
)

// RetryState is the bookkeeping for the bounded no-eligible-suppliers retry
// policy. FirstAt never changes once set; Count grows by one per scheduled
// attempt.
type RetryState struct {
	Count       int       `json:"count"`
	NextRetryAt time.Time `json:"nextRetryAt"`
	FirstAt     time.Time `json:"firstAt"`
}

// OrderDetails holds transient orchestration state persisted alongside the
// order. CreatingUpstream marks the window between the decision to create an
// upstream order and the upstream id being known; an order found with the
// flag set and no UpstreamOrderID after a restart must never be retried
// automatically.
type OrderDetails struct {
	UpstreamOrderID   string           `json:"upstreamOrderId,omitempty"`
	LastSeenMessageID string           `json:"lastSeenMessageId,omitempty"`
	SupplierID        string           `json:"supplierId,omitempty"`
	SupplierOfferURL  string           `json:"supplierOfferUrl,omitempty"`
	UnitPriceRub      *decimal.Decimal `json:"unitPriceRub,omitempty"`
	QuotedCostRub     *decimal.Decimal `json:"quotedCostRub,omitempty"`
	CreatingUpstream  bool             `json:"creatingUpstream,omitempty"`
	CreatingStartedAt *time.Time       `json:"creatingStartedAt,omitempty"`
	NoSuppliersRetry  *RetryState      `json:"noSuppliersRetry,omitempty"`
}

type Order struct {
	ID               string
	DealID           string
	ChatID           string
	AmountRobux      int
	OfferURL         string
	RobloxUsername   string
	GamepassURL      string
	GamepassID       string
	Status           OrderStatus
	Details          OrderDetails
	LastErrorCode    string
	LastErrorMessage string
	RetryCount       int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FieldsComplete reports whether all three buyer-supplied fields required
// for a purchase are present.
func (o *Order) FieldsComplete() bool {
	return o.RobloxUsername != "" && o.GamepassURL != "" && o.GamepassID != ""
}

// Package fsm defines the order status graph. Every status write in the
// pipeline is validated against this table before persisting.
package fsm

import (
	"github.com/rbxmart/fulfillment/internal/core/domain"
)

var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPaidReceived: {
		domain.OrderStatusWaitUsername,
		domain.OrderStatusWaitGamepassURL,
		domain.OrderStatusReadyToBuy,
	},
	domain.OrderStatusWaitUsername: {
		domain.OrderStatusWaitGamepassURL,
		domain.OrderStatusWaitGamepassID,
		domain.OrderStatusReadyToBuy,
		domain.OrderStatusFailed,
	},
	domain.OrderStatusWaitGamepassURL: {
		domain.OrderStatusWaitGamepassID,
		domain.OrderStatusReadyToBuy,
		domain.OrderStatusFailed,
	},
	domain.OrderStatusWaitGamepassID: {
		domain.OrderStatusReadyToBuy,
		domain.OrderStatusFailed,
	},
	domain.OrderStatusReadyToBuy: {
		domain.OrderStatusSupplierPending,
		domain.OrderStatusWaitTopup,
		domain.OrderStatusFailed,
	},
	domain.OrderStatusWaitTopup: {
		domain.OrderStatusReadyToBuy,
		domain.OrderStatusFailed,
	},
	domain.OrderStatusSupplierPending: {
		domain.OrderStatusDone,
		domain.OrderStatusFailed,
		domain.OrderStatusSupplierError,
	},
	domain.OrderStatusSupplierError: {
		domain.OrderStatusReadyToBuy,
		domain.OrderStatusFailed,
	},
	domain.OrderStatusDone:   {},
	domain.OrderStatusFailed: {},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to domain.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(s domain.OrderStatus) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// Statuses returns every known status.
func Statuses() []domain.OrderStatus {
	list := make([]domain.OrderStatus, 0, len(transitions))
	for s := range transitions {
		list = append(list, s)
	}
	return list
}

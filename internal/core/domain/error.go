package domain

import (
	"errors"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrDataNotFound    = errors.New("data not found")
	ErrConflictingData = errors.New("data conflicts with existing data in unique column")

	// * Communication errors.
	ErrBadRequest = errors.New("error parsing request")

	// * Business errors.
	ErrNoEligibleSuppliers = errors.New("no eligible suppliers")
	ErrSupplierNotFound    = errors.New("supplier not found")
	ErrPriceNotFound       = errors.New("offer price not found")
	ErrInsufficientFunds   = errors.New("supplier balance is not enough")
	ErrOrderTerminal       = errors.New("order is in a terminal status")
)

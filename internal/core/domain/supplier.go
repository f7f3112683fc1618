package domain

import (
	"errors"
	"time"

	"github.com/govalues/decimal"
)

// SupplierConfig is one configured upstream supplier.
type SupplierConfig struct {
	ID       string `json:"id"`
	OfferURL string `json:"offerUrl"`
	Enabled  bool   `json:"enabled"`
}

// PoolConfig is the hot-reloadable supplier pool configuration.
type PoolConfig struct {
	MaxConcurrency  int              `json:"maxConcurrency"`
	MaxUnitPriceRub float64          `json:"maxUnitPriceRub"`
	RefreshPriceMs  int              `json:"refreshPriceMs,omitempty"`
	PriceSpreadRub  float64          `json:"priceSpreadRub,omitempty"`
	Suppliers       []SupplierConfig `json:"suppliers"`
}

func (c *PoolConfig) Validate() error {
	if c.MaxConcurrency < 1 || c.MaxConcurrency > 20 {
		return errors.New("maxConcurrency must be in [1,20]")
	}
	if c.MaxUnitPriceRub <= 0 {
		return errors.New("maxUnitPriceRub must be positive")
	}
	if c.Suppliers == nil {
		return errors.New("suppliers list is required")
	}
	for _, s := range c.Suppliers {
		if s.ID == "" || s.OfferURL == "" {
			return errors.New("supplier id and offerUrl are required")
		}
	}
	return nil
}

// EligibilityStatus classifies why a supplier can or cannot serve a purchase
// attempt right now.
type EligibilityStatus string

const (
	EligibilityOK           EligibilityStatus = "OK"
	EligibilityDisabled     EligibilityStatus = "DISABLED"
	EligibilityTempDisabled EligibilityStatus = "TEMP_DISABLED"
	EligibilityNoPrice      EligibilityStatus = "NO_PRICE"
	EligibilityTooExpensive EligibilityStatus = "TOO_EXPENSIVE"
)

// SupplierSnapshot is a point-in-time copy of one supplier's runtime state,
// safe to serialize for the admin surface.
type SupplierSnapshot struct {
	ID            string            `json:"id"`
	Enabled       bool              `json:"enabled"`
	OfferURL      string            `json:"offerUrl"`
	UnitPriceRub  *decimal.Decimal  `json:"unitPriceRub"`
	RequiredRub   *decimal.Decimal  `json:"requiredRub"`
	LastCheckedAt *time.Time        `json:"lastCheckedAt"`
	LastError     string            `json:"lastError,omitempty"`
	ErrorCount    int               `json:"errorCount,omitempty"`
	DisabledUntil *time.Time        `json:"disabledUntil"`
	SkipUntil     *time.Time        `json:"skipUntil"`
	Status        EligibilityStatus `json:"status"`
	Reason        string            `json:"reason"`
	QueueSize     int               `json:"queueSize"`
}

// PoolSnapshot is the admin view of the whole supplier pool.
type PoolSnapshot struct {
	MaxConcurrency  int                `json:"maxConcurrency"`
	MaxUnitPriceRub decimal.Decimal    `json:"maxUnitPriceRub"`
	RefreshPriceMs  int                `json:"refreshPriceMs"`
	Active          int                `json:"active"`
	Suppliers       []SupplierSnapshot `json:"suppliers"`
}

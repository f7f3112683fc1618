package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/govalues/decimal"
	"github.com/rbxmart/fulfillment/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakePrices struct {
	mu     sync.Mutex
	totals map[string]float64
	errs   map[string]error
	calls  map[string]int
}

func newFakePrices() *fakePrices {
	return &fakePrices{
		totals: make(map[string]float64),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (f *fakePrices) TotalPrice(_ context.Context, offerURL string, _ int) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[offerURL]++
	if err, ok := f.errs[offerURL]; ok {
		return decimal.Zero, err
	}
	total, ok := f.totals[offerURL]
	if !ok {
		return decimal.Zero, domain.ErrPriceNotFound
	}
	d, err := decimal.NewFromFloat64(total)
	if err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func (f *fakePrices) set(offerURL string, total float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totals[offerURL] = total
	delete(f.errs, offerURL)
}

func (f *fakePrices) fail(offerURL string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[offerURL] = err
}

func testConfig(suppliers ...domain.SupplierConfig) *domain.PoolConfig {
	return &domain.PoolConfig{
		MaxConcurrency:  2,
		MaxUnitPriceRub: 1.05,
		PriceSpreadRub:  0.02,
		Suppliers:       suppliers,
	}
}

func newTestRegistry(t *testing.T, cfg *domain.PoolConfig, prices *fakePrices) *Registry {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	r, err := New(cfg, prices, logger)
	assert.NoError(t, err)
	return r
}

func TestPickSupplierRoundRobinWithinSpread(t *testing.T) {
	prices := newFakePrices()
	prices.set("offer-a", 100.0)
	prices.set("offer-b", 101.0)
	prices.set("offer-c", 110.0)

	r := newTestRegistry(t, testConfig(
		domain.SupplierConfig{ID: "a", OfferURL: "offer-a", Enabled: true},
		domain.SupplierConfig{ID: "b", OfferURL: "offer-b", Enabled: true},
		domain.SupplierConfig{ID: "c", OfferURL: "offer-c", Enabled: true},
	), prices)

	var picks []string
	for i := 0; i < 4; i++ {
		picked, err := r.PickSupplier(context.Background(), 100)
		assert.NoError(t, err)
		picks = append(picks, picked.ID)
	}

	// c is over the 1.05 ceiling; a and b are within 0.02 of the minimum.
	assert.Equal(t, []string{"a", "b", "a", "b"}, picks)
}

func TestPickSupplierNoEligible(t *testing.T) {
	prices := newFakePrices()
	prices.set("offer-a", 200.0)

	r := newTestRegistry(t, testConfig(
		domain.SupplierConfig{ID: "a", OfferURL: "offer-a", Enabled: true},
		domain.SupplierConfig{ID: "b", OfferURL: "offer-b", Enabled: false},
	), prices)

	_, err := r.PickSupplier(context.Background(), 100)
	assert.ErrorIs(t, err, domain.ErrNoEligibleSuppliers)
	assert.Contains(t, err.Error(), "a=TOO_EXPENSIVE")
	assert.Contains(t, err.Error(), "b=DISABLED")
}

func TestCircuitBreaker(t *testing.T) {
	prices := newFakePrices()
	prices.fail("offer-a", errors.New("offer fetch failed: 502"))

	r := newTestRegistry(t, testConfig(
		domain.SupplierConfig{ID: "a", OfferURL: "offer-a", Enabled: true},
	), prices)

	current := time.Now()
	r.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		_, err := r.PickSupplier(context.Background(), 100)
		assert.ErrorIs(t, err, domain.ErrNoEligibleSuppliers)
	}

	snap := r.Snapshot()
	assert.Equal(t, domain.EligibilityTempDisabled, snap.Suppliers[0].Status)
	assert.Equal(t, 3, snap.Suppliers[0].ErrorCount)
	assert.NotNil(t, snap.Suppliers[0].DisabledUntil)

	// Still inside the cool-down window: the supplier is not even probed.
	before := prices.calls["offer-a"]
	_, err := r.PickSupplier(context.Background(), 100)
	assert.ErrorIs(t, err, domain.ErrNoEligibleSuppliers)
	assert.Equal(t, before, prices.calls["offer-a"])

	// Cool-down elapsed and the next probe succeeds.
	current = current.Add(disableWindow + time.Second)
	prices.set("offer-a", 100.0)

	picked, err := r.PickSupplier(context.Background(), 100)
	assert.NoError(t, err)
	assert.Equal(t, "a", picked.ID)

	snap = r.Snapshot()
	assert.Equal(t, domain.EligibilityOK, snap.Suppliers[0].Status)
	assert.Equal(t, 0, snap.Suppliers[0].ErrorCount)
}

func TestStaleCacheFallback(t *testing.T) {
	prices := newFakePrices()
	prices.set("offer-a", 100.0)

	r := newTestRegistry(t, testConfig(
		domain.SupplierConfig{ID: "a", OfferURL: "offer-a", Enabled: true},
	), prices)

	current := time.Now()
	r.now = func() time.Time { return current }

	picked, err := r.PickSupplier(context.Background(), 100)
	assert.NoError(t, err)
	assert.Equal(t, "a", picked.ID)

	// TTL elapses and the refresh starts failing; the cached price is kept
	// and used as a stale fallback.
	current = current.Add(defaultPriceTTL + time.Second)
	prices.fail("offer-a", errors.New("offer fetch failed: 502"))

	picked, err = r.PickSupplier(context.Background(), 100)
	assert.NoError(t, err)
	assert.Equal(t, "a", picked.ID)
}

func TestForceRefreshClearsBackoff(t *testing.T) {
	prices := newFakePrices()
	prices.fail("offer-a", errors.New("offer fetch failed: 502"))

	r := newTestRegistry(t, testConfig(
		domain.SupplierConfig{ID: "a", OfferURL: "offer-a", Enabled: true},
	), prices)

	_, err := r.PickSupplier(context.Background(), 100)
	assert.ErrorIs(t, err, domain.ErrNoEligibleSuppliers)

	prices.set("offer-a", 100.0)
	assert.NoError(t, r.ForceRefresh(context.Background(), "a", 100))

	snap := r.Snapshot()
	assert.Equal(t, domain.EligibilityOK, snap.Suppliers[0].Status)
	assert.Equal(t, 0, snap.Suppliers[0].ErrorCount)

	assert.ErrorIs(t, r.ForceRefresh(context.Background(), "missing", 100), domain.ErrSupplierNotFound)
}

func TestApplyConfigPreservesRuntimeByID(t *testing.T) {
	prices := newFakePrices()
	prices.set("offer-a", 100.0)
	prices.set("offer-b", 101.0)

	r := newTestRegistry(t, testConfig(
		domain.SupplierConfig{ID: "a", OfferURL: "offer-a", Enabled: true},
		domain.SupplierConfig{ID: "b", OfferURL: "offer-b", Enabled: true},
	), prices)

	_, err := r.PickSupplier(context.Background(), 100)
	assert.NoError(t, err)

	r.ApplyConfig(&domain.PoolConfig{
		MaxConcurrency:  3,
		MaxUnitPriceRub: 1.05,
		Suppliers: []domain.SupplierConfig{
			{ID: "a", OfferURL: "offer-a2", Enabled: true},
			{ID: "c", OfferURL: "offer-c", Enabled: true},
		},
	})

	snap := r.Snapshot()
	assert.Equal(t, 3, snap.MaxConcurrency)
	assert.Len(t, snap.Suppliers, 2)

	byID := make(map[string]domain.SupplierSnapshot)
	for _, s := range snap.Suppliers {
		byID[s.ID] = s
	}
	// a keeps its cached price but follows the new offer URL; c starts cold.
	assert.Equal(t, "offer-a2", byID["a"].OfferURL)
	assert.NotNil(t, byID["a"].UnitPriceRub)
	assert.Equal(t, domain.EligibilityNoPrice, byID["c"].Status)
	_, dropped := byID["b"]
	assert.False(t, dropped)
}

func TestStickyPickPrefersEligiblePreferred(t *testing.T) {
	prices := newFakePrices()
	prices.set("offer-a", 100.0)
	prices.set("offer-b", 90.0)

	r := newTestRegistry(t, testConfig(
		domain.SupplierConfig{ID: "a", OfferURL: "offer-a", Enabled: true},
		domain.SupplierConfig{ID: "b", OfferURL: "offer-b", Enabled: true},
	), prices)

	// a is eligible even though b is cheaper: affinity wins.
	picked, err := r.PickSupplierForOrder(context.Background(), 100, "a")
	assert.NoError(t, err)
	assert.Equal(t, "a", picked.ID)

	// Preferred over the ceiling falls back to the normal pick.
	prices.set("offer-a", 200.0)
	picked, err = r.PickSupplierForOrder(context.Background(), 100, "a")
	assert.NoError(t, err)
	assert.Equal(t, "b", picked.ID)
}

func TestGlobalConcurrencyCap(t *testing.T) {
	prices := newFakePrices()
	suppliers := []domain.SupplierConfig{
		{ID: "s1", OfferURL: "o1", Enabled: true},
		{ID: "s2", OfferURL: "o2", Enabled: true},
		{ID: "s3", OfferURL: "o3", Enabled: true},
		{ID: "s4", OfferURL: "o4", Enabled: true},
		{ID: "s5", OfferURL: "o5", Enabled: true},
	}
	r := newTestRegistry(t, testConfig(suppliers...), prices)

	var active, peak atomic.Int64
	var wg sync.WaitGroup
	for _, s := range suppliers {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.RunOnSupplier(context.Background(), s.ID, "job-"+s.ID, func(context.Context) error {
				cur := active.Add(1)
				for {
					p := peak.Load()
					if cur <= p || peak.CompareAndSwap(p, cur) {
						break
					}
				}
				time.Sleep(30 * time.Millisecond)
				active.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(2))
	assert.GreaterOrEqual(t, peak.Load(), int64(1))
}

func TestRunOnSupplierUnknownID(t *testing.T) {
	r := newTestRegistry(t, testConfig(
		domain.SupplierConfig{ID: "a", OfferURL: "offer-a", Enabled: true},
	), newFakePrices())

	err := r.RunOnSupplier(context.Background(), "ghost", "job", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSupplierNotFound)
}

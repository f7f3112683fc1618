// Package registry owns the in-memory supplier table: cached prices,
// eligibility, the per-supplier FIFO queues and the global purchase
// concurrency cap. Supplier runtime state is mutated only here.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/govalues/decimal"
	"github.com/rbxmart/fulfillment/internal/core/domain"
	"github.com/rbxmart/fulfillment/internal/core/port"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	defaultPriceTTL       = time.Minute
	defaultPriceSpreadRub = 0.02
	defaultSampleQuantity = 100

	errorThreshold = 3
	disableWindow  = 10 * time.Minute

	filterLogInterval = 5 * time.Second
)

type supplier struct {
	id       string
	offerURL string
	enabled  bool
	queue    *serialQueue

	hasPrice      bool
	unitPrice     decimal.Decimal
	requiredRub   decimal.Decimal
	checkedAt     time.Time
	lastError     string
	lastErrorAt   time.Time
	errorCount    int
	disabledUntil time.Time
	skipUntil     time.Time
	noPriceReason string
}

type Registry struct {
	mu sync.Mutex

	maxConcurrency int
	maxUnitPrice   decimal.Decimal
	priceTTL       time.Duration
	priceSpread    decimal.Decimal
	suppliers      []*supplier

	sem       *semaphore.Weighted
	active    atomic.Int64
	rrCounter uint64

	prices          port.PriceLookup
	logger          *zap.Logger
	now             func() time.Time
	lastFilterLogAt time.Time
}

func New(cfg *domain.PoolConfig, prices port.PriceLookup, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		prices: prices,
		logger: logger,
		now:    time.Now,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid supplier config: %w", err)
	}
	r.applyConfigLocked(cfg)
	return r, nil
}

// applyConfigLocked assumes r.mu is held (or the registry is not yet shared).
func (r *Registry) applyConfigLocked(cfg *domain.PoolConfig) {
	maxPrice, err := decimal.NewFromFloat64(cfg.MaxUnitPriceRub)
	if err == nil {
		r.maxUnitPrice = maxPrice
	}
	spreadRub := cfg.PriceSpreadRub
	if spreadRub <= 0 {
		spreadRub = defaultPriceSpreadRub
	}
	if spread, err := decimal.NewFromFloat64(spreadRub); err == nil {
		r.priceSpread = spread
	}
	r.priceTTL = defaultPriceTTL
	if cfg.RefreshPriceMs > 0 {
		r.priceTTL = time.Duration(cfg.RefreshPriceMs) * time.Millisecond
	}
	if cfg.MaxConcurrency != r.maxConcurrency {
		r.maxConcurrency = cfg.MaxConcurrency
		r.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrency))
	}

	existing := make(map[string]*supplier, len(r.suppliers))
	for _, s := range r.suppliers {
		existing[s.id] = s
	}
	next := make([]*supplier, 0, len(cfg.Suppliers))
	for _, sc := range cfg.Suppliers {
		if prev, ok := existing[sc.ID]; ok {
			// Pricing and circuit state survive a reload; the queue does not.
			prev.offerURL = sc.OfferURL
			prev.enabled = sc.Enabled
			prev.queue = newSerialQueue()
			next = append(next, prev)
			continue
		}
		next = append(next, &supplier{
			id:       sc.ID,
			offerURL: sc.OfferURL,
			enabled:  sc.Enabled,
			queue:    newSerialQueue(),
		})
	}
	r.suppliers = next
}

// ApplyConfig hot-reloads limits and the supplier list. Runtime state is kept
// for supplier ids that survive; removed ids are dropped, their queues
// abandoned.
func (r *Registry) ApplyConfig(cfg *domain.PoolConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyConfigLocked(cfg)
	r.logger.Info("supplier config applied",
		zap.Int("maxConcurrency", r.maxConcurrency),
		zap.String("maxUnitPriceRub", r.maxUnitPrice.String()),
		zap.Int("suppliers", len(r.suppliers)))
}

func (r *Registry) findByID(id string) *supplier {
	for _, s := range r.suppliers {
		if s.id == id {
			return s
		}
	}
	return nil
}

// refreshSupplierPrice re-quotes one supplier unless the cache is fresh.
// Network I/O runs outside the registry lock.
func (r *Registry) refreshSupplierPrice(ctx context.Context, s *supplier, quantity int, force bool) {
	r.mu.Lock()
	offerURL := s.offerURL
	ttl := r.priceTTL
	fresh := s.hasPrice && !s.checkedAt.IsZero() && r.now().Sub(s.checkedAt) < ttl
	r.mu.Unlock()

	if !force && fresh {
		return
	}

	total, err := r.prices.TotalPrice(ctx, offerURL, quantity)

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	s.checkedAt = now

	if err == nil {
		qty, qerr := decimal.New(int64(quantity), 0)
		var unit decimal.Decimal
		if qerr == nil {
			unit, qerr = total.Quo(qty)
		}
		if quantity <= 0 || qerr != nil {
			s.hasPrice = false
			s.noPriceReason = "bad quantity for unit price"
			return
		}
		s.hasPrice = true
		s.unitPrice = unit
		s.requiredRub = total
		s.lastError = ""
		s.lastErrorAt = time.Time{}
		s.errorCount = 0
		s.disabledUntil = time.Time{}
		s.skipUntil = time.Time{}
		s.noPriceReason = ""
		return
	}

	if errors.Is(err, domain.ErrPriceNotFound) {
		s.hasPrice = false
		s.noPriceReason = "required total not found"
		return
	}

	r.logger.Warn("supplier price fetch failed",
		zap.String("supplier", s.id),
		zap.String("offerUrl", offerURL),
		zap.Error(err))
	s.lastError = err.Error()
	s.lastErrorAt = now
	s.errorCount++
	if s.errorCount >= errorThreshold {
		s.disabledUntil = now.Add(disableWindow)
	} else {
		s.skipUntil = now.Add(ttl)
	}
}

// PickSupplier refreshes prices where stale and returns the round-robin pick
// among eligible suppliers within the price spread of the cheapest.
func (r *Registry) PickSupplier(ctx context.Context, quantity int) (*port.PickedSupplier, error) {
	r.mu.Lock()
	candidates := make([]*supplier, len(r.suppliers))
	copy(candidates, r.suppliers)
	now := r.now()
	r.mu.Unlock()

	for _, s := range candidates {
		r.mu.Lock()
		skip := !s.enabled || s.disabledUntil.After(now)
		r.mu.Unlock()
		if skip {
			continue
		}
		r.refreshSupplierPrice(ctx, s, quantity, false)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now = r.now()

	eligible := r.eligibleLocked(now, true)
	if len(eligible) == 0 {
		// A stale price beats no purchase at all.
		eligible = r.eligibleLocked(now, false)
	}

	if len(eligible) == 0 {
		r.logFilterStateLocked(now)
		return nil, fmt.Errorf("%w: %s", domain.ErrNoEligibleSuppliers, r.diagnosticsLocked(now))
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].unitPrice.Cmp(eligible[j].unitPrice) < 0
	})
	min := eligible[0].unitPrice
	limit, err := min.Add(r.priceSpread)
	if err != nil {
		limit = min
	}
	// Sorted ascending, so the near-minimum set is a prefix.
	n := 1
	for n < len(eligible) && eligible[n].unitPrice.Cmp(limit) <= 0 {
		n++
	}
	near := eligible[:n]

	idx := int(r.rrCounter % uint64(len(near)))
	r.rrCounter++
	return pickedLocked(near[idx]), nil
}

// PickSupplierForOrder prefers the supplier a resuming order was already
// bound to, falling back to the normal pick when it is no longer eligible.
func (r *Registry) PickSupplierForOrder(ctx context.Context, quantity int, preferredID string) (*port.PickedSupplier, error) {
	if preferredID != "" {
		r.mu.Lock()
		preferred := r.findByID(preferredID)
		r.mu.Unlock()
		if preferred != nil {
			r.refreshSupplierPrice(ctx, preferred, quantity, true)
			r.mu.Lock()
			status, reason := r.filterReasonLocked(preferred, r.now())
			var picked *port.PickedSupplier
			if status == domain.EligibilityOK {
				picked = pickedLocked(preferred)
			}
			r.mu.Unlock()
			if picked != nil {
				return picked, nil
			}
			r.logger.Info("sticky supplier skipped",
				zap.String("supplier", preferredID),
				zap.String("reason", reason))
		}
	}
	return r.PickSupplier(ctx, quantity)
}

// ForceRefresh bypasses the TTL for one supplier (or all enabled ones),
// clearing cached error and backoff state first.
func (r *Registry) ForceRefresh(ctx context.Context, supplierID string, sampleQuantity int) error {
	if sampleQuantity <= 0 {
		sampleQuantity = defaultSampleQuantity
	}

	if supplierID != "" {
		r.mu.Lock()
		s := r.findByID(supplierID)
		if s == nil {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", domain.ErrSupplierNotFound, supplierID)
		}
		invalidateLocked(s)
		r.mu.Unlock()
		r.refreshSupplierPrice(ctx, s, sampleQuantity, true)
		return nil
	}

	r.mu.Lock()
	candidates := make([]*supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		if !s.enabled {
			continue
		}
		invalidateLocked(s)
		candidates = append(candidates, s)
	}
	r.mu.Unlock()

	for _, s := range candidates {
		r.refreshSupplierPrice(ctx, s, sampleQuantity, true)
	}
	return nil
}

// invalidateLocked clears the price cache and soft backoff state. A running
// cool-down window is kept: forcing a refresh is not a circuit reset.
func invalidateLocked(s *supplier) {
	s.hasPrice = false
	s.checkedAt = time.Time{}
	s.requiredRub = decimal.Zero
	s.lastError = ""
	s.lastErrorAt = time.Time{}
	s.noPriceReason = ""
	s.errorCount = 0
	s.skipUntil = time.Time{}
}

// RunOnSupplier executes fn inside the supplier's FIFO queue, holding one
// slot of the global semaphore for the duration.
func (r *Registry) RunOnSupplier(ctx context.Context, supplierID string, jobID string, fn func(context.Context) error) error {
	r.mu.Lock()
	s := r.findByID(supplierID)
	if s == nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrSupplierNotFound, supplierID)
	}
	queue := s.queue
	sem := r.sem
	r.mu.Unlock()

	var err error
	queue.Do(jobID, func() {
		if acquireErr := sem.Acquire(ctx, 1); acquireErr != nil {
			err = acquireErr
			return
		}
		defer sem.Release(1)
		r.active.Add(1)
		defer r.active.Add(-1)
		err = fn(ctx)
	})
	return err
}

func (r *Registry) TotalQueued() int {
	r.mu.Lock()
	queues := make([]*serialQueue, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		queues = append(queues, s.queue)
	}
	r.mu.Unlock()

	total := 0
	for _, q := range queues {
		total += q.Size()
	}
	return total
}

// Snapshot is a point-in-time copy for the admin surface; no lock is held
// across serialization or I/O by the caller.
func (r *Registry) Snapshot() *domain.PoolSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()

	snap := &domain.PoolSnapshot{
		MaxConcurrency:  r.maxConcurrency,
		MaxUnitPriceRub: r.maxUnitPrice,
		RefreshPriceMs:  int(r.priceTTL / time.Millisecond),
		Active:          int(r.active.Load()),
		Suppliers:       make([]domain.SupplierSnapshot, 0, len(r.suppliers)),
	}
	for _, s := range r.suppliers {
		status, reason := r.filterReasonLocked(s, now)
		entry := domain.SupplierSnapshot{
			ID:         s.id,
			Enabled:    s.enabled,
			OfferURL:   s.offerURL,
			LastError:  s.lastError,
			ErrorCount: s.errorCount,
			Status:     status,
			Reason:     reason,
			QueueSize:  s.queue.Size(),
		}
		if s.hasPrice {
			price := s.unitPrice
			required := s.requiredRub
			entry.UnitPriceRub = &price
			entry.RequiredRub = &required
		}
		if !s.checkedAt.IsZero() {
			t := s.checkedAt
			entry.LastCheckedAt = &t
		}
		if s.disabledUntil.After(now) {
			t := s.disabledUntil
			entry.DisabledUntil = &t
		}
		if s.skipUntil.After(now) {
			t := s.skipUntil
			entry.SkipUntil = &t
		}
		snap.Suppliers = append(snap.Suppliers, entry)
	}
	return snap
}

func pickedLocked(s *supplier) *port.PickedSupplier {
	return &port.PickedSupplier{
		ID:           s.id,
		OfferURL:     s.offerURL,
		UnitPriceRub: s.unitPrice,
		RequiredRub:  s.requiredRub,
		QueueSize:    s.queue.Size(),
	}
}

func (r *Registry) eligibleLocked(now time.Time, requireFresh bool) []*supplier {
	eligible := make([]*supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		if !s.enabled {
			continue
		}
		if s.disabledUntil.After(now) {
			continue
		}
		if requireFresh && s.skipUntil.After(now) {
			continue
		}
		if !s.hasPrice {
			continue
		}
		if s.unitPrice.Cmp(r.maxUnitPrice) > 0 {
			continue
		}
		eligible = append(eligible, s)
	}
	return eligible
}

func (r *Registry) filterReasonLocked(s *supplier, now time.Time) (domain.EligibilityStatus, string) {
	if !s.enabled {
		return domain.EligibilityDisabled, "config.enabled=false"
	}
	if s.disabledUntil.After(now) {
		return domain.EligibilityTempDisabled,
			fmt.Sprintf("price fetch failed x%d, until %s", s.errorCount, s.disabledUntil.Format(time.TimeOnly))
	}
	if !s.hasPrice {
		reason := s.noPriceReason
		if reason == "" {
			reason = "required total not found"
		}
		return domain.EligibilityNoPrice, reason
	}
	if s.unitPrice.Cmp(r.maxUnitPrice) > 0 {
		return domain.EligibilityTooExpensive,
			fmt.Sprintf("%s > %s", s.unitPrice.String(), r.maxUnitPrice.String())
	}
	return domain.EligibilityOK, "OK"
}

func (r *Registry) diagnosticsLocked(now time.Time) string {
	parts := make([]string, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		status, reason := r.filterReasonLocked(s, now)
		parts = append(parts, fmt.Sprintf("%s=%s (%s)", s.id, status, reason))
	}
	return strings.Join(parts, "; ")
}

// logFilterStateLocked logs the per-supplier rejection reason, rate limited
// so a stream of failing picks does not flood the log.
func (r *Registry) logFilterStateLocked(now time.Time) {
	if now.Sub(r.lastFilterLogAt) <= filterLogInterval {
		return
	}
	r.lastFilterLogAt = now
	for _, s := range r.suppliers {
		status, reason := r.filterReasonLocked(s, now)
		r.logger.Info("supplier filtered",
			zap.String("supplier", s.id),
			zap.String("status", string(status)),
			zap.String("reason", reason))
	}
}

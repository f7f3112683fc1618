// Package service drives an order from intake to fulfillment: supplier
// selection, purchase execution under the pool's concurrency limits, outcome
// interpretation and buyer/operator notification.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/govalues/decimal"
	"github.com/rbxmart/fulfillment/internal/core/domain"
	"github.com/rbxmart/fulfillment/internal/core/fsm"
	"github.com/rbxmart/fulfillment/internal/core/port"
	"go.uber.org/zap"
)

const (
	codeOrderUnknown      = "STARVELL_ORDER_UNKNOWN"
	codePurchaseFlow      = "PURCHASE_FLOW_ERROR"
	codeNoSuppliers       = "NO_ELIGIBLE_SUPPLIERS"
	codePickFailed        = "SUPPLIER_PICK_FAILED"
	codeInsufficientFunds = "INSUFFICIENT_FUNDS"
	codeFailed            = "FAILED"
)

const (
	noSuppliersTTL        = 2 * time.Hour
	noSuppliersMaxRetries = 6
)

// Retry delays by attempt number, clamped to the last entry.
var noSuppliersRetryDelays = []time.Duration{
	5 * time.Minute,
	7 * time.Minute,
	10 * time.Minute,
	15 * time.Minute,
	20 * time.Minute,
	30 * time.Minute,
}

const (
	msgSendUsername = "Please send your Roblox username (one message)."
	msgSendGamepass = "Please send a link to your gamepass and its numeric id. " +
		"The place must be public and regional pricing disabled."
	msgSendGamepassID   = "Please send the gamepass id (numbers only)."
	msgQueuePosition    = "Request accepted. Orders ahead of you: %d."
	msgOrderInProgress  = "Your order is with the supplier. You will get a message when it is done."
	msgOrderAlreadyDone = "This order is already completed."
	msgOrderDone        = "All done! Please confirm the order manually on the marketplace. Thank you!"
	msgOrderFailed      = "Could not complete the purchase automatically. " +
		"Please resend your username, gamepass link and gamepass id."
	msgNoSuppliersRetry = "No suppliers are available right now. I will retry automatically."
	msgNoSuppliersNow   = "No suppliers are available right now. Please try again later."
	msgRetrying         = "Retrying the purchase. Please wait."
)

type Service struct {
	repo            port.Repository
	pool            port.SupplierPool
	executor        port.PurchaseExecutor
	balance         port.BalanceProvider
	notifier        port.Notifier
	defaultOfferURL string
	logger          *zap.Logger

	activeMu sync.Mutex
	active   map[string]struct{}

	promptMu     sync.Mutex
	lastPromptAt map[string]time.Time

	now func() time.Time
}

func NewService(
	repo port.Repository,
	pool port.SupplierPool,
	executor port.PurchaseExecutor,
	balance port.BalanceProvider,
	notifier port.Notifier,
	defaultOfferURL string,
	logger *zap.Logger,
) (*Service, error) {
	return &Service{
		repo:            repo,
		pool:            pool,
		executor:        executor,
		balance:         balance,
		notifier:        notifier,
		defaultOfferURL: defaultOfferURL,
		logger:          logger,
		active:          make(map[string]struct{}),
		lastPromptAt:    make(map[string]time.Time),
		now:             time.Now,
	}, nil
}

// EnqueuePurchase starts an asynchronous fulfillment attempt. At most one
// attempt per order id is in flight; a second call while the first is
// running is a no-op.
func (s *Service) EnqueuePurchase(orderID string) {
	s.activeMu.Lock()
	if _, inFlight := s.active[orderID]; inFlight {
		s.activeMu.Unlock()
		return
	}
	s.active[orderID] = struct{}{}
	s.activeMu.Unlock()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("purchase flow panic",
					zap.String("orderID", orderID), zap.Any("panic", rec))
				s.markSupplierError(context.Background(), orderID, codePurchaseFlow,
					fmt.Sprintf("panic: %v", rec))
			}
			s.activeMu.Lock()
			delete(s.active, orderID)
			s.activeMu.Unlock()
		}()
		s.purchaseFlow(context.Background(), orderID)
	}()
}

func (s *Service) purchaseFlow(ctx context.Context, orderID string) {
	startedAt := s.now()

	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		s.logger.Warn("purchase flow: order load failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}
	// Defensive re-check: another writer may have moved the order since it
	// was enqueued. An order parked by the no-suppliers policy comes back
	// through the sweeper still in SUPPLIER_PENDING.
	parkedRetry := order.Status == domain.OrderStatusSupplierPending &&
		order.Details.NoSuppliersRetry != nil &&
		order.Details.UpstreamOrderID == ""
	if (order.Status != domain.OrderStatusReadyToBuy && !parkedRetry) || !order.FieldsComplete() {
		return
	}

	details := order.Details
	if details.CreatingUpstream && details.UpstreamOrderID == "" {
		// Crash window between reserving and learning the upstream id.
		// Retrying blindly could pay twice, so a human decides.
		s.markSupplierError(ctx, orderID, codeOrderUnknown,
			"upstream order creation was in progress before restart, manual check required")
		return
	}

	picked, err := s.pool.PickSupplierForOrder(ctx, order.AmountRobux, details.SupplierID)
	if err != nil {
		if errors.Is(err, domain.ErrNoEligibleSuppliers) {
			s.handleNoSuppliers(ctx, orderID, err.Error())
			return
		}
		s.markSupplierError(ctx, orderID, codePickFailed, err.Error())
		s.notifyBuyer(ctx, order.ChatID, msgNoSuppliersNow)
		return
	}

	if details.NoSuppliersRetry != nil && details.NoSuppliersRetry.Count > 0 {
		s.logger.Info("suppliers recovered",
			zap.String("orderID", orderID),
			zap.Int("attempt", details.NoSuppliersRetry.Count),
			zap.String("supplier", picked.ID))
	}

	if avail, balErr := s.balance.AvailableBalance(ctx); balErr != nil {
		s.logger.Warn("balance check failed", zap.String("orderID", orderID), zap.Error(balErr))
	} else if avail.Cmp(picked.RequiredRub) < 0 {
		s.moveToTopup(ctx, orderID, picked.RequiredRub, avail)
		return
	}

	unitPrice := picked.UnitPriceRub
	order.Details.NoSuppliersRetry = nil
	order.Details.SupplierID = picked.ID
	order.Details.SupplierOfferURL = picked.OfferURL
	order.Details.UnitPriceRub = &unitPrice
	order.LastErrorCode = ""
	order.LastErrorMessage = ""
	if details.UpstreamOrderID == "" {
		now := s.now()
		order.Details.CreatingUpstream = true
		order.Details.CreatingStartedAt = &now
	}
	s.setStatus(order, domain.OrderStatusSupplierPending)
	if _, err := s.repo.UpdateOrder(ctx, order); err != nil {
		s.logger.Error("purchase flow: reserve update failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}

	s.logger.Info("purchase flow started",
		zap.String("orderID", orderID),
		zap.String("supplier", picked.ID),
		zap.String("upstreamOrderID", details.UpstreamOrderID))
	s.notifyBuyer(ctx, order.ChatID, fmt.Sprintf(msgQueuePosition, picked.QueueSize))

	var result *port.ExecuteResult
	err = s.pool.RunOnSupplier(ctx, picked.ID, orderID, func(ctx context.Context) error {
		res, execErr := s.executor.Execute(ctx, port.ExecuteRequest{
			OfferURL:          picked.OfferURL,
			Quantity:          order.AmountRobux,
			BuyerUsername:     order.RobloxUsername,
			GamepassURL:       order.GamepassURL,
			GamepassID:        order.GamepassID,
			ExistingOrderID:   details.UpstreamOrderID,
			LastSeenMessageID: details.LastSeenMessageID,
			Progress: func(state port.ExecuteState) {
				s.recordProgress(ctx, orderID, state)
			},
		})
		if execErr != nil {
			return execErr
		}
		result = res
		return nil
	})
	if err != nil {
		s.logger.Error("purchase flow crashed",
			zap.String("orderID", orderID), zap.Error(err))
		s.markSupplierError(ctx, orderID, codePurchaseFlow, err.Error())
		return
	}

	if result.UpstreamOrderID != "" && result.UpstreamOrderID != details.UpstreamOrderID {
		s.recordProgress(ctx, orderID, port.ExecuteState{
			UpstreamOrderID:   result.UpstreamOrderID,
			LastSeenMessageID: result.LastSeenMessageID,
		})
	}

	switch result.Status {
	case port.ExecuteStatusSellerDone:
		s.markDone(ctx, orderID)
		s.logger.Info("purchase flow done",
			zap.String("orderID", orderID),
			zap.String("upstreamOrderID", result.UpstreamOrderID),
			zap.Duration("elapsed", s.now().Sub(startedAt)))
	case port.ExecuteStatusTimeout, port.ExecuteStatusCanceled, port.ExecuteStatusRefunded:
		s.failOrder(ctx, orderID, fmt.Sprintf("supplier %s", result.Status))
		s.logger.Warn("purchase flow failed",
			zap.String("orderID", orderID),
			zap.String("upstreamOrderID", result.UpstreamOrderID),
			zap.String("reason", string(result.Status)))
	default:
		// Not terminal yet: the upstream chat monitor finishes the order.
		s.logger.Info("purchase flow pending",
			zap.String("orderID", orderID),
			zap.String("upstreamOrderID", result.UpstreamOrderID),
			zap.String("status", string(result.Status)))
	}
}

// recordProgress persists executor progress so a restart resumes instead of
// re-buying.
func (s *Service) recordProgress(ctx context.Context, orderID string, state port.ExecuteState) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		s.logger.Warn("progress: order load failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}
	if state.UpstreamOrderID != "" {
		order.Details.UpstreamOrderID = state.UpstreamOrderID
		order.Details.CreatingUpstream = false
	}
	if state.LastSeenMessageID != "" {
		order.Details.LastSeenMessageID = state.LastSeenMessageID
	}
	if _, err := s.repo.UpdateOrder(ctx, order); err != nil {
		s.logger.Warn("progress: order update failed",
			zap.String("orderID", orderID), zap.Error(err))
	}
}

func (s *Service) markDone(ctx context.Context, orderID string) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("mark done: order load failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}
	upstreamID := order.Details.UpstreamOrderID
	s.setStatus(order, domain.OrderStatusDone)
	order.Details = domain.OrderDetails{}
	order.LastErrorCode = ""
	order.LastErrorMessage = ""
	if _, err := s.repo.UpdateOrder(ctx, order); err != nil {
		s.logger.Error("mark done: order update failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}
	s.logger.Info("order done",
		zap.String("dealID", order.DealID),
		zap.String("upstreamOrderID", upstreamID))
	s.notifyBuyer(ctx, order.ChatID, msgOrderDone)
}

func (s *Service) failOrder(ctx context.Context, orderID string, reason string) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("fail order: order load failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}
	order.Details.CreatingUpstream = false
	s.setStatus(order, domain.OrderStatusFailed)
	order.LastErrorCode = codeFailed
	order.LastErrorMessage = reason
	if _, err := s.repo.UpdateOrder(ctx, order); err != nil {
		s.logger.Error("fail order: order update failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}
	s.notifyBuyer(ctx, order.ChatID, msgOrderFailed)
}

func (s *Service) markSupplierError(ctx context.Context, orderID string, code string, message string) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("supplier error: order load failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}
	order.Details.CreatingUpstream = false
	s.setStatus(order, domain.OrderStatusSupplierError)
	order.LastErrorCode = code
	order.LastErrorMessage = message
	order.RetryCount++
	if _, err := s.repo.UpdateOrder(ctx, order); err != nil {
		s.logger.Error("supplier error: order update failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}
	s.notifyOperator(ctx, fmt.Sprintf("supplier error: %s (order %s, code %s)", message, orderID, code))
}

// handleNoSuppliers schedules a bounded retry. The sweeper re-enqueues the
// order once NextRetryAt elapses; there is no in-memory timer to lose on
// restart.
func (s *Service) handleNoSuppliers(ctx context.Context, orderID string, message string) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("no suppliers: order load failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}

	now := s.now()
	prev := order.Details.NoSuppliersRetry
	if prev != nil && prev.NextRetryAt.After(now) {
		// A retry is already scheduled.
		return
	}

	firstAt := now
	count := 1
	if prev != nil {
		if !prev.FirstAt.IsZero() {
			firstAt = prev.FirstAt
		}
		count = prev.Count + 1
	}
	idx := count - 1
	if idx >= len(noSuppliersRetryDelays) {
		idx = len(noSuppliersRetryDelays) - 1
	}
	nextRetryAt := now.Add(noSuppliersRetryDelays[idx])

	order.Details.NoSuppliersRetry = &domain.RetryState{
		Count:       count,
		NextRetryAt: nextRetryAt,
		FirstAt:     firstAt,
	}
	s.setStatus(order, domain.OrderStatusSupplierPending)
	order.LastErrorCode = codeNoSuppliers
	order.LastErrorMessage = message
	if _, err := s.repo.UpdateOrder(ctx, order); err != nil {
		s.logger.Error("no suppliers: order update failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}

	if count == 1 {
		s.notifyBuyer(ctx, order.ChatID, msgNoSuppliersRetry)
	}

	if now.Sub(firstAt) > noSuppliersTTL || count > noSuppliersMaxRetries {
		s.failOrder(ctx, orderID, "no eligible suppliers, giving up")
		return
	}

	s.logger.Info("no suppliers, retry scheduled",
		zap.String("orderID", orderID),
		zap.Int("attempt", count),
		zap.Time("nextRetryAt", nextRetryAt))
}

func (s *Service) moveToTopup(ctx context.Context, orderID string, required, available decimal.Decimal) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("topup: order load failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}
	s.setStatus(order, domain.OrderStatusWaitTopup)
	order.LastErrorCode = codeInsufficientFunds
	order.LastErrorMessage = fmt.Sprintf("required %s, available %s", required, available)
	if _, err := s.repo.UpdateOrder(ctx, order); err != nil {
		s.logger.Error("topup: order update failed",
			zap.String("orderID", orderID), zap.Error(err))
		return
	}
	s.notifyOperator(ctx, fmt.Sprintf(
		"top-up required: order %s needs %s, available %s", orderID, required, available))
}

// ListOrders returns orders filtered by status; with no filter, all orders.
func (s *Service) ListOrders(ctx context.Context, statuses ...domain.OrderStatus) ([]*domain.Order, error) {
	return s.repo.ListOrdersByStatus(ctx, statuses...)
}

// ResetOrder clears retry bookkeeping and error fields, forces the order back
// to READY_TO_BUY and re-enqueues it. Completed orders are refused.
func (s *Service) ResetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderStatusDone {
		return nil, domain.ErrOrderTerminal
	}
	order.Details.NoSuppliersRetry = nil
	order.LastErrorCode = ""
	order.LastErrorMessage = ""
	order.RetryCount++
	s.setStatus(order, domain.OrderStatusReadyToBuy)
	updated, err := s.repo.UpdateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	s.EnqueuePurchase(order.ID)
	return updated, nil
}

// SetQuote stores the operator's quoted cost and routes the order by the
// available balance: enough funds re-enqueues it, a shortfall parks it in
// WAIT_TOPUP.
func (s *Service) SetQuote(ctx context.Context, orderID string, costRub decimal.Decimal) (*domain.Order, error) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	cost := costRub
	order.Details.QuotedCostRub = &cost

	avail, balErr := s.balance.AvailableBalance(ctx)
	if balErr != nil {
		s.logger.Warn("quote balance check failed",
			zap.String("orderID", orderID), zap.Error(balErr))
		return s.repo.UpdateOrder(ctx, order)
	}

	if avail.Cmp(costRub) >= 0 {
		order.Details.NoSuppliersRetry = nil
		order.LastErrorCode = ""
		order.LastErrorMessage = ""
		s.setStatus(order, domain.OrderStatusReadyToBuy)
		updated, err := s.repo.UpdateOrder(ctx, order)
		if err != nil {
			return nil, err
		}
		s.EnqueuePurchase(order.ID)
		return updated, nil
	}

	s.setStatus(order, domain.OrderStatusWaitTopup)
	order.LastErrorCode = codeInsufficientFunds
	order.LastErrorMessage = fmt.Sprintf("quoted %s, available %s", costRub, avail)
	updated, err := s.repo.UpdateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	s.notifyOperator(ctx, fmt.Sprintf(
		"top-up required: order %s quoted %s, available %s", orderID, costRub, avail))
	return updated, nil
}

func (s *Service) SupplierSnapshot() *domain.PoolSnapshot {
	return s.pool.Snapshot()
}

func (s *Service) ForceRefreshSuppliers(ctx context.Context, supplierID string, sampleQuantity int) error {
	return s.pool.ForceRefresh(ctx, supplierID, sampleQuantity)
}

func (s *Service) SupplierSettings(ctx context.Context) (*domain.PoolConfig, error) {
	return s.repo.LoadSupplierSettings(ctx)
}

func (s *Service) UpdateSupplierSettings(ctx context.Context, cfg *domain.PoolConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrBadRequest, err)
	}
	if err := s.repo.SaveSupplierSettings(ctx, cfg); err != nil {
		return err
	}
	s.pool.ApplyConfig(cfg)
	return nil
}

// setStatus validates the transition against the FSM. An illegal edge is a
// programming error: it is flagged loudly but the write still happens so an
// operator can recover a wedged order.
func (s *Service) setStatus(order *domain.Order, to domain.OrderStatus) {
	if order.Status == to {
		return
	}
	if !fsm.CanTransition(order.Status, to) {
		s.logger.Error("illegal status transition",
			zap.String("dealID", order.DealID),
			zap.String("from", string(order.Status)),
			zap.String("to", string(to)))
	} else {
		s.logger.Info("order status",
			zap.String("dealID", order.DealID),
			zap.String("from", string(order.Status)),
			zap.String("to", string(to)))
	}
	order.Status = to
}

func (s *Service) notifyBuyer(ctx context.Context, chatID string, text string) {
	if err := s.notifier.NotifyBuyer(ctx, chatID, text); err != nil {
		s.logger.Warn("buyer notify failed", zap.String("chatID", chatID), zap.Error(err))
	}
}

func (s *Service) notifyOperator(ctx context.Context, text string) {
	if err := s.notifier.NotifyOperator(ctx, text); err != nil {
		s.logger.Warn("operator notify failed", zap.Error(err))
	}
}

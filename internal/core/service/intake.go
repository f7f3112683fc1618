package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rbxmart/fulfillment/internal/core/domain"
	"github.com/rbxmart/fulfillment/internal/core/port"
	"go.uber.org/zap"
)

// Re-prompting the buyer more often than this is just noise.
const promptDebounce = 7 * time.Second

var (
	usernameRe   = regexp.MustCompile(`^\S{3,20}$`)
	nickLabelRe  = regexp.MustCompile(`(?i)nick\s*[:\-]\s*@?(\S{3,20})`)
	urlRe        = regexp.MustCompile(`https?://\S+`)
	gamepassIDRe = regexp.MustCompile(`(?i)\b(?:id|gamepass|game\s*pass)\s*[:#-]?\s*(\d{4,20})\b`)
	digitsRe     = regexp.MustCompile(`\b\d{4,20}\b`)
	passPathRe   = regexp.MustCompile(`(?i)(?:passes|game-pass)/(\d{4,20})`)
)

// HandleDealEvent creates an order for a freshly paid deal and starts
// collecting the buyer fields it still lacks. A second event for the same
// deal id is ignored.
func (s *Service) HandleDealEvent(ctx context.Context, ev port.DealEvent) error {
	if ev.DealID == "" || ev.ChatID == "" {
		return fmt.Errorf("%w: deal id and chat id are required", domain.ErrBadRequest)
	}
	if ev.AmountRobux <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrBadRequest)
	}

	if existing, err := s.repo.ReadOrderByDealID(ctx, ev.DealID); err == nil && existing != nil {
		s.logger.Info("deal event duplicate", zap.String("dealID", ev.DealID))
		return nil
	}

	offerURL := ev.OfferURL
	if offerURL == "" {
		offerURL = s.defaultOfferURL
	}

	order := &domain.Order{
		ID:          uuid.NewString(),
		DealID:      ev.DealID,
		ChatID:      ev.ChatID,
		AmountRobux: ev.AmountRobux,
		OfferURL:    offerURL,
		Status:      domain.OrderStatusPaidReceived,
	}
	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		if err == domain.ErrConflictingData {
			return nil
		}
		return err
	}

	s.logger.Info("deal accepted",
		zap.String("dealID", ev.DealID),
		zap.String("orderID", created.ID),
		zap.Int("amountRobux", ev.AmountRobux),
		zap.String("itemName", ev.ItemName))

	s.advanceIntake(ctx, created)
	return nil
}

// HandleMessageEvent feeds a buyer message into the field-collection flow for
// the chat's order.
func (s *Service) HandleMessageEvent(ctx context.Context, ev port.MessageEvent) error {
	if !ev.FromBuyer {
		return nil
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return nil
	}

	var order *domain.Order
	var err error
	if ev.DealID != "" {
		order, err = s.repo.ReadOrderByDealID(ctx, ev.DealID)
	}
	if order == nil {
		order, err = s.repo.LatestOrderByChat(ctx, ev.ChatID)
	}
	if err != nil || order == nil {
		return nil
	}

	switch order.Status {
	case domain.OrderStatusSupplierPending, domain.OrderStatusReadyToBuy:
		s.promptDebounced(ctx, order, msgOrderInProgress)
		return nil
	case domain.OrderStatusDone:
		s.promptDebounced(ctx, order, msgOrderAlreadyDone)
		return nil
	}

	wasFailed := order.Status == domain.OrderStatusFailed

	updated := s.fillFields(order, text)
	if !updated {
		// After a failure the buyer is asked to resend their data; resending
		// the same values carries no new fields, but it is still the signal
		// to try again.
		if wasFailed && order.FieldsComplete() {
			s.retryFailed(ctx, order)
			return nil
		}
		s.repromptMissing(ctx, order)
		return nil
	}

	if order.Status == domain.OrderStatusSupplierError {
		// Corrected fields are kept for the operator, but a supplier error
		// needs an explicit reset to run again.
		_, err := s.repo.UpdateOrder(ctx, order)
		return err
	}

	if wasFailed && order.FieldsComplete() {
		order.Details.NoSuppliersRetry = nil
		order.LastErrorCode = ""
		order.LastErrorMessage = ""
		order.RetryCount++
		s.notifyBuyer(ctx, order.ChatID, msgRetrying)
	}

	if _, err := s.repo.UpdateOrder(ctx, order); err != nil {
		return err
	}
	s.advanceIntake(ctx, order)
	return nil
}

// retryFailed restarts a failed order whose buyer fields are already complete.
func (s *Service) retryFailed(ctx context.Context, order *domain.Order) {
	order.Details.NoSuppliersRetry = nil
	order.LastErrorCode = ""
	order.LastErrorMessage = ""
	order.RetryCount++
	s.setStatus(order, domain.OrderStatusReadyToBuy)
	if _, err := s.repo.UpdateOrder(ctx, order); err != nil {
		s.logger.Error("intake: order update failed",
			zap.String("orderID", order.ID), zap.Error(err))
		return
	}
	s.notifyBuyer(ctx, order.ChatID, msgRetrying)
	s.EnqueuePurchase(order.ID)
}

// fillFields extracts whatever buyer fields the message carries and reports
// whether anything changed.
func (s *Service) fillFields(order *domain.Order, text string) bool {
	updated := false

	if order.RobloxUsername == "" {
		if name := extractUsername(text); name != "" {
			order.RobloxUsername = name
			updated = true
		}
	}
	if order.GamepassURL == "" {
		if u := urlRe.FindString(text); u != "" {
			order.GamepassURL = strings.TrimRight(u, ".,!?)")
			updated = true
		}
	}
	if order.GamepassID == "" {
		if id := extractGamepassID(text); id != "" {
			order.GamepassID = id
			updated = true
		}
	}
	return updated
}

func extractUsername(text string) string {
	if m := nickLabelRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	candidate := strings.TrimPrefix(strings.TrimSpace(text), "@")
	if usernameRe.MatchString(candidate) && !urlRe.MatchString(candidate) {
		return candidate
	}
	return ""
}

// extractGamepassID prefers the id inside the gamepass URL, then a labeled id
// anywhere in the text. Loose digit runs are accepted only when the message
// carries no URL, so a place link does not get mistaken for an id.
func extractGamepassID(text string) string {
	if m := passPathRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := gamepassIDRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if urlRe.MatchString(text) {
		return ""
	}
	return digitsRe.FindString(text)
}

// advanceIntake moves the order to the next collection status (or to
// READY_TO_BUY) and prompts the buyer for the first missing field.
func (s *Service) advanceIntake(ctx context.Context, order *domain.Order) {
	var next domain.OrderStatus
	var prompt string
	switch {
	case order.RobloxUsername == "":
		next, prompt = domain.OrderStatusWaitUsername, msgSendUsername
	case order.GamepassURL == "":
		next, prompt = domain.OrderStatusWaitGamepassURL, msgSendGamepass
	case order.GamepassID == "":
		next, prompt = domain.OrderStatusWaitGamepassID, msgSendGamepassID
	default:
		next = domain.OrderStatusReadyToBuy
	}

	if order.Status != next {
		s.setStatus(order, next)
		if _, err := s.repo.UpdateOrder(ctx, order); err != nil {
			s.logger.Error("intake: order update failed",
				zap.String("orderID", order.ID), zap.Error(err))
			return
		}
	}

	if next == domain.OrderStatusReadyToBuy {
		s.notifyBuyer(ctx, order.ChatID,
			fmt.Sprintf(msgQueuePosition, s.pool.TotalQueued()))
		s.EnqueuePurchase(order.ID)
		return
	}
	s.promptDebounced(ctx, order, prompt)
}

func (s *Service) repromptMissing(ctx context.Context, order *domain.Order) {
	switch {
	case order.RobloxUsername == "":
		s.promptDebounced(ctx, order, msgSendUsername)
	case order.GamepassURL == "":
		s.promptDebounced(ctx, order, msgSendGamepass)
	case order.GamepassID == "":
		s.promptDebounced(ctx, order, msgSendGamepassID)
	}
}

func (s *Service) promptDebounced(ctx context.Context, order *domain.Order, text string) {
	now := s.now()
	key := order.ChatID + "|" + text

	s.promptMu.Lock()
	last, seen := s.lastPromptAt[key]
	if seen && now.Sub(last) < promptDebounce {
		s.promptMu.Unlock()
		return
	}
	s.lastPromptAt[key] = now
	s.promptMu.Unlock()

	s.notifyBuyer(ctx, order.ChatID, text)
}

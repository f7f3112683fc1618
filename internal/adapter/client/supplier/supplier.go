// Package supplier is the HTTP client for the supplier automation service.
// It drives one purchase to a terminal outcome: create (or resume) the
// upstream order, then poll its status until completion or the overall
// purchase timeout.
package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rbxmart/fulfillment/internal/adapter/config"
	"github.com/rbxmart/fulfillment/internal/core/port"
	"go.uber.org/zap"
)

const statusPollInterval = 5 * time.Second

type SupplierClient struct {
	logger          *zap.Logger
	host            string
	client          *http.Client
	purchaseTimeout time.Duration
}

func NewSupplierClient(cfg *config.Supplier, log *zap.Logger) (*SupplierClient, error) {
	return &SupplierClient{
		host:            cfg.HostString,
		logger:          log,
		client:          http.DefaultClient,
		purchaseTimeout: cfg.PurchaseTimeout,
	}, nil
}

type purchaseRequest struct {
	OfferURL          string `json:"offer_url"`
	Quantity          int    `json:"quantity"`
	BuyerUsername     string `json:"buyer_username"`
	GamepassURL       string `json:"gamepass_url"`
	GamepassID        string `json:"gamepass_id"`
	ExistingOrderID   string `json:"existing_order_id,omitempty"`
	LastSeenMessageID string `json:"last_seen_message_id,omitempty"`
}

type purchaseResponse struct {
	SupplierOrderID   string `json:"supplier_order_id"`
	LastSeenMessageID string `json:"last_seen_message_id"`
}

type statusResponse struct {
	Status            string `json:"status"`
	LastSeenMessageID string `json:"last_seen_message_id"`
}

// Execute creates the upstream order (unless req carries one to resume) and
// polls it until a terminal status or the purchase timeout. A timeout is a
// result, not an error.
func (c *SupplierClient) Execute(ctx context.Context, req port.ExecuteRequest) (*port.ExecuteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.purchaseTimeout)
	defer cancel()

	orderID := req.ExistingOrderID
	lastSeen := req.LastSeenMessageID

	if orderID == "" {
		created, err := c.createOrder(ctx, req)
		if err != nil {
			return nil, err
		}
		orderID = created.SupplierOrderID
		if created.LastSeenMessageID != "" {
			lastSeen = created.LastSeenMessageID
		}
		c.logger.Info("upstream order created",
			zap.String("supplierOrderID", orderID))
		if req.Progress != nil {
			req.Progress(port.ExecuteState{UpstreamOrderID: orderID, LastSeenMessageID: lastSeen})
		}
	}

	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &port.ExecuteResult{
				UpstreamOrderID:   orderID,
				Status:            port.ExecuteStatusTimeout,
				LastSeenMessageID: lastSeen,
			}, nil
		case <-ticker.C:
			status, err := c.readStatus(ctx, orderID)
			if err != nil {
				if ctx.Err() != nil {
					return &port.ExecuteResult{
						UpstreamOrderID:   orderID,
						Status:            port.ExecuteStatusTimeout,
						LastSeenMessageID: lastSeen,
					}, nil
				}
				// Transient poll failure, try again on the next tick.
				c.logger.Warn("status poll failed",
					zap.String("supplierOrderID", orderID), zap.Error(err))
				continue
			}

			if status.LastSeenMessageID != "" && status.LastSeenMessageID != lastSeen {
				lastSeen = status.LastSeenMessageID
				if req.Progress != nil {
					req.Progress(port.ExecuteState{UpstreamOrderID: orderID, LastSeenMessageID: lastSeen})
				}
			}

			switch port.ExecuteStatus(status.Status) {
			case port.ExecuteStatusSellerDone, port.ExecuteStatusCanceled, port.ExecuteStatusRefunded:
				return &port.ExecuteResult{
					UpstreamOrderID:   orderID,
					Status:            port.ExecuteStatus(status.Status),
					LastSeenMessageID: lastSeen,
				}, nil
			}
		}
	}
}

func (c *SupplierClient) createOrder(ctx context.Context, req port.ExecuteRequest) (*purchaseResponse, error) {
	requestStr := "http://" + c.host + "/api/purchase"

	body, err := json.Marshal(purchaseRequest{
		OfferURL:          req.OfferURL,
		Quantity:          req.Quantity,
		BuyerUsername:     req.BuyerUsername,
		GamepassURL:       req.GamepassURL,
		GamepassID:        req.GamepassID,
		LastSeenMessageID: req.LastSeenMessageID,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, requestStr, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error on %s : %w", requestStr, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request error %s : %w", requestStr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("bad response %v for request %s", resp.StatusCode, requestStr)
	}

	var result purchaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error on response decode: %w", err)
	}
	if result.SupplierOrderID == "" {
		return nil, fmt.Errorf("purchase response without supplier order id")
	}
	return &result, nil
}

func (c *SupplierClient) readStatus(ctx context.Context, orderID string) (*statusResponse, error) {
	requestStr := "http://" + c.host + "/api/status/" + orderID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestStr, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("error on %s : %w", requestStr, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error %s : %w", requestStr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad response %v for request %s", resp.StatusCode, requestStr)
	}

	var result statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error on response decode: %w", err)
	}
	return &result, nil
}

// Package pricing is the HTTP client for the pricing service: offer price
// quotes and the purchase wallet balance.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/govalues/decimal"
	"github.com/rbxmart/fulfillment/internal/adapter/config"
	"github.com/rbxmart/fulfillment/internal/core/domain"
	"go.uber.org/zap"
)

type PricingClient struct {
	logger *zap.Logger
	host   string
	client *http.Client
}

func NewPricingClient(cfg *config.Pricing, log *zap.Logger) (*PricingClient, error) {
	return &PricingClient{
		host:   cfg.HostString,
		logger: log,
		client: http.DefaultClient,
	}, nil
}

type priceResponse struct {
	TotalRub float64 `json:"total_rub"`
}

type balanceResponse struct {
	AvailableRub float64 `json:"available_rub"`
}

// TotalPrice quotes the total cost of quantity units on one offer.
func (c *PricingClient) TotalPrice(ctx context.Context, offerURL string, quantity int) (decimal.Decimal, error) {
	requestStr := "http://" + c.host + "/api/offers/price?" + url.Values{
		"offer_url": {offerURL},
		"quantity":  {strconv.Itoa(quantity)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestStr, http.NoBody)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error on %s : %w", requestStr, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("request error %s : %w", requestStr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return decimal.Zero, domain.ErrPriceNotFound
	default:
		c.logger.Error("unexpected status for price request",
			zap.String("offerURL", offerURL), zap.Int("status", resp.StatusCode))
		return decimal.Zero, fmt.Errorf("bad response %v for request %s", resp.StatusCode, requestStr)
	}

	var result priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return decimal.Zero, fmt.Errorf("error on response decode: %w", err)
	}
	total, err := decimal.NewFromFloat64(result.TotalRub)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error on response decode: %w", err)
	}
	return total, nil
}

// AvailableBalance reports the funds currently available for purchases.
func (c *PricingClient) AvailableBalance(ctx context.Context) (decimal.Decimal, error) {
	requestStr := "http://" + c.host + "/api/wallet/balance"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestStr, http.NoBody)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error on %s : %w", requestStr, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("request error %s : %w", requestStr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("bad response %v for request %s", resp.StatusCode, requestStr)
	}

	var result balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return decimal.Zero, fmt.Errorf("error on response decode: %w", err)
	}
	avail, err := decimal.NewFromFloat64(result.AvailableRub)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error on response decode: %w", err)
	}
	return avail, nil
}

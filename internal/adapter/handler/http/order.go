package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"github.com/rbxmart/fulfillment/internal/core/domain"
	"github.com/rbxmart/fulfillment/internal/core/port"
	"go.uber.org/zap"
)

type OrderHandler struct {
	Handler
	service port.Service
}

func NewOrderHandler(service port.Service, logger *zap.Logger) (*OrderHandler, error) {
	return &OrderHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type OrderResp struct {
	ID               string              `json:"id"`
	DealID           string              `json:"dealId"`
	ChatID           string              `json:"chatId"`
	AmountRobux      int                 `json:"amountRobux"`
	Status           string              `json:"status"`
	RobloxUsername   string              `json:"robloxUsername,omitempty"`
	GamepassURL      string              `json:"gamepassUrl,omitempty"`
	GamepassID       string              `json:"gamepassId,omitempty"`
	Details          domain.OrderDetails `json:"details"`
	LastErrorCode    string              `json:"lastErrorCode,omitempty"`
	LastErrorMessage string              `json:"lastErrorMessage,omitempty"`
	RetryCount       int                 `json:"retryCount"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

func orderResp(o *domain.Order) OrderResp {
	return OrderResp{
		ID:               o.ID,
		DealID:           o.DealID,
		ChatID:           o.ChatID,
		AmountRobux:      o.AmountRobux,
		Status:           string(o.Status),
		RobloxUsername:   o.RobloxUsername,
		GamepassURL:      o.GamepassURL,
		GamepassID:       o.GamepassID,
		Details:          o.Details,
		LastErrorCode:    o.LastErrorCode,
		LastErrorMessage: o.LastErrorMessage,
		RetryCount:       o.RetryCount,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// ListOrders godoc
//
//	@Summary	List orders, optionally filtered by status
//	@Param		status	query	string	false	"repeatable status filter"
//	@Success	200	{array}	OrderResp
//	@Router		/api/admin/orders [get]
func (oh *OrderHandler) ListOrders(ctx *gin.Context) {
	var statuses []domain.OrderStatus
	for _, s := range ctx.QueryArray("status") {
		statuses = append(statuses, domain.OrderStatus(s))
	}

	list, err := oh.service.ListOrders(ctx, statuses...)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	result := make([]OrderResp, 0, len(list))
	for _, o := range list {
		result = append(result, orderResp(o))
	}
	oh.handleSuccess(ctx, result)
}

// ResetOrder godoc
//
//	@Summary	Clear error state and re-enqueue an order
//	@Param		id	path	string	true	"order id"
//	@Success	200	{object}	OrderResp
//	@Failure	404
//	@Failure	409	"order is completed"
//	@Router		/api/admin/orders/{id}/reset [post]
func (oh *OrderHandler) ResetOrder(ctx *gin.Context) {
	order, err := oh.service.ResetOrder(ctx, ctx.Param("id"))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, orderResp(order))
}

type quoteRequest struct {
	CostRub float64 `json:"costRub" binding:"required"`
}

// SetQuote godoc
//
//	@Summary	Record the quoted cost for an order and route it by balance
//	@Accept		json
//	@Success	200	{object}	OrderResp
//	@Failure	400
//	@Failure	404
//	@Router		/api/admin/orders/{id}/quote [post]
func (oh *OrderHandler) SetQuote(ctx *gin.Context) {
	var req quoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	cost, err := decimal.NewFromFloat64(req.CostRub)
	if err != nil || cost.Sign() <= 0 {
		oh.handleValidationError(ctx, domain.ErrBadRequest)
		return
	}

	order, err := oh.service.SetQuote(ctx, ctx.Param("id"), cost)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, orderResp(order))
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rbxmart/fulfillment/internal/core/port"
	"go.uber.org/zap"
)

// EventsHandler receives intake events from the buyer-facing platform
// integration: paid deals and buyer chat messages.
type EventsHandler struct {
	Handler
	service port.Service
}

func NewEventsHandler(service port.Service, logger *zap.Logger) (*EventsHandler, error) {
	return &EventsHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type dealEventRequest struct {
	DealID      string `json:"dealId" binding:"required"`
	ChatID      string `json:"chatId" binding:"required"`
	AmountRobux int    `json:"amountRobux" binding:"required"`
	OfferURL    string `json:"offerUrl"`
	ProductID   string `json:"productId"`
	ItemName    string `json:"itemName"`
}

// DealEvent godoc
//
//	@Summary	Accept a paid deal and open an order for it
//	@Accept		json
//	@Success	202
//	@Failure	400
//	@Router		/api/events/deal [post]
func (eh *EventsHandler) DealEvent(ctx *gin.Context) {
	var req dealEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		eh.handleValidationError(ctx, err)
		return
	}

	err := eh.service.HandleDealEvent(ctx, port.DealEvent{
		DealID:      req.DealID,
		ChatID:      req.ChatID,
		AmountRobux: req.AmountRobux,
		OfferURL:    req.OfferURL,
		ProductID:   req.ProductID,
		ItemName:    req.ItemName,
	})
	if err != nil {
		eh.handleError(ctx, err)
		return
	}

	eh.handleSuccessWithStatus(ctx, nil, http.StatusAccepted)
}

type messageEventRequest struct {
	DealID    string `json:"dealId"`
	ChatID    string `json:"chatId" binding:"required"`
	Text      string `json:"text" binding:"required"`
	FromBuyer bool   `json:"fromBuyer"`
}

// MessageEvent godoc
//
//	@Summary	Feed a buyer chat message into the order intake flow
//	@Accept		json
//	@Success	202
//	@Failure	400
//	@Router		/api/events/message [post]
func (eh *EventsHandler) MessageEvent(ctx *gin.Context) {
	var req messageEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		eh.handleValidationError(ctx, err)
		return
	}

	err := eh.service.HandleMessageEvent(ctx, port.MessageEvent{
		DealID:    req.DealID,
		ChatID:    req.ChatID,
		Text:      req.Text,
		FromBuyer: req.FromBuyer,
	})
	if err != nil {
		eh.handleError(ctx, err)
		return
	}

	eh.handleSuccessWithStatus(ctx, nil, http.StatusAccepted)
}

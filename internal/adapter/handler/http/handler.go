package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rbxmart/fulfillment/internal/core/domain"
	"go.uber.org/zap"
)

var errorStatusMap = map[error]int{
	domain.ErrInternal:        http.StatusInternalServerError,
	domain.ErrDataNotFound:    http.StatusNotFound,
	domain.ErrConflictingData: http.StatusConflict,
	domain.ErrBadRequest:      http.StatusBadRequest,

	domain.ErrSupplierNotFound:    http.StatusNotFound,
	domain.ErrPriceNotFound:       http.StatusNotFound,
	domain.ErrNoEligibleSuppliers: http.StatusServiceUnavailable,
	domain.ErrInsufficientFunds:   http.StatusPaymentRequired,
	domain.ErrOrderTerminal:       http.StatusConflict,
}

func statusForError(err error) (int, bool) {
	if code, ok := errorStatusMap[err]; ok {
		return code, true
	}
	// Service errors arrive wrapped with context.
	for sentinel, code := range errorStatusMap {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return http.StatusInternalServerError, false
}

type Handler struct {
	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// handleValidationError sends an error response for some specific request validation error
func (h *Handler) handleValidationError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *Handler) handleError(ctx *gin.Context, err error) {
	statusCode, known := statusForError(err)
	if !known {
		h.logger.Error("error processing request", zap.Error(err))
		ctx.Status(statusCode)
		return
	}
	ctx.JSON(statusCode, gin.H{"error": err.Error()})
}

// handleSuccess sends a success response with the specified status code and optional data
func (h *Handler) handleSuccessWithStatus(ctx *gin.Context, data any, status int) {
	if data != nil {
		ctx.JSON(status, data)
	} else {
		ctx.Status(status)
	}
}

func (h *Handler) handleSuccess(ctx *gin.Context, data any) {
	h.handleSuccessWithStatus(ctx, data, http.StatusOK)
}

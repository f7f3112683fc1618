package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rbxmart/fulfillment/internal/core/domain"
	"github.com/rbxmart/fulfillment/internal/core/port"
	"go.uber.org/zap"
)

type SupplierHandler struct {
	Handler
	service port.Service
}

func NewSupplierHandler(service port.Service, logger *zap.Logger) (*SupplierHandler, error) {
	return &SupplierHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

// Snapshot godoc
//
//	@Summary	Point-in-time view of the supplier pool runtime state
//	@Success	200	{object}	domain.PoolSnapshot
//	@Router		/api/admin/suppliers [get]
func (sh *SupplierHandler) Snapshot(ctx *gin.Context) {
	sh.handleSuccess(ctx, sh.service.SupplierSnapshot())
}

// ForceRefresh godoc
//
//	@Summary	Force a price refresh, clearing soft backoff; without an id, all enabled suppliers
//	@Param		id			path	string	false	"supplier id"
//	@Param		quantity	query	int		false	"sample quantity for the price probe"
//	@Success	204
//	@Failure	404
//	@Router		/api/admin/suppliers/{id}/refresh [post]
func (sh *SupplierHandler) ForceRefresh(ctx *gin.Context) {
	quantity := 0
	if q := ctx.Query("quantity"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed <= 0 {
			sh.handleValidationError(ctx, domain.ErrBadRequest)
			return
		}
		quantity = parsed
	}

	if err := sh.service.ForceRefreshSuppliers(ctx, ctx.Param("id"), quantity); err != nil {
		sh.handleError(ctx, err)
		return
	}
	sh.handleSuccessWithStatus(ctx, nil, http.StatusNoContent)
}

// GetSettings godoc
//
//	@Summary	Persisted supplier pool configuration
//	@Success	200	{object}	domain.PoolConfig
//	@Failure	404	"no persisted settings yet"
//	@Router		/api/admin/suppliers/settings [get]
func (sh *SupplierHandler) GetSettings(ctx *gin.Context) {
	cfg, err := sh.service.SupplierSettings(ctx)
	if err != nil {
		sh.handleError(ctx, err)
		return
	}
	sh.handleSuccess(ctx, cfg)
}

// UpdateSettings godoc
//
//	@Summary	Persist and hot-apply a new supplier pool configuration
//	@Accept		json
//	@Success	200	{object}	domain.PoolConfig
//	@Failure	400
//	@Router		/api/admin/suppliers/settings [put]
func (sh *SupplierHandler) UpdateSettings(ctx *gin.Context) {
	var cfg domain.PoolConfig
	if err := ctx.ShouldBindJSON(&cfg); err != nil {
		sh.handleValidationError(ctx, err)
		return
	}

	if err := sh.service.UpdateSupplierSettings(ctx, &cfg); err != nil {
		sh.handleError(ctx, err)
		return
	}
	sh.handleSuccess(ctx, &cfg)
}

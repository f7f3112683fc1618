package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rbxmart/fulfillment/internal/adapter/config"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	*gin.Engine
}

func NewRouter(
	conf *config.HTTP,
	eventsHandler *EventsHandler,
	orderHandler *OrderHandler,
	supplierHandler *SupplierHandler) (*Router, error) {

	router := gin.New()

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	api := router.Group("/api")
	{
		events := api.Group("/events")
		{
			events.POST("/deal", eventsHandler.DealEvent)
			events.POST("/message", eventsHandler.MessageEvent)
		}

		admin := api.Group("/admin")
		{
			orders := admin.Group("/orders")
			{
				orders.GET("", orderHandler.ListOrders)
				orders.POST("/:id/reset", orderHandler.ResetOrder)
				orders.POST("/:id/quote", orderHandler.SetQuote)
			}

			suppliers := admin.Group("/suppliers")
			{
				suppliers.GET("", supplierHandler.Snapshot)
				suppliers.GET("/settings", supplierHandler.GetSettings)
				suppliers.PUT("/settings", supplierHandler.UpdateSettings)
				suppliers.POST("/refresh", supplierHandler.ForceRefresh)
				suppliers.POST("/:id/refresh", supplierHandler.ForceRefresh)
			}
		}
	}

	return &Router{router}, nil
}

// Serve starts the HTTP server
func (r *Router) Serve(listenAddr string) error {
	return r.Run(listenAddr)
}

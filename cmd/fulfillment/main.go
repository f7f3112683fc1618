package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbxmart/fulfillment/internal/adapter/client/pricing"
	"github.com/rbxmart/fulfillment/internal/adapter/client/supplier"
	"github.com/rbxmart/fulfillment/internal/adapter/config"
	"github.com/rbxmart/fulfillment/internal/adapter/handler/http"
	"github.com/rbxmart/fulfillment/internal/adapter/logger"
	"github.com/rbxmart/fulfillment/internal/adapter/notifier"
	"github.com/rbxmart/fulfillment/internal/adapter/storage"
	"github.com/rbxmart/fulfillment/internal/adapter/storage/repository"
	"github.com/rbxmart/fulfillment/internal/core/domain"
	"github.com/rbxmart/fulfillment/internal/core/registry"
	"github.com/rbxmart/fulfillment/internal/core/service"
	"go.uber.org/zap"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log := logger.NewLogger(conf.App)
	if log == nil {
		fmt.Printf("error creating log")
		return
	}
	defer func() {
		err := log.Sync()
		if err != nil {
			fmt.Printf("log error: %s", err)
		}
	}()

	ctx := context.Background()

	db, err := storage.NewDBStorage(ctx, conf.Database)
	if err != nil {
		log.Error("database error", zap.Error(err))
		return
	}
	err = db.RunMigrations()
	if err != nil {
		log.Error("database migration error", zap.Error(err))
		return
	}

	repo, err := repository.NewRepository(db)
	if err != nil {
		log.Error("repo creating error", zap.Error(err))
		return
	}

	poolCfg, err := loadPoolConfig(ctx, repo, conf)
	if err != nil {
		log.Error("pool config error", zap.Error(err))
		return
	}

	pricingClient, err := pricing.NewPricingClient(conf.Pricing, log.Named("Pricing"))
	if err != nil {
		log.Error("pricing client creating error", zap.Error(err))
		return
	}

	pool, err := registry.New(poolCfg, pricingClient, log.Named("Registry"))
	if err != nil {
		log.Error("supplier registry creating error", zap.Error(err))
		return
	}

	executor, err := supplier.NewSupplierClient(conf.Supplier, log.Named("Supplier"))
	if err != nil {
		log.Error("supplier client creating error", zap.Error(err))
		return
	}

	svc, err := service.NewService(repo, pool, executor, pricingClient,
		notifier.NewLogNotifier(log.Named("Notifier")), conf.App.DefaultOfferURL, log.Named("Service"))
	if err != nil {
		log.Error("fulfillment service creating error", zap.Error(err))
		return
	}

	if err := service.RecallOrders(ctx, repo, svc); err != nil {
		log.Error("order recall error", zap.Error(err))
		return
	}

	sweeper := service.NewSweeper(repo, svc, conf.App.SweepInterval, log.Named("Sweeper"))
	go sweeper.Run(ctx)

	eventsHandler, err := http.NewEventsHandler(svc, log.Named("Events handler"))
	if err != nil {
		log.Error("events handler creating error", zap.Error(err))
		return
	}
	orderHandler, err := http.NewOrderHandler(svc, log.Named("Order handler"))
	if err != nil {
		log.Error("order handler creating error", zap.Error(err))
		return
	}
	supplierHandler, err := http.NewSupplierHandler(svc, log.Named("Supplier handler"))
	if err != nil {
		log.Error("supplier handler creating error", zap.Error(err))
		return
	}

	r, err := http.NewRouter(conf.HTTP, eventsHandler, orderHandler, supplierHandler)
	if err != nil {
		log.Error("router creating error", zap.Error(err))
		return
	}

	err = r.Serve(conf.HTTP.HostString)
	if err != nil {
		log.Error("router serve error", zap.Error(err))
		return
	}
}

// loadPoolConfig prefers settings persisted through the admin API and falls
// back to the config file on first start, seeding the settings table from it.
func loadPoolConfig(ctx context.Context, repo *repository.Repository, conf *config.Config) (*domain.PoolConfig, error) {
	cfg, err := repo.LoadSupplierSettings(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, domain.ErrDataNotFound) {
		return nil, err
	}

	cfg, err = config.LoadPoolConfig(conf.App.SuppliersConfig)
	if err != nil {
		return nil, err
	}
	if err := repo.SaveSupplierSettings(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/rbxmart/fulfillment/internal/core/domain"
)

type Config struct {
	Database *Database
	HTTP     *HTTP
	Pricing  *Pricing
	Supplier *Supplier
	App      *App
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

type App struct {
	LogLevel        string        `env:"LOG_LEVEL"`
	Mode            string        `env:"APP_MODE"`
	DefaultOfferURL string        `env:"DEFAULT_OFFER_URL"`
	SuppliersConfig string        `env:"SUPPLIERS_CONFIG"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}

type Database struct {
	DSN string `env:"DATABASE_URI"`
}

type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
}

type Pricing struct {
	HostString string `env:"PRICING_SERVICE_ADDRESS"`
}

type Supplier struct {
	HostString      string        `env:"SUPPLIER_SERVICE_ADDRESS"`
	PurchaseTimeout time.Duration `env:"PURCHASE_TIMEOUT" envDefault:"20m"`
}

func NewConfig() (*Config, error) {
	var db Database
	var http HTTP
	var pricing Pricing
	var supplier Supplier
	var app App

	flag.StringVar(&db.DSN, "d", "", "Database string")
	flag.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	flag.StringVar(&pricing.HostString, "p", "", "Pricing service address")
	flag.StringVar(&supplier.HostString, "s", "", "Supplier service address")
	flag.StringVar(&app.SuppliersConfig, "c", `suppliers.json`, "Supplier pool config file")
	flag.StringVar(&app.LogLevel, "l", `error`, "Log level")
	flag.StringVar(&app.Mode, "m", `DEV`, "PROD / DEV")
	flag.Parse()

	err := env.Parse(&db)
	if err != nil {
		return nil, fmt.Errorf("error parsing env database config: %w", err)
	}
	err = env.Parse(&http)
	if err != nil {
		return nil, fmt.Errorf("error parsing http config: %w", err)
	}
	err = env.Parse(&app)
	if err != nil {
		return nil, fmt.Errorf("error parsing app config: %w", err)
	}
	err = env.Parse(&pricing)
	if err != nil {
		return nil, fmt.Errorf("error parsing pricing config: %w", err)
	}
	err = env.Parse(&supplier)
	if err != nil {
		return nil, fmt.Errorf("error parsing supplier config: %w", err)
	}

	config := Config{
		Database: &db,
		HTTP:     &http,
		Pricing:  &pricing,
		Supplier: &supplier,
		App:      &app,
	}

	return &config, nil
}

// LoadPoolConfig reads the supplier pool configuration from a JSON file.
func LoadPoolConfig(path string) (*domain.PoolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading pool config %s: %w", path, err)
	}
	var cfg domain.PoolConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing pool config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool config %s: %w", path, err)
	}
	return &cfg, nil
}

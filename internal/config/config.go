// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/light-bringer/dynprice-service/internal/scheduler"
)

// Store drivers.
const (
	DriverSpanner = "spanner"
	DriverMemory  = "memory"
)

// Config is the server configuration.
type Config struct {
	SpannerDatabase string `env:"SPANNER_DATABASE" envDefault:"projects/test-project/instances/dev-instance/databases/dynprice-db"`
	StoreDriver     string `env:"STORE_DRIVER" envDefault:"spanner"`
	RuleSetFile     string `env:"RULESET_FILE"`

	CatalogIDs     []string      `env:"CATALOG_IDS" envSeparator:","`
	RunTimeOfDay   string        `env:"RUN_TIME_OF_DAY" envDefault:"12:00:00"`
	RunTimezone    string        `env:"RUN_TIMEZONE" envDefault:"America/New_York"`
	WorkerPoolSize int           `env:"WORKER_POOL_SIZE" envDefault:"8"`
	ProductTimeout time.Duration `env:"PRODUCT_TIMEOUT" envDefault:"10s"`
	RunLease       time.Duration `env:"RUN_LEASE" envDefault:"30m"`

	GRPCPort string `env:"GRPC_PORT" envDefault:"9090"`
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values env.Parse cannot.
func (c *Config) Validate() error {
	if c.StoreDriver != DriverSpanner && c.StoreDriver != DriverMemory {
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverSpanner, DriverMemory, c.StoreDriver)
	}
	if c.WorkerPoolSize <= 0 {
		return fmt.Errorf("WORKER_POOL_SIZE must be positive")
	}
	if c.ProductTimeout <= 0 || c.RunLease <= 0 {
		return fmt.Errorf("PRODUCT_TIMEOUT and RUN_LEASE must be positive")
	}
	if _, err := c.TimeOfDay(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// TimeOfDay parses RUN_TIME_OF_DAY.
func (c *Config) TimeOfDay() (scheduler.TimeOfDay, error) {
	return scheduler.ParseTimeOfDay(c.RunTimeOfDay)
}

// Location loads RUN_TIMEZONE.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.RunTimezone)
	if err != nil {
		return nil, fmt.Errorf("RUN_TIMEZONE: %w", err)
	}
	return loc, nil
}

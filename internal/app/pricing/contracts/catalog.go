package contracts

import (
	"context"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// CatalogProvider is the read side of the product catalog.
type CatalogProvider interface {
	// ListProducts returns every product in the catalog eligible for repricing.
	ListProducts(ctx context.Context, catalogID string) ([]domain.ProductSnapshot, error)

	// CurrentPrice re-reads a single product so the run prices from fresh
	// values. Returns domain.ErrProductNotFound if the product is gone.
	CurrentPrice(ctx context.Context, productID string) (*domain.ProductSnapshot, error)
}

// MetricsProvider supplies inventory and sales data for condition evaluation.
type MetricsProvider interface {
	// Metrics returns the product's metrics as of asOf.
	// Returns domain.ErrMetricsUnavailable when there is nothing to report.
	Metrics(ctx context.Context, productID string, asOf time.Time) (*domain.ProductMetrics, error)
}

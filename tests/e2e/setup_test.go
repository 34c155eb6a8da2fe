package e2e

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/config"
	"github.com/light-bringer/dynprice-service/internal/pkg/logging"
	"github.com/light-bringer/dynprice-service/internal/services"
	"github.com/light-bringer/dynprice-service/tests/testutil"
)

const ruleSetsYAML = `
rule_sets:
  - id: overstock
    catalog_id: spring
    name: Overstock markdown
    priority: 5
    selector: 'product.category == "outerwear"'
    rules:
      - id: markdown
        condition: {type: units_available, operator: greater_or_equal, value: 100}
        action: {type: decrease, value_type: percentage, value: 20}
        rounding: {type: down, unit: "0.01"}
  - id: scarcity
    catalog_id: spring
    product_ids: [boots]
    rules:
      - id: low-stock
        condition: {type: units_available, operator: less_or_equal, value: 5}
        action: {type: increase, value_type: fixed, value: "5.00"}
`

// Service is the fully wired application on the memory driver.
type Service struct {
	Opts *services.ServiceOptions
	HTTP *httptest.Server
}

// setupTest wires the service from a rule set file and seeds the spring
// catalog: an overstocked jacket, scarce boots and an untargeted scarf.
func setupTest(t *testing.T) *Service {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rule_sets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ruleSetsYAML), 0o600))

	cfg := &config.Config{
		StoreDriver:    config.DriverMemory,
		RuleSetFile:    path,
		CatalogIDs:     []string{"spring"},
		RunTimeOfDay:   "12:00:00",
		RunTimezone:    "America/New_York",
		WorkerPoolSize: 4,
		ProductTimeout: 5 * time.Second,
		RunLease:       time.Minute,
	}
	require.NoError(t, cfg.Validate())

	opts, err := services.NewServiceOptions(context.Background(), cfg, logging.Setup(io.Discard, "ERROR", "dynprice-e2e"))
	require.NoError(t, err)
	t.Cleanup(opts.Close)

	mem := opts.Memory
	mem.PutProduct(testutil.NewProductBuilder("jacket").WithPrice("100.00").Build())
	mem.PutProduct(testutil.NewProductBuilder("boots").WithCategory("shoes").WithPrice("59.99").Build())
	mem.PutProduct(testutil.NewProductBuilder("scarf").WithCategory("accessories").WithPrice("15.00").Build())
	mem.PutMetrics("jacket", domain.ProductMetrics{UnitsAvailable: testutil.Units(250)})
	mem.PutMetrics("boots", domain.ProductMetrics{UnitsAvailable: testutil.Units(2)})

	srv := httptest.NewServer(opts.HTTPServer)
	t.Cleanup(srv.Close)

	return &Service{Opts: opts, HTTP: srv}
}

package evaluate_catalog

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo/memory"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/apply_price"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
	"github.com/light-bringer/dynprice-service/internal/pkg/selector"
)

var newYork, _ = time.LoadLocation("America/New_York")

// noon is the daily run instant used throughout.
var noon = time.Date(2026, 6, 1, 12, 0, 0, 0, newYork)

type failingCatalog struct {
	contracts.CatalogProvider
}

func (failingCatalog) ListProducts(context.Context, string) ([]domain.ProductSnapshot, error) {
	return nil, errors.New("catalog service down")
}

// hookedMetrics runs hook before delegating to the store.
type hookedMetrics struct {
	store *memory.Store
	hook  func(ctx context.Context, productID string) error
}

func (h *hookedMetrics) Metrics(ctx context.Context, productID string, asOf time.Time) (*domain.ProductMetrics, error) {
	if err := h.hook(ctx, productID); err != nil {
		return nil, err
	}
	return h.store.Metrics(ctx, productID, asOf)
}

type fixture struct {
	store   *memory.Store
	clock   *clock.MockClock
	metrics contracts.MetricsProvider
	catalog contracts.CatalogProvider
	runLog  contracts.RunLog
	cfg     Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()

	units := func(n int64) *int64 { return &n }
	store.PutProduct(domain.ProductSnapshot{ID: "jacket", CatalogID: "spring", Category: "outerwear", Price: domain.MustParseMoney("100")})
	store.PutProduct(domain.ProductSnapshot{ID: "boots", CatalogID: "spring", Category: "shoes", Price: domain.MustParseMoney("29.99")})
	store.PutProduct(domain.ProductSnapshot{ID: "scarf", CatalogID: "spring", Category: "accessories", Price: domain.MustParseMoney("15")})
	store.PutProduct(domain.ProductSnapshot{ID: "other", CatalogID: "autumn", Price: domain.MustParseMoney("1")})
	store.PutMetrics("jacket", domain.ProductMetrics{UnitsAvailable: units(200)})
	store.PutMetrics("boots", domain.ProductMetrics{UnitsAvailable: units(3)})

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.RuleSet{
		ID:        "overstock",
		CatalogID: "spring",
		Priority:  5,
		Selector:  `product.category == "outerwear"`,
		Rules: []domain.Rule{{
			ID:        "markdown",
			Condition: domain.UnitsAvailable{Operator: domain.OperatorGreaterOrEqual, Value: 100},
			Action:    domain.Action{Type: domain.ActionDecrease, ValueType: domain.ValuePercentage, Value: big.NewRat(20, 1)},
			Rounding:  domain.RoundingPolicy{Type: domain.RoundingDown, Unit: domain.MustParseMoney("0.01")},
		}},
	}))
	require.NoError(t, store.Save(ctx, domain.RuleSet{
		ID:         "scarcity",
		CatalogID:  "spring",
		ProductIDs: []string{"boots", "scarf"},
		Rules: []domain.Rule{
			{
				ID:        "low-stock",
				Condition: domain.UnitsAvailable{Operator: domain.OperatorLessOrEqual, Value: 5},
				Action:    domain.Action{Type: domain.ActionIncrease, ValueType: domain.ValuePercentage, Value: big.NewRat(10, 1)},
				Rounding:  domain.NoRounding,
			},
			{
				ID:        "tidy",
				Condition: domain.UnitsAvailable{Operator: domain.OperatorLessOrEqual, Value: 5},
				Action:    domain.Action{Type: domain.ActionIncrease, ValueType: domain.ValueFixed, Value: new(big.Rat)},
				Rounding:  domain.RoundingPolicy{Type: domain.RoundingNearest, Unit: domain.MustParseMoney("0.10")},
			},
		},
	}))

	return &fixture{
		store:   store,
		clock:   clock.NewMockClock(noon),
		metrics: store,
		catalog: store,
		runLog:  store,
		cfg:     Config{Workers: 2, ProductTimeout: time.Second, Lease: time.Hour, Owner: "node-a"},
	}
}

func (f *fixture) interactor(t *testing.T) *Interactor {
	t.Helper()
	matcher, err := selector.NewMatcher()
	require.NoError(t, err)

	return NewInteractor(Dependencies{
		Catalog:    f.catalog,
		Metrics:    f.metrics,
		RuleSets:   f.store,
		RunLog:     f.runLog,
		ApplyPrice: apply_price.NewInteractor(f.store, f.clock),
		Resolver:   NewResolver(matcher, nil),
		Clock:      f.clock,
	}, f.cfg)
}

func resultsByProduct(run *domain.EvaluationRun) map[string]domain.ProductResult {
	out := make(map[string]domain.ProductResult, len(run.Results))
	for _, r := range run.Results {
		out[r.ProductID] = r
	}
	return out
}

func TestInteractor_Execute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	run, err := f.interactor(t).Execute(ctx, &Request{CatalogID: "spring", AsOf: noon})
	require.NoError(t, err)
	require.Len(t, run.Results, 3)

	byID := resultsByProduct(run)

	jacket := byID["jacket"]
	assert.Equal(t, domain.OutcomeUpdated, jacket.Outcome)
	assert.Equal(t, "overstock", jacket.RuleSetID)
	assert.Equal(t, "80.00", jacket.AfterPrice.String())
	assert.Equal(t, "100.00", jacket.AfterCompareAt.String())

	// 29.99 * 1.1 = 32.989 -> nearest 0.10 -> 33.00
	boots := byID["boots"]
	assert.Equal(t, domain.OutcomeUpdated, boots.Outcome)
	assert.Equal(t, []string{"low-stock", "tidy"}, boots.AppliedRuleIDs)
	assert.Equal(t, "33.00", boots.AfterPrice.String())

	// no metrics: conditions are false, price untouched
	scarf := byID["scarf"]
	assert.Equal(t, domain.OutcomeUnchanged, scarf.Outcome)
	assert.Equal(t, "scarcity", scarf.RuleSetID)

	stored, _ := f.store.Product("boots")
	assert.Equal(t, "33.00", stored.Price.String())

	rec, err := f.store.Get(ctx, domain.RunKeyFor("spring", noon))
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, rec.Status)
	assert.Equal(t, run.ID, rec.RunID)
	assert.Equal(t, 2, rec.Updated)
	assert.Equal(t, 1, rec.Unchanged)

	var types []string
	for _, e := range f.store.Events() {
		types = append(types, e.EventType)
	}
	assert.ElementsMatch(t, []string{"product.repriced", "product.repriced", "pricing.run_completed"}, types)

	history, err := f.store.History(ctx, "jacket", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "markdown", history[0].RuleID)
	assert.Equal(t, run.ID, history[0].RunID)
}

func TestInteractor_RunsOncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	interactor := f.interactor(t)

	_, err := interactor.Execute(ctx, &Request{CatalogID: "spring", AsOf: noon})
	require.NoError(t, err)

	// a restart later the same day must not reprice again
	f.clock.Advance(3 * time.Hour)
	run, err := interactor.Execute(ctx, &Request{CatalogID: "spring", AsOf: noon.Add(3 * time.Hour)})
	assert.ErrorIs(t, err, domain.ErrRunAlreadyCompleted)
	assert.Nil(t, run)

	stored, _ := f.store.Product("jacket")
	assert.Equal(t, "80.00", stored.Price.String())

	// the next day is a new run key
	tomorrow := noon.AddDate(0, 0, 1)
	f.clock.Set(tomorrow)
	_, err = interactor.Execute(ctx, &Request{CatalogID: "spring", AsOf: tomorrow})
	require.NoError(t, err)

	stored, _ = f.store.Product("jacket")
	assert.Equal(t, "64.00", stored.Price.String())
}

func TestInteractor_LiveLeaseBlocksSecondOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := domain.RunKeyFor("spring", noon)
	require.NoError(t, f.store.Acquire(ctx, key, "run-x", "node-b", noon, noon.Add(time.Hour)))

	_, err := f.interactor(t).Execute(ctx, &Request{CatalogID: "spring", AsOf: noon})
	assert.ErrorIs(t, err, domain.ErrRunInProgress)
}

func TestInteractor_CatalogFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.catalog = failingCatalog{}
	ctx := context.Background()

	_, err := f.interactor(t).Execute(ctx, &Request{CatalogID: "spring", AsOf: noon})
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)

	_, err = f.store.Get(ctx, domain.RunKeyFor("spring", noon))
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	assert.Empty(t, f.store.Events())

	stored, _ := f.store.Product("jacket")
	assert.Equal(t, "100.00", stored.Price.String())
}

func TestInteractor_ProductTimeoutFailsOnlyThatProduct(t *testing.T) {
	f := newFixture(t)
	f.cfg.ProductTimeout = 20 * time.Millisecond
	f.metrics = &hookedMetrics{store: f.store, hook: func(ctx context.Context, productID string) error {
		if productID != "boots" {
			return nil
		}
		<-ctx.Done()
		return ctx.Err()
	}}

	run, err := f.interactor(t).Execute(context.Background(), &Request{CatalogID: "spring", AsOf: noon})
	require.NoError(t, err)

	byID := resultsByProduct(run)
	boots := byID["boots"]
	assert.Equal(t, domain.OutcomeFailed, boots.Outcome)
	assert.ErrorIs(t, boots.Error, context.DeadlineExceeded)
	assert.Equal(t, "29.99", boots.AfterPrice.String())

	assert.Equal(t, domain.OutcomeUpdated, byID["jacket"].Outcome)

	stored, _ := f.store.Product("boots")
	assert.Equal(t, "29.99", stored.Price.String())
}

func TestInteractor_CancelledRunIsNotMarked(t *testing.T) {
	f := newFixture(t)
	f.cfg.Workers = 1
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.metrics = &hookedMetrics{store: f.store, hook: func(context.Context, string) error {
		cancel()
		return nil
	}}

	run, err := f.interactor(t).Execute(ctx, &Request{CatalogID: "spring", AsOf: noon})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, run)

	_, err = f.store.Get(context.Background(), domain.RunKeyFor("spring", noon))
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	// the retry on the next wake completes the run
	run, err = f.interactor(t).Execute(context.Background(), &Request{CatalogID: "spring", AsOf: noon})
	require.NoError(t, err)
	assert.Len(t, run.Results, 3)
}

func TestInteractor_RespectsWorkerLimit(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 20; i++ {
		f.store.PutProduct(domain.ProductSnapshot{
			ID:        "bulk-" + string(rune('a'+i)),
			CatalogID: "spring",
			Category:  "outerwear",
			Price:     domain.MustParseMoney("10"),
		})
	}
	f.cfg.Workers = 3

	var inFlight, peak atomic.Int32
	var mu sync.Mutex
	f.metrics = &hookedMetrics{store: f.store, hook: func(context.Context, string) error {
		n := inFlight.Add(1)
		mu.Lock()
		if n > peak.Load() {
			peak.Store(n)
		}
		mu.Unlock()
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}}

	run, err := f.interactor(t).Execute(context.Background(), &Request{CatalogID: "spring", AsOf: noon})
	require.NoError(t, err)
	assert.Len(t, run.Results, 23)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestInteractor_RunKeyUsesAsOfZone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 01:00 UTC on June 2 is still June 1 in New York
	utc := time.Date(2026, 6, 2, 1, 0, 0, 0, time.UTC)
	run, err := f.interactor(t).Execute(ctx, &Request{CatalogID: "spring", AsOf: utc.In(newYork)})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Key.RunDate.Day)
	assert.Equal(t, "America/New_York", run.Key.Timezone)
}

func TestInteractor_Validation(t *testing.T) {
	f := newFixture(t)
	interactor := f.interactor(t)

	_, err := interactor.Execute(context.Background(), &Request{AsOf: noon})
	assert.Error(t, err)
	_, err = interactor.Execute(context.Background(), &Request{CatalogID: "spring"})
	assert.Error(t, err)
}

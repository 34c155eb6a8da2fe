package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/get_run"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_price_history"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/preview_rules"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo/memory"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/ruledoc"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/apply_price"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/evaluate_catalog"
	"github.com/light-bringer/dynprice-service/internal/config"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
	"github.com/light-bringer/dynprice-service/internal/pkg/committer"
	"github.com/light-bringer/dynprice-service/internal/pkg/metrics"
	"github.com/light-bringer/dynprice-service/internal/pkg/selector"
	"github.com/light-bringer/dynprice-service/internal/scheduler"
	"github.com/light-bringer/dynprice-service/internal/transport/grpc/preview"
	httptransport "github.com/light-bringer/dynprice-service/internal/transport/http"
)

// ServiceOptions holds all dependencies for the application.
type ServiceOptions struct {
	SpannerClient  *spanner.Client // nil for the memory driver
	Memory         *memory.Store   // nil for the spanner driver
	Metrics        *metrics.Collector
	Scheduler      *scheduler.Scheduler
	PreviewHandler *preview.Handler
	HTTPServer     *httptransport.Server
}

// stores is the set of collaborators a store driver provides.
type stores struct {
	catalog  contracts.CatalogProvider
	metrics  contracts.MetricsProvider
	prices   contracts.PriceStore
	ruleSets contracts.RuleSetStore
	runLog   contracts.RunLog
}

// NewServiceOptions creates and wires up all application dependencies.
func NewServiceOptions(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ServiceOptions, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := &ServiceOptions{}
	clk := clock.NewRealClock()

	// 1. Initialize the store driver
	var st stores
	switch cfg.StoreDriver {
	case config.DriverSpanner:
		client, err := spanner.NewClient(ctx, cfg.SpannerDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to create Spanner client: %w", err)
		}
		opts.SpannerClient = client
		comm := committer.NewCommitter(client)
		outbox := repo.NewOutboxRepo(client)
		st = stores{
			catalog:  repo.NewCatalogRepo(client),
			metrics:  repo.NewMetricsRepo(client),
			prices:   repo.NewPriceStore(client, comm, outbox),
			ruleSets: repo.NewRuleSetRepo(client, comm, clk),
			runLog:   repo.NewRunLogRepo(client, comm, outbox),
		}
	case config.DriverMemory:
		mem := memory.NewStore()
		opts.Memory = mem
		st = stores{catalog: mem, metrics: mem, prices: mem, ruleSets: mem, runLog: mem}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	// 2. Create domain services
	matcher, err := selector.NewMatcher()
	if err != nil {
		opts.Close()
		return nil, fmt.Errorf("failed to create selector matcher: %w", err)
	}
	engine := domain.NewRuleEngine(logger)
	opts.Metrics = metrics.NewCollector()

	if cfg.RuleSetFile != "" {
		n, err := seedRuleSets(ctx, cfg.RuleSetFile, matcher, st.ruleSets)
		if err != nil {
			opts.Close()
			return nil, err
		}
		logger.Info("seeded rule sets", slog.String("file", cfg.RuleSetFile), slog.Int("count", n))
	}

	// 3. Create command use cases (write operations)
	applyPrice := apply_price.NewInteractor(st.prices, clk)
	evaluateCatalog := evaluate_catalog.NewInteractor(evaluate_catalog.Dependencies{
		Catalog:    st.catalog,
		Metrics:    st.metrics,
		RuleSets:   st.ruleSets,
		RunLog:     st.runLog,
		ApplyPrice: applyPrice,
		Engine:     engine,
		Resolver:   evaluate_catalog.NewResolver(matcher, logger),
		Clock:      clk,
		Recorder:   opts.Metrics,
		Logger:     logger,
	}, evaluate_catalog.Config{
		Workers:        cfg.WorkerPoolSize,
		ProductTimeout: cfg.ProductTimeout,
		Lease:          cfg.RunLease,
	})

	// 4. Create the daily scheduler
	at, err := cfg.TimeOfDay()
	if err != nil {
		opts.Close()
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		opts.Close()
		return nil, err
	}
	opts.Scheduler, err = scheduler.New(evaluateCatalog, clk, scheduler.Config{
		CatalogIDs: cfg.CatalogIDs,
		TimeOfDay:  at,
		Location:   loc,
	}, logger)
	if err != nil {
		opts.Close()
		return nil, err
	}

	// 5. Create query use cases (read operations)
	previewQuery := preview_rules.NewQuery(engine)
	getRunQuery := get_run.NewQuery(st.runLog)
	historyQuery := list_price_history.NewQuery(st.prices)

	// 6. Create transport handlers
	opts.PreviewHandler = preview.NewHandler(previewQuery, getRunQuery, clk, cfg.RunTimezone)
	opts.HTTPServer = httptransport.NewServer(httptransport.Options{
		Preview:         previewQuery,
		GetRun:          getRunQuery,
		PriceHistory:    historyQuery,
		Runs:            opts.Scheduler,
		Metrics:         opts.Metrics.Handler(),
		DefaultTimezone: cfg.RunTimezone,
		Clock:           clk,
		Logger:          logger,
	})

	return opts, nil
}

// seedRuleSets saves every rule set in path. Selectors are compiled up front
// so a typo fails startup instead of silently matching nothing.
func seedRuleSets(ctx context.Context, path string, matcher *selector.Matcher, store contracts.RuleSetStore) (int, error) {
	f, err := ruledoc.LoadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load rule sets: %w", err)
	}
	sets, err := f.RuleSets()
	if err != nil {
		return 0, fmt.Errorf("invalid rule set file %s: %w", path, err)
	}
	for _, rs := range sets {
		if rs.Selector != "" {
			if err := matcher.Validate(rs.Selector); err != nil {
				return 0, &domain.ValidationError{RuleSetID: rs.ID, Field: "selector", Err: err}
			}
		}
		if err := store.Save(ctx, rs); err != nil {
			return 0, fmt.Errorf("failed to save rule set %s: %w", rs.ID, err)
		}
	}
	return len(sets), nil
}

// Close closes all resources.
func (s *ServiceOptions) Close() {
	if s.SpannerClient != nil {
		s.SpannerClient.Close()
	}
}

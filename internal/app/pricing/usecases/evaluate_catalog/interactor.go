package evaluate_catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/apply_price"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
)

const (
	defaultWorkers        = 8
	defaultProductTimeout = 10 * time.Second
	defaultLease          = 30 * time.Minute
)

// Request identifies the run: the catalog and the instant it runs as of.
// AsOf's location is the run's timezone and decides its run date.
type Request struct {
	CatalogID string
	AsOf      time.Time
}

// Config bounds a run.
type Config struct {
	Workers        int           // concurrent product evaluations
	ProductTimeout time.Duration // budget for fetch, evaluate and persist of one product
	Lease          time.Duration // run log lease length; renewed every third of it
	Owner          string        // lease owner; defaults to a random id
}

// Dependencies groups the interactor's collaborators.
type Dependencies struct {
	Catalog    contracts.CatalogProvider
	Metrics    contracts.MetricsProvider
	RuleSets   contracts.RuleSetStore
	RunLog     contracts.RunLog
	ApplyPrice *apply_price.Interactor
	Engine     *domain.RuleEngine
	Resolver   *Resolver
	Clock      clock.Clock
	Recorder   Recorder     // optional
	Logger     *slog.Logger // optional
}

// Interactor runs one idempotent daily evaluation of a catalog.
type Interactor struct {
	deps   Dependencies
	cfg    Config
	logger *slog.Logger
}

// NewInteractor creates a new evaluate catalog interactor.
func NewInteractor(deps Dependencies, cfg Config) *Interactor {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.ProductTimeout <= 0 {
		cfg.ProductTimeout = defaultProductTimeout
	}
	if cfg.Lease <= 0 {
		cfg.Lease = defaultLease
	}
	if cfg.Owner == "" {
		cfg.Owner = uuid.New().String()
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Engine == nil {
		deps.Engine = domain.NewRuleEngine(deps.Logger)
	}
	if deps.Resolver == nil {
		deps.Resolver = NewResolver(nil, deps.Logger)
	}
	return &Interactor{deps: deps, cfg: cfg, logger: deps.Logger}
}

// Execute evaluates every product of the catalog once for req's run date.
//
// It returns domain.ErrRunAlreadyCompleted when the run key is already done
// and domain.ErrRunInProgress when another owner holds the lease; both leave
// prices untouched. A catalog or rule set fetch failure aborts the run before
// any product is touched. If ctx is cancelled the run is not marked complete,
// so the next wake retries it; products already persisted stay persisted and
// carry the run key, so the retry leaves them alone.
//
// The lease is renewed while products are evaluated. Every price write is
// fenced by it: once it is lost no further price is written and Execute
// returns domain.ErrLeaseLost.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*domain.EvaluationRun, error) {
	if err := i.validate(req); err != nil {
		return nil, err
	}

	started := i.deps.Clock.Now()
	key := domain.RunKeyFor(req.CatalogID, req.AsOf)
	log := i.logger.With(
		slog.String("catalog_id", key.CatalogID),
		slog.String("run_date", key.RunDate.String()),
		slog.String("timezone", key.Timezone),
	)

	// 1. Take the run lease
	runID := uuid.New().String()
	if err := i.deps.RunLog.Acquire(ctx, key, runID, i.cfg.Owner, started, started.Add(i.cfg.Lease)); err != nil {
		if errors.Is(err, domain.ErrRunAlreadyCompleted) || errors.Is(err, domain.ErrRunInProgress) {
			log.Info("evaluation run skipped", slog.Any("reason", err))
			i.deps.Recorder.RunFinished(req.CatalogID, RunSkipped, 0)
		}
		return nil, err
	}
	log = log.With(slog.String("run_id", runID))
	log.Info("evaluation run started")

	runCtx, cancelRun := context.WithCancelCause(ctx)
	defer cancelRun(nil)
	stopRenewal := i.renewLease(runCtx, key, started.Add(i.cfg.Lease), cancelRun, log)
	defer stopRenewal()

	// 2. Load the catalog and its rule sets
	products, err := i.deps.Catalog.ListProducts(runCtx, req.CatalogID)
	if err != nil {
		i.abort(ctx, key, started, log)
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	sets, err := i.deps.RuleSets.ActiveRuleSets(runCtx, req.CatalogID, req.AsOf)
	if err != nil {
		i.abort(ctx, key, started, log)
		return nil, fmt.Errorf("failed to load rule sets: %w", err)
	}

	// 3. Evaluate products on a bounded pool; each task writes only its own slot
	results := make([]domain.ProductResult, len(products))
	var g errgroup.Group
	g.SetLimit(i.cfg.Workers)
	for idx, p := range products {
		g.Go(func() error {
			t0 := time.Now()
			results[idx] = i.evaluateProduct(runCtx, key, runID, p, sets, req.AsOf, log)
			i.deps.Recorder.ProductEvaluated(req.CatalogID, results[idx].Outcome, time.Since(t0))
			return nil
		})
	}
	_ = g.Wait()
	stopRenewal()

	// 4. Cancelled runs and runs that lost their lease stay unmarked
	if err := ctx.Err(); err != nil {
		i.abort(ctx, key, started, log)
		return nil, err
	}
	if cause := context.Cause(runCtx); errors.Is(cause, domain.ErrLeaseLost) {
		i.abort(ctx, key, started, log)
		return nil, cause
	}

	run := &domain.EvaluationRun{
		ID:          runID,
		Key:         key,
		AsOf:        req.AsOf,
		StartedAt:   started,
		CompletedAt: i.deps.Clock.Now(),
		Results:     results,
	}
	updated, unchanged, failed := run.Counts()

	event, err := contracts.EnrichEvent(&domain.RunCompletedEvent{
		RunID:     runID,
		CatalogID: key.CatalogID,
		RunDate:   key.RunDate,
		Timezone:  key.Timezone,
		Updated:   updated,
		Unchanged: unchanged,
		Failed:    failed,
	})
	if err != nil {
		i.abort(ctx, key, started, log)
		return nil, fmt.Errorf("failed to serialize event: %w", err)
	}

	// 5. Mark the run key done
	if err := i.deps.RunLog.Complete(ctx, run, i.cfg.Owner, []*contracts.OutboxEvent{event}); err != nil {
		i.abort(ctx, key, started, log)
		return nil, fmt.Errorf("failed to complete run: %w", err)
	}

	i.deps.Recorder.RunFinished(req.CatalogID, RunCompleted, run.CompletedAt.Sub(started))
	log.Info("evaluation run completed",
		slog.Int("products", len(results)),
		slog.Int("updated", updated),
		slog.Int("unchanged", unchanged),
		slog.Int("failed", failed),
	)
	return run, nil
}

func (i *Interactor) evaluateProduct(
	ctx context.Context,
	key domain.RunKey,
	runID string,
	listed domain.ProductSnapshot,
	sets []domain.RuleSet,
	asOf time.Time,
	log *slog.Logger,
) domain.ProductResult {
	result := domain.ProductResult{
		ProductID:      listed.ID,
		BeforePrice:    listed.Price,
		AfterPrice:     listed.Price,
		AppliedRuleIDs: []string{},
		Outcome:        domain.OutcomeUnchanged,
	}
	if err := ctx.Err(); err != nil {
		result.Fail(err)
		return result
	}

	rs := i.deps.Resolver.Resolve(listed, sets)
	if rs == nil {
		return result
	}
	result.RuleSetID = rs.ID

	pctx, cancel := context.WithTimeout(ctx, i.cfg.ProductTimeout)
	defer cancel()

	fail := func(stage string, err error) domain.ProductResult {
		log.Warn("product evaluation failed",
			slog.String("product_id", listed.ID),
			slog.String("rule_set_id", rs.ID),
			slog.String("stage", stage),
			slog.Any("error", err),
		)
		result.Fail(err)
		return result
	}

	fresh, err := i.deps.Catalog.CurrentPrice(pctx, listed.ID)
	if err != nil {
		return fail("current_price", err)
	}
	result.BeforePrice, result.AfterPrice = fresh.Price, fresh.Price
	if fresh.RepricedFor == key.String() {
		result.BeforeCompareAt, result.AfterCompareAt = fresh.CompareAtPrice, fresh.CompareAtPrice
		log.Info("product already repriced for this run date", slog.String("product_id", listed.ID))
		return result
	}

	metrics, err := i.deps.Metrics.Metrics(pctx, listed.ID, asOf)
	if err != nil && !errors.Is(err, domain.ErrMetricsUnavailable) {
		return fail("metrics", err)
	}

	evaluated := i.deps.Engine.Evaluate(*fresh, metrics, *rs, asOf)
	if evaluated.Error != nil {
		result = evaluated
		return fail("evaluate", evaluated.Error)
	}
	result = evaluated

	err = i.deps.ApplyPrice.Execute(pctx, &apply_price.Request{
		RunID:   runID,
		Product: *fresh,
		Result:  &result,
		Metrics: metrics,
		Lease:   &contracts.RunLease{Key: key, Owner: i.cfg.Owner},
	})
	if err != nil {
		return fail("persist", err)
	}
	return result
}

// renewLease extends the lease every third of its length until the returned
// stop func is called. When the lease cannot be kept the run is cancelled
// with domain.ErrLeaseLost. A renewal that fails for another reason is
// retried on the next tick while the lease held so far is still live.
func (i *Interactor) renewLease(
	ctx context.Context,
	key domain.RunKey,
	heldUntil time.Time,
	cancelRun context.CancelCauseFunc,
	log *slog.Logger,
) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-i.deps.Clock.After(i.cfg.Lease / 3):
			}

			now := i.deps.Clock.Now()
			err := i.deps.RunLog.Renew(ctx, key, i.cfg.Owner, now, now.Add(i.cfg.Lease))
			switch {
			case err == nil:
				heldUntil = now.Add(i.cfg.Lease)
				continue
			case ctx.Err() != nil:
				return
			case !errors.Is(err, domain.ErrLeaseLost) && now.Before(heldUntil):
				log.Warn("failed to renew run lease", slog.Any("error", err))
				continue
			}
			log.Error("run lease lost", slog.Any("error", err))
			if !errors.Is(err, domain.ErrLeaseLost) {
				err = fmt.Errorf("%w: %w", domain.ErrLeaseLost, err)
			}
			cancelRun(err)
			return
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// abort releases the lease so the run key stays eligible for a later attempt.
func (i *Interactor) abort(ctx context.Context, key domain.RunKey, started time.Time, log *slog.Logger) {
	if err := i.deps.RunLog.Release(context.WithoutCancel(ctx), key, i.cfg.Owner); err != nil {
		log.Error("failed to release run lease", slog.Any("error", err))
	}
	i.deps.Recorder.RunFinished(key.CatalogID, RunAborted, i.deps.Clock.Now().Sub(started))
	log.Warn("evaluation run aborted")
}

// validate validates the request.
func (i *Interactor) validate(req *Request) error {
	if req == nil || req.CatalogID == "" {
		return fmt.Errorf("catalog ID is required")
	}
	if req.AsOf.IsZero() {
		return fmt.Errorf("as of time is required")
	}
	return nil
}

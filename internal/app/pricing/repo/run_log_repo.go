package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/models/m_evaluation_result"
	"github.com/light-bringer/dynprice-service/internal/models/m_run_log"
	"github.com/light-bringer/dynprice-service/internal/pkg/committer"
	"github.com/light-bringer/dynprice-service/internal/pkg/query"
)

// mutationBatchSize bounds rows per commit, well under Spanner's mutation limit.
const mutationBatchSize = 500

// RunLogRepo implements contracts.RunLog for Spanner.
type RunLogRepo struct {
	client    *spanner.Client
	committer *committer.Committer
	runs      *m_run_log.Model
	results   *m_evaluation_result.Model
	outbox    contracts.OutboxRepository
}

var _ contracts.RunLog = (*RunLogRepo)(nil)

// NewRunLogRepo creates a new RunLogRepo.
func NewRunLogRepo(client *spanner.Client, c *committer.Committer, outbox contracts.OutboxRepository) *RunLogRepo {
	return &RunLogRepo{
		client:    client,
		committer: c,
		runs:      m_run_log.NewModel(),
		results:   m_evaluation_result.NewModel(),
		outbox:    outbox,
	}
}

// Acquire takes the lease in a read-write transaction so two instances
// racing for the same key cannot both win.
func (r *RunLogRepo) Acquire(ctx context.Context, key domain.RunKey, runID, owner string, now, leaseUntil time.Time) error {
	err := r.committer.ApplyWithReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		current, err := r.readRun(ctx, txn, key)
		if err != nil && !errors.Is(err, domain.ErrRunNotFound) {
			return err
		}
		if current != nil {
			switch {
			case current.Status == string(domain.RunStatusCompleted):
				return domain.ErrRunAlreadyCompleted
			case current.Owner != owner && current.LeaseUntil.After(now):
				return domain.ErrRunInProgress
			}
		}

		return txn.BufferWrite([]*spanner.Mutation{r.runs.UpsertMut(&m_run_log.Data{
			CatalogID:  key.CatalogID,
			RunDate:    key.RunDate,
			Timezone:   key.Timezone,
			RunID:      runID,
			Status:     string(domain.RunStatusRunning),
			Owner:      owner,
			LeaseUntil: leaseUntil,
			StartedAt:  now,
		})})
	})
	return runLogError(err)
}

// Renew moves owner's lease expiry to leaseUntil if the lease is still live at now.
func (r *RunLogRepo) Renew(ctx context.Context, key domain.RunKey, owner string, now, leaseUntil time.Time) error {
	err := r.committer.ApplyWithReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		current, err := r.readRun(ctx, txn, key)
		if err != nil && !errors.Is(err, domain.ErrRunNotFound) {
			return err
		}
		if !leaseHeld(current, owner, now) {
			return domain.ErrLeaseLost
		}
		current.LeaseUntil = leaseUntil
		return txn.BufferWrite([]*spanner.Mutation{r.runs.UpsertMut(current)})
	})
	return runLogError(err)
}

// LeaseCheck is a commit precondition failing with domain.ErrLeaseLost unless
// lease is still held.
func LeaseCheck(lease contracts.RunLease) committer.Check {
	return func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		current, err := readRun(ctx, txn, m_run_log.NewModel(), lease.Key)
		if err != nil && !errors.Is(err, domain.ErrRunNotFound) {
			return err
		}
		if !leaseHeld(current, lease.Owner, lease.At) {
			return domain.ErrLeaseLost
		}
		return nil
	}
}

func leaseHeld(current *m_run_log.Data, owner string, at time.Time) bool {
	return current != nil &&
		current.Status == string(domain.RunStatusRunning) &&
		current.Owner == owner &&
		current.LeaseUntil.After(at)
}

// Release deletes owner's running row; anything else is left alone.
func (r *RunLogRepo) Release(ctx context.Context, key domain.RunKey, owner string) error {
	err := r.committer.ApplyWithReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		current, err := r.readRun(ctx, txn, key)
		if err != nil {
			if errors.Is(err, domain.ErrRunNotFound) {
				return nil
			}
			return err
		}
		if current.Status != string(domain.RunStatusRunning) || current.Owner != owner {
			return nil
		}
		return txn.BufferWrite([]*spanner.Mutation{r.runs.DeleteMut(key.CatalogID, key.RunDate, key.Timezone)})
	})
	return runLogError(err)
}

// Complete stores the per-product results, then marks the key complete and
// writes events in one transaction that re-checks the lease. Result rows are
// keyed by run id, so a run that loses its lease leaves only unreferenced rows.
func (r *RunLogRepo) Complete(ctx context.Context, run *domain.EvaluationRun, owner string, events []*contracts.OutboxEvent) error {
	for start := 0; start < len(run.Results); start += mutationBatchSize {
		end := min(start+mutationBatchSize, len(run.Results))
		plan := committer.NewPlan()
		for _, res := range run.Results[start:end] {
			mut, err := r.resultMut(run.ID, res)
			if err != nil {
				return err
			}
			plan.Add(mut)
		}
		if err := r.committer.Apply(ctx, plan); err != nil {
			return fmt.Errorf("failed to store run results: %w", err)
		}
	}

	updated, unchanged, failed := run.Counts()
	err := r.committer.ApplyWithReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		current, err := r.readRun(ctx, txn, run.Key)
		if err != nil {
			if errors.Is(err, domain.ErrRunNotFound) {
				return domain.ErrLeaseLost
			}
			return err
		}
		if current.Status != string(domain.RunStatusRunning) || current.Owner != owner {
			return domain.ErrLeaseLost
		}

		current.RunID = run.ID
		current.Status = string(domain.RunStatusCompleted)
		current.CompletedAt = spanner.NullTime{Time: run.CompletedAt, Valid: true}
		current.UpdatedCount = int64(updated)
		current.UnchangedCount = int64(unchanged)
		current.FailedCount = int64(failed)

		plan := committer.NewPlan()
		plan.Add(r.runs.UpsertMut(current))
		for _, event := range events {
			plan.Add(r.outbox.InsertMut(event))
		}
		return txn.BufferWrite(plan.Mutations())
	})
	return runLogError(err)
}

// Get returns the record for key, with results once the run is complete.
func (r *RunLogRepo) Get(ctx context.Context, key domain.RunKey) (*contracts.RunRecord, error) {
	txn := r.client.ReadOnlyTransaction()
	defer txn.Close()

	data, err := r.readRun(ctx, txn, key)
	if err != nil {
		return nil, err
	}

	rec := &contracts.RunRecord{
		Key:         key,
		RunID:       data.RunID,
		Status:      domain.RunStatus(data.Status),
		Owner:       data.Owner,
		LeaseUntil:  data.LeaseUntil,
		StartedAt:   data.StartedAt,
		CompletedAt: data.CompletedAt.Time,
		Updated:     int(data.UpdatedCount),
		Unchanged:   int(data.UnchangedCount),
		Failed:      int(data.FailedCount),
	}
	if rec.Status != domain.RunStatusCompleted {
		return rec, nil
	}

	stmt := query.From(m_evaluation_result.TableName).
		Select(r.results.ReadColumns()...).
		Where(query.Eq(m_evaluation_result.RunID, data.RunID)).
		OrderBy(m_evaluation_result.ProductID, query.Asc).
		Build()
	err = txn.Query(ctx, stmt).Do(func(row *spanner.Row) error {
		var rd m_evaluation_result.Data
		if err := row.ToStruct(&rd); err != nil {
			return fmt.Errorf("failed to parse result: %w", err)
		}
		res, err := dataToResult(&rd)
		if err != nil {
			return err
		}
		rec.Results = append(rec.Results, *res)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read run results: %w", err)
	}
	return rec, nil
}

type rowReader interface {
	ReadRow(ctx context.Context, table string, key spanner.Key, columns []string) (*spanner.Row, error)
}

func (r *RunLogRepo) readRun(ctx context.Context, txn rowReader, key domain.RunKey) (*m_run_log.Data, error) {
	return readRun(ctx, txn, r.runs, key)
}

func readRun(ctx context.Context, txn rowReader, runs *m_run_log.Model, key domain.RunKey) (*m_run_log.Data, error) {
	row, err := txn.ReadRow(ctx, m_run_log.TableName, runs.Key(key.CatalogID, key.RunDate, key.Timezone), runs.ReadColumns())
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	var data m_run_log.Data
	if err := row.ToStruct(&data); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	return &data, nil
}

func (r *RunLogRepo) resultMut(runID string, res domain.ProductResult) (*spanner.Mutation, error) {
	data := &m_evaluation_result.Data{
		RunID:          runID,
		ProductID:      res.ProductID,
		RuleSetID:      nullString(res.RuleSetID),
		AppliedRuleIDs: res.AppliedRuleIDs,
		Outcome:        string(res.Outcome),
	}
	if res.Error != nil {
		data.ErrorMessage = nullString(res.Error.Error())
	}
	var err error
	if data.BeforePriceNumerator, data.BeforePriceDenominator, err = nullMoneyCols(res.BeforePrice); err != nil {
		return nil, err
	}
	if data.AfterPriceNumerator, data.AfterPriceDenominator, err = nullMoneyCols(res.AfterPrice); err != nil {
		return nil, err
	}
	if data.BeforeCompareAtNumerator, data.BeforeCompareAtDenominator, err = nullMoneyCols(res.BeforeCompareAt); err != nil {
		return nil, err
	}
	if data.AfterCompareAtNumerator, data.AfterCompareAtDenominator, err = nullMoneyCols(res.AfterCompareAt); err != nil {
		return nil, err
	}
	return r.results.InsertMut(data), nil
}

func dataToResult(data *m_evaluation_result.Data) (*domain.ProductResult, error) {
	res := &domain.ProductResult{
		ProductID:      data.ProductID,
		RuleSetID:      data.RuleSetID.StringVal,
		AppliedRuleIDs: data.AppliedRuleIDs,
		Outcome:        domain.Outcome(data.Outcome),
	}
	if res.AppliedRuleIDs == nil {
		res.AppliedRuleIDs = []string{}
	}
	if data.ErrorMessage.Valid {
		res.Error = errors.New(data.ErrorMessage.StringVal)
	}
	var err error
	if res.BeforePrice, err = nullMoney(data.BeforePriceNumerator, data.BeforePriceDenominator); err != nil {
		return nil, err
	}
	if res.AfterPrice, err = nullMoney(data.AfterPriceNumerator, data.AfterPriceDenominator); err != nil {
		return nil, err
	}
	if res.BeforeCompareAt, err = nullMoney(data.BeforeCompareAtNumerator, data.BeforeCompareAtDenominator); err != nil {
		return nil, err
	}
	if res.AfterCompareAt, err = nullMoney(data.AfterCompareAtNumerator, data.AfterCompareAtDenominator); err != nil {
		return nil, err
	}
	return res, nil
}

// runLogError surfaces run log sentinels unwrapped from the transaction error.
func runLogError(err error) error {
	for _, sentinel := range []error{domain.ErrRunAlreadyCompleted, domain.ErrRunInProgress, domain.ErrLeaseLost} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return err
}

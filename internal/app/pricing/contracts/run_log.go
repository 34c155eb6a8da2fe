package contracts

import (
	"context"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// RunRecord is the RunLog view of one run key.
type RunRecord struct {
	Key         domain.RunKey
	RunID       string
	Status      domain.RunStatus
	Owner       string
	LeaseUntil  time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	Updated     int
	Unchanged   int
	Failed      int
	Results     []domain.ProductResult // populated for completed runs
}

// RunLog records which catalog runs have happened so each runs at most once.
type RunLog interface {
	// Acquire takes the lease for key until leaseUntil.
	// Returns domain.ErrRunAlreadyCompleted if the key is done, and
	// domain.ErrRunInProgress if another owner holds a live lease.
	// An expired lease is taken over.
	Acquire(ctx context.Context, key domain.RunKey, runID, owner string, now, leaseUntil time.Time) error

	// Renew extends owner's running lease to leaseUntil.
	// Returns domain.ErrLeaseLost if owner no longer holds a live lease at now.
	Renew(ctx context.Context, key domain.RunKey, owner string, now, leaseUntil time.Time) error

	// Release drops owner's lease without marking the key complete.
	Release(ctx context.Context, key domain.RunKey, owner string) error

	// Complete marks the run's key complete and stores its results and events.
	// Fails with domain.ErrLeaseLost if owner no longer holds the lease.
	Complete(ctx context.Context, run *domain.EvaluationRun, owner string, events []*OutboxEvent) error

	// Get returns the record for key or domain.ErrRunNotFound.
	Get(ctx context.Context, key domain.RunKey) (*RunRecord, error)
}

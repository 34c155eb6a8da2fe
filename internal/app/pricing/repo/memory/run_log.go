package memory

import (
	"context"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// Acquire takes the run lease for key.
func (s *Store) Acquire(ctx context.Context, key domain.RunKey, runID, owner string, now, leaseUntil time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.runs[key]; ok {
		switch {
		case rec.Status == domain.RunStatusCompleted:
			return domain.ErrRunAlreadyCompleted
		case rec.Owner != owner && rec.LeaseUntil.After(now):
			return domain.ErrRunInProgress
		}
	}

	s.runs[key] = &contracts.RunRecord{
		Key:        key,
		RunID:      runID,
		Status:     domain.RunStatusRunning,
		Owner:      owner,
		LeaseUntil: leaseUntil,
		StartedAt:  now,
	}
	return nil
}

// Renew moves owner's lease expiry to leaseUntil.
func (s *Store) Renew(ctx context.Context, key domain.RunKey, owner string, now, leaseUntil time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.holdsLease(key, owner, now) {
		return domain.ErrLeaseLost
	}
	s.runs[key].LeaseUntil = leaseUntil
	return nil
}

// holdsLease must be called with mu held.
func (s *Store) holdsLease(key domain.RunKey, owner string, at time.Time) bool {
	rec, ok := s.runs[key]
	return ok && rec.Status == domain.RunStatusRunning && rec.Owner == owner && rec.LeaseUntil.After(at)
}

// Release drops owner's running lease.
func (s *Store) Release(ctx context.Context, key domain.RunKey, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.runs[key]; ok && rec.Status == domain.RunStatusRunning && rec.Owner == owner {
		delete(s.runs, key)
	}
	return nil
}

// Complete marks the run complete if owner still holds the lease.
func (s *Store) Complete(ctx context.Context, run *domain.EvaluationRun, owner string, events []*contracts.OutboxEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[run.Key]
	if !ok || rec.Status != domain.RunStatusRunning || rec.Owner != owner {
		return domain.ErrLeaseLost
	}

	updated, unchanged, failed := run.Counts()
	rec.RunID = run.ID
	rec.Status = domain.RunStatusCompleted
	rec.CompletedAt = run.CompletedAt
	rec.Updated, rec.Unchanged, rec.Failed = updated, unchanged, failed
	rec.Results = append([]domain.ProductResult(nil), run.Results...)

	s.outbox = append(s.outbox, events...)
	return nil
}

// Get returns a copy of the record for key.
func (s *Store) Get(ctx context.Context, key domain.RunKey) (*contracts.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.runs[key]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	out := *rec
	out.Results = append([]domain.ProductResult(nil), rec.Results...)
	return &out, nil
}

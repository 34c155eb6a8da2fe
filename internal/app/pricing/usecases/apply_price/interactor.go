package apply_price

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
)

// Request carries one product's evaluation result to persist.
type Request struct {
	RunID   string
	Product domain.ProductSnapshot // snapshot the result was computed from
	Result  *domain.ProductResult
	Metrics *domain.ProductMetrics // optional; recorded on the history entry
	Lease   *contracts.RunLease    // optional; fences the write, At is set here
}

// Interactor writes a changed price, its history entry and a
// product.repriced event as one atomic change.
type Interactor struct {
	store contracts.PriceStore
	clock clock.Clock
}

// NewInteractor creates a new apply price interactor.
func NewInteractor(store contracts.PriceStore, clock clock.Clock) *Interactor {
	return &Interactor{
		store: store,
		clock: clock,
	}
}

// Execute persists req.Result. Unchanged and failed results write nothing.
// Store failures are returned wrapped in domain.ErrPersistence.
func (i *Interactor) Execute(ctx context.Context, req *Request) error {
	// 1. Validate request
	if err := i.validate(req); err != nil {
		return err
	}
	res := req.Result
	if res.Error != nil || !res.Changed() {
		return nil
	}
	if !res.AfterPrice.IsSafeForStorage() ||
		(res.AfterCompareAt != nil && !res.AfterCompareAt.IsSafeForStorage()) {
		return fmt.Errorf("%w: product %s", domain.ErrMoneyOverflow, res.ProductID)
	}

	now := i.clock.Now()

	// 2. Build the audit record
	entry := &domain.PriceHistoryEntry{
		ID:             uuid.New().String(),
		ProductID:      res.ProductID,
		Timestamp:      now,
		Price:          res.AfterPrice.Copy(),
		PreviousPrice:  res.BeforePrice.Copy(),
		CompareAtPrice: res.AfterCompareAt,
		RuleID:         res.LastAppliedRule(),
		RuleSetID:      res.RuleSetID,
		RunID:          req.RunID,
		Reason:         reason(res),
	}
	if req.Metrics != nil && req.Metrics.AverageUnitRetail != nil {
		entry.AverageUnitRetail = req.Metrics.AverageUnitRetail.Copy()
	}

	// 3. Build the outbox event
	event, err := contracts.EnrichEvent(&domain.ProductRepricedEvent{
		ProductID:         res.ProductID,
		RunID:             req.RunID,
		RuleSetID:         res.RuleSetID,
		AppliedRuleIDs:    res.AppliedRuleIDs,
		OldPrice:          res.BeforePrice,
		NewPrice:          res.AfterPrice,
		NewCompareAtPrice: res.AfterCompareAt,
		RepricedAt:        now,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	// 4. Apply everything together
	change := &contracts.PriceChange{
		ProductID:       res.ProductID,
		ExpectedVersion: req.Product.Version,
		Price:           res.AfterPrice,
		CompareAtPrice:  res.AfterCompareAt,
		History:         entry,
		Events:          []*contracts.OutboxEvent{event},
	}
	if req.Lease != nil {
		lease := *req.Lease
		lease.At = now
		change.Lease = &lease
	}
	if err := i.store.ApplyPriceChange(ctx, change); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// validate validates the request.
func (i *Interactor) validate(req *Request) error {
	if req == nil || req.Result == nil {
		return fmt.Errorf("result is required")
	}
	if req.Result.ProductID == "" {
		return fmt.Errorf("product ID is required")
	}
	if req.Product.ID != "" && req.Product.ID != req.Result.ProductID {
		return fmt.Errorf("result for %s does not match product %s", req.Result.ProductID, req.Product.ID)
	}
	if req.RunID == "" {
		return fmt.Errorf("run ID is required")
	}
	return nil
}

func reason(res *domain.ProductResult) string {
	return fmt.Sprintf("rule set %s applied %s", res.RuleSetID, strings.Join(res.AppliedRuleIDs, ", "))
}

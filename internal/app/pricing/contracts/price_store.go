package contracts

import (
	"context"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// PriceChange is everything written when a run reprices one product.
// Implementations apply it atomically: the price, its history entry and the
// outbox events land together or not at all.
type PriceChange struct {
	ProductID       string
	ExpectedVersion int64
	Price           *domain.Money
	CompareAtPrice  *domain.Money // nil clears the compare-at price
	History         *domain.PriceHistoryEntry
	Events          []*OutboxEvent
	Lease           *RunLease // optional; the write is fenced by this lease
}

// RunLease identifies a held run lease at a point in time. A fenced write
// commits only if Owner still holds a running lease on Key that has not
// expired at At. The product is then stamped with Key.String().
type RunLease struct {
	Key   domain.RunKey
	Owner string
	At    time.Time
}

// PriceStore persists price changes and their audit trail.
type PriceStore interface {
	// ApplyPriceChange commits the change if the product is still at
	// ExpectedVersion. Returns domain.ErrVersionConflict otherwise, and
	// domain.ErrLeaseLost when the change's lease is no longer held.
	ApplyPriceChange(ctx context.Context, change *PriceChange) error

	// History returns the product's price history, most recent first.
	History(ctx context.Context, productID string, limit int) ([]domain.PriceHistoryEntry, error)
}

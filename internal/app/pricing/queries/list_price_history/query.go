package list_price_history

import (
	"context"
	"fmt"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Request contains the product and page size.
type Request struct {
	ProductID string
	Limit     int
}

// Query handles the list price history query use case.
type Query struct {
	store contracts.PriceStore
}

// NewQuery creates a new list price history query.
func NewQuery(store contracts.PriceStore) *Query {
	return &Query{
		store: store,
	}
}

// Execute returns the product's history, most recent first.
func (q *Query) Execute(ctx context.Context, req *Request) ([]domain.PriceHistoryEntry, error) {
	if req.ProductID == "" {
		return nil, fmt.Errorf("product ID is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return q.store.History(ctx, req.ProductID, limit)
}

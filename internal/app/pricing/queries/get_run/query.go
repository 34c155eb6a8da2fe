package get_run

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// Request identifies a run by its key.
type Request struct {
	CatalogID string
	RunDate   civil.Date
	Timezone  string
}

// Query handles the get run query use case.
type Query struct {
	runLog contracts.RunLog
}

// NewQuery creates a new get run query.
func NewQuery(runLog contracts.RunLog) *Query {
	return &Query{
		runLog: runLog,
	}
}

// Execute returns the run record or domain.ErrRunNotFound.
func (q *Query) Execute(ctx context.Context, req *Request) (*contracts.RunRecord, error) {
	if req.CatalogID == "" {
		return nil, fmt.Errorf("catalog ID is required")
	}
	if !req.RunDate.IsValid() {
		return nil, fmt.Errorf("run date %q is not valid", req.RunDate)
	}
	return q.runLog.Get(ctx, domain.RunKey{
		CatalogID: req.CatalogID,
		RunDate:   req.RunDate,
		Timezone:  req.Timezone,
	})
}

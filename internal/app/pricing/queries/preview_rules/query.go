package preview_rules

import (
	"context"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/ruledoc"
)

// Request is a what-if evaluation of a draft rule set against one product.
type Request struct {
	Product domain.ProductSnapshot
	Metrics *domain.ProductMetrics // nil: metric conditions evaluate false
	RuleSet domain.RuleSet
	AsOf    time.Time
}

// Query simulates a rule set without touching the run log or any store.
type Query struct {
	engine *domain.RuleEngine
}

// NewQuery creates a new preview query.
func NewQuery(engine *domain.RuleEngine) *Query {
	return &Query{
		engine: engine,
	}
}

// Execute returns the would-be result. It never fails: a draft with
// out-of-bounds values or a product without a price yields a result whose
// Error is set and whose AfterPrice equals BeforePrice.
func (q *Query) Execute(_ context.Context, req *Request) *domain.ProductResult {
	if err := req.RuleSet.ValidateBounds(); err != nil {
		res := &domain.ProductResult{
			ProductID:       req.Product.ID,
			RuleSetID:       req.RuleSet.ID,
			BeforePrice:     req.Product.Price,
			BeforeCompareAt: req.Product.CompareAtPrice,
			AppliedRuleIDs:  []string{},
		}
		res.Fail(err)
		return res
	}

	res := q.engine.Evaluate(req.Product, req.Metrics, req.RuleSet, req.AsOf)
	return &res
}

// RequestFromDocument decodes a preview document. Errors here are structural
// (unknown tags, unparsable numbers or dates); bound violations pass through
// to Execute.
func RequestFromDocument(doc ruledoc.PreviewDocument, now time.Time) (*Request, error) {
	product, err := doc.Product.ToDomain()
	if err != nil {
		return nil, err
	}
	metrics, err := doc.Metrics.ToDomain()
	if err != nil {
		return nil, err
	}
	rs, err := doc.RuleSet.ToDomain()
	if err != nil {
		return nil, err
	}
	asOf, err := doc.ParseAsOf(now)
	if err != nil {
		return nil, err
	}
	return &Request{Product: product, Metrics: metrics, RuleSet: rs, AsOf: asOf}, nil
}

package evaluate_catalog

import (
	"log/slog"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// Selector evaluates rule set selector expressions.
type Selector interface {
	Match(expr string, p domain.ProductSnapshot) (bool, error)
}

// Resolver picks the rule set that governs a product.
type Resolver struct {
	selector Selector
	logger   *slog.Logger
}

// NewResolver creates a Resolver. A nil selector matches explicit product ids only.
func NewResolver(selector Selector, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{selector: selector, logger: logger}
}

// Resolve returns the first rule set in sets that targets p, or nil.
// sets must already be in evaluation order. A selector that fails to
// evaluate is logged and treated as not matching.
func (r *Resolver) Resolve(p domain.ProductSnapshot, sets []domain.RuleSet) *domain.RuleSet {
	for i := range sets {
		rs := &sets[i]
		if rs.TargetsProduct(p.ID) {
			return rs
		}
		if rs.Selector == "" || r.selector == nil {
			continue
		}
		ok, err := r.selector.Match(rs.Selector, p)
		if err != nil {
			r.logger.Warn("rule set selector failed",
				slog.String("rule_set_id", rs.ID),
				slog.String("product_id", p.ID),
				slog.Any("error", err),
			)
			continue
		}
		if ok {
			return rs
		}
	}
	return nil
}

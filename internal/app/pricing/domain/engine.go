package domain

import (
	"log/slog"
	"time"
)

// RuleEngine applies an ordered RuleSet to one product.
// It holds no per-evaluation state and is safe for concurrent use.
type RuleEngine struct {
	logger *slog.Logger
}

// NewRuleEngine creates a RuleEngine. Clamped computations are logged to logger.
func NewRuleEngine(logger *slog.Logger) *RuleEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleEngine{logger: logger}
}

// Evaluate runs rs against product and returns the resulting prices.
//
// Rules chain: each applicable rule's action consumes the previous rule's
// rounded output, so reordering rules can change the final price. A rule
// whose condition does not hold is skipped entirely, rounding included. When
// the rule set's schedule is not active at asOf no rule is evaluated.
func (e *RuleEngine) Evaluate(product ProductSnapshot, metrics *ProductMetrics, rs RuleSet, asOf time.Time) ProductResult {
	result := ProductResult{
		ProductID:       product.ID,
		RuleSetID:       rs.ID,
		BeforeCompareAt: copyMoney(product.CompareAtPrice),
		AfterCompareAt:  copyMoney(product.CompareAtPrice),
		AppliedRuleIDs:  []string{},
		Outcome:         OutcomeUnchanged,
	}
	if product.Price == nil {
		result.Fail(ErrMissingPrice)
		return result
	}
	result.BeforePrice = product.Price.Copy()
	result.AfterPrice = product.Price.Copy()

	if !rs.Schedule.IsActive(asOf) {
		return result
	}

	price := product.Price.Copy()
	for _, rule := range rs.Rules {
		if !EvaluateCondition(metrics, rule.Condition, asOf) {
			continue
		}

		next, clamped := ApplyAction(price, rule.Action)
		if clamped {
			e.logger.Warn("price clamped to zero",
				slog.String("product_id", product.ID),
				slog.String("rule_set_id", rs.ID),
				slog.String("rule_id", rule.ID),
				slog.String("input_price", price.Exact()),
			)
		}
		price = Round(next, rule.Rounding)
		result.AppliedRuleIDs = append(result.AppliedRuleIDs, rule.ID)
	}

	result.AfterPrice = price
	if len(result.AppliedRuleIDs) > 0 {
		result.AfterCompareAt = NextCompareAt(result.BeforePrice, result.AfterPrice, product.CompareAtPrice)
	}
	if result.Changed() {
		result.Outcome = OutcomeUpdated
	}
	return result
}

// NextCompareAt derives the compare-at ("was") price after a repricing.
//   - A markdown keeps the highest of the existing compare-at and the pre-run price.
//   - A price at or above the existing compare-at clears it.
//   - Otherwise the compare-at is left as is.
func NextCompareAt(before, after, compareAt *Money) *Money {
	switch {
	case after.LessThan(before):
		return MaxMoney(compareAt, before)
	case compareAt != nil && !after.LessThan(compareAt):
		return nil
	default:
		return copyMoney(compareAt)
	}
}

// LastAppliedRule returns the id of the rule that produced the final price.
func (r *ProductResult) LastAppliedRule() string {
	if len(r.AppliedRuleIDs) == 0 {
		return ""
	}
	return r.AppliedRuleIDs[len(r.AppliedRuleIDs)-1]
}

func copyMoney(m *Money) *Money {
	if m == nil {
		return nil
	}
	return m.Copy()
}

// Package m_evaluation_result maps the evaluation_results table, the
// per-product outcomes of a completed run.
package m_evaluation_result

import (
	"cloud.google.com/go/spanner"
)

const (
	TableName = "evaluation_results"

	RunID                      = "run_id"
	ProductID                  = "product_id"
	RuleSetID                  = "rule_set_id"
	BeforePriceNumerator       = "before_price_numerator"
	BeforePriceDenominator     = "before_price_denominator"
	AfterPriceNumerator        = "after_price_numerator"
	AfterPriceDenominator      = "after_price_denominator"
	BeforeCompareAtNumerator   = "before_compare_at_numerator"
	BeforeCompareAtDenominator = "before_compare_at_denominator"
	AfterCompareAtNumerator    = "after_compare_at_numerator"
	AfterCompareAtDenominator  = "after_compare_at_denominator"
	AppliedRuleIDs             = "applied_rule_ids"
	Outcome                    = "outcome"
	ErrorMessage               = "error_message"
)

// Data represents an evaluation_results row.
type Data struct {
	RunID                      string             `spanner:"run_id"`
	ProductID                  string             `spanner:"product_id"`
	RuleSetID                  spanner.NullString `spanner:"rule_set_id"`
	BeforePriceNumerator       spanner.NullInt64  `spanner:"before_price_numerator"`
	BeforePriceDenominator     spanner.NullInt64  `spanner:"before_price_denominator"`
	AfterPriceNumerator        spanner.NullInt64  `spanner:"after_price_numerator"`
	AfterPriceDenominator      spanner.NullInt64  `spanner:"after_price_denominator"`
	BeforeCompareAtNumerator   spanner.NullInt64  `spanner:"before_compare_at_numerator"`
	BeforeCompareAtDenominator spanner.NullInt64  `spanner:"before_compare_at_denominator"`
	AfterCompareAtNumerator    spanner.NullInt64  `spanner:"after_compare_at_numerator"`
	AfterCompareAtDenominator  spanner.NullInt64  `spanner:"after_compare_at_denominator"`
	AppliedRuleIDs             []string           `spanner:"applied_rule_ids"`
	Outcome                    string             `spanner:"outcome"`
	ErrorMessage               spanner.NullString `spanner:"error_message"`
}

// Model provides type-safe operations on the evaluation_results table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a mutation for one product outcome.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	mut, _ := spanner.InsertOrUpdateStruct(TableName, data)
	return mut
}

// ReadColumns lists the columns Data is scanned from.
func (m *Model) ReadColumns() []string {
	return []string{
		RunID,
		ProductID,
		RuleSetID,
		BeforePriceNumerator,
		BeforePriceDenominator,
		AfterPriceNumerator,
		AfterPriceDenominator,
		BeforeCompareAtNumerator,
		BeforeCompareAtDenominator,
		AfterCompareAtNumerator,
		AfterCompareAtDenominator,
		AppliedRuleIDs,
		Outcome,
		ErrorMessage,
	}
}

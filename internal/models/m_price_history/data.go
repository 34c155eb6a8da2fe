package m_price_history

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents a price history record in the database.
type Data struct {
	HistoryID                    string             `spanner:"history_id"`
	ProductID                    string             `spanner:"product_id"`
	PriceNumerator               int64              `spanner:"price_numerator"`
	PriceDenominator             int64              `spanner:"price_denominator"`
	PreviousPriceNumerator       spanner.NullInt64  `spanner:"previous_price_numerator"`
	PreviousPriceDenominator     spanner.NullInt64  `spanner:"previous_price_denominator"`
	CompareAtNumerator           spanner.NullInt64  `spanner:"compare_at_numerator"`
	CompareAtDenominator         spanner.NullInt64  `spanner:"compare_at_denominator"`
	AverageUnitRetailNumerator   spanner.NullInt64  `spanner:"average_unit_retail_numerator"`
	AverageUnitRetailDenominator spanner.NullInt64  `spanner:"average_unit_retail_denominator"`
	RuleID                       spanner.NullString `spanner:"rule_id"`
	RuleSetID                    spanner.NullString `spanner:"rule_set_id"`
	RunID                        spanner.NullString `spanner:"run_id"`
	Reason                       spanner.NullString `spanner:"reason"`
	ChangedAt                    time.Time          `spanner:"changed_at"`
}

// Model provides type-safe database operations for price history.
type Model struct{}

// NewModel creates a new price history model.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a mutation for inserting a price history record.
// History rows are append-only; there is no update mutation.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	mut, _ := spanner.InsertStruct(TableName, data)
	return mut
}

// ReadColumns returns the column names for reading price history.
func (m *Model) ReadColumns() []string {
	return []string{
		HistoryID,
		ProductID,
		PriceNumerator,
		PriceDenominator,
		PreviousPriceNumerator,
		PreviousPriceDenominator,
		CompareAtNumerator,
		CompareAtDenominator,
		AverageUnitRetailNumerator,
		AverageUnitRetailDenominator,
		RuleID,
		RuleSetID,
		RunID,
		Reason,
		ChangedAt,
	}
}

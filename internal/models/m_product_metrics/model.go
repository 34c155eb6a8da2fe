// Package m_product_metrics maps the product_metrics table, one row per
// product per snapshot instant.
package m_product_metrics

import (
	"time"

	"cloud.google.com/go/spanner"
)

const (
	TableName = "product_metrics"

	ProductID                    = "product_id"
	AsOf                         = "as_of"
	UnitsAvailable               = "units_available"
	UnitsSoldInWindow            = "units_sold_in_window"
	WindowDays                   = "window_days"
	AverageUnitRetailNumerator   = "average_unit_retail_numerator"
	AverageUnitRetailDenominator = "average_unit_retail_denominator"
)

// Data represents a product_metrics row.
type Data struct {
	ProductID                    string            `spanner:"product_id"`
	AsOf                         time.Time         `spanner:"as_of"`
	UnitsAvailable               spanner.NullInt64 `spanner:"units_available"`
	UnitsSoldInWindow            spanner.NullInt64 `spanner:"units_sold_in_window"`
	WindowDays                   int64             `spanner:"window_days"`
	AverageUnitRetailNumerator   spanner.NullInt64 `spanner:"average_unit_retail_numerator"`
	AverageUnitRetailDenominator spanner.NullInt64 `spanner:"average_unit_retail_denominator"`
}

// Model provides type-safe operations on the product_metrics table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// ReadColumns lists the columns Data is scanned from.
func (m *Model) ReadColumns() []string {
	return []string{
		ProductID,
		AsOf,
		UnitsAvailable,
		UnitsSoldInWindow,
		WindowDays,
		AverageUnitRetailNumerator,
		AverageUnitRetailDenominator,
	}
}

// InsertMut creates an upsert mutation for a metrics snapshot.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	mut, _ := spanner.InsertOrUpdateStruct(TableName, data)
	return mut
}

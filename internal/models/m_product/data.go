package m_product

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the products table.
type Data struct {
	ProductID            string             `spanner:"product_id"`
	CatalogID            string             `spanner:"catalog_id"`
	SKU                  string             `spanner:"sku"`
	Name                 string             `spanner:"name"`
	Category             spanner.NullString `spanner:"category"`
	Tags                 []string           `spanner:"tags"`
	PriceNumerator       int64              `spanner:"price_numerator"`
	PriceDenominator     int64              `spanner:"price_denominator"`
	CompareAtNumerator   spanner.NullInt64  `spanner:"compare_at_numerator"`
	CompareAtDenominator spanner.NullInt64  `spanner:"compare_at_denominator"`
	Status               string             `spanner:"status"`
	Version              int64              `spanner:"version"`
	RepricedFor          spanner.NullString `spanner:"repriced_for"`
	CreatedAt            time.Time          `spanner:"created_at"`
	UpdatedAt            time.Time          `spanner:"updated_at"`
}

package m_product

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the products table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// ReadColumns lists the columns Data is scanned from.
func (m *Model) ReadColumns() []string {
	return []string{
		ProductID,
		CatalogID,
		SKU,
		Name,
		Category,
		Tags,
		PriceNumerator,
		PriceDenominator,
		CompareAtNumerator,
		CompareAtDenominator,
		Status,
		Version,
		RepricedFor,
		CreatedAt,
		UpdatedAt,
	}
}

// InsertMut creates an upsert mutation for a product. Timestamps are set at commit.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.InsertOrUpdate(
		TableName,
		m.ReadColumns(),
		[]interface{}{
			data.ProductID,
			data.CatalogID,
			data.SKU,
			data.Name,
			data.Category,
			data.Tags,
			data.PriceNumerator,
			data.PriceDenominator,
			data.CompareAtNumerator,
			data.CompareAtDenominator,
			data.Status,
			data.Version,
			data.RepricedFor,
			spanner.CommitTimestamp,
			spanner.CommitTimestamp,
		},
	)
}

// UpdatePriceMut sets the price columns and the next version of a product.
func (m *Model) UpdatePriceMut(productID string, priceNum, priceDen int64, compareAtNum, compareAtDen spanner.NullInt64, nextVersion int64) *spanner.Mutation {
	return spanner.Update(
		TableName,
		[]string{ProductID, PriceNumerator, PriceDenominator, CompareAtNumerator, CompareAtDenominator, Version, UpdatedAt},
		[]interface{}{productID, priceNum, priceDen, compareAtNum, compareAtDen, nextVersion, spanner.CommitTimestamp},
	)
}

// StampRunMut records the run key that last repriced a product.
func (m *Model) StampRunMut(productID, runKey string) *spanner.Mutation {
	return spanner.Update(
		TableName,
		[]string{ProductID, RepricedFor},
		[]interface{}{productID, runKey},
	)
}

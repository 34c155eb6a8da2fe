package testutil

import (
	"context"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo"
	"github.com/light-bringer/dynprice-service/internal/models/m_outbox"
)

// ProductBuilder helps create products for tests with a fluent interface.
type ProductBuilder struct {
	p domain.ProductSnapshot
}

// NewProductBuilder creates a builder for an active "spring" catalog product.
func NewProductBuilder(id string) *ProductBuilder {
	return &ProductBuilder{p: domain.ProductSnapshot{
		ID:        id,
		CatalogID: "spring",
		SKU:       "SKU-" + id,
		Name:      "Test " + id,
		Category:  "outerwear",
		Price:     domain.MustParseMoney("100.00"),
	}}
}

// InCatalog sets the catalog id.
func (b *ProductBuilder) InCatalog(catalogID string) *ProductBuilder {
	b.p.CatalogID = catalogID
	return b
}

// WithCategory sets the category.
func (b *ProductBuilder) WithCategory(category string) *ProductBuilder {
	b.p.Category = category
	return b
}

// WithTags sets the tags.
func (b *ProductBuilder) WithTags(tags ...string) *ProductBuilder {
	b.p.Tags = tags
	return b
}

// WithPrice sets the current price from a decimal string.
func (b *ProductBuilder) WithPrice(price string) *ProductBuilder {
	b.p.Price = domain.MustParseMoney(price)
	return b
}

// WithCompareAt sets the compare-at price.
func (b *ProductBuilder) WithCompareAt(price string) *ProductBuilder {
	b.p.CompareAtPrice = domain.MustParseMoney(price)
	return b
}

// Build returns the snapshot.
func (b *ProductBuilder) Build() domain.ProductSnapshot {
	return b.p
}

// Units returns a pointer to n, for ProductMetrics fields.
func Units(n int64) *int64 { return &n }

// MarkdownRule decreases the price by pct percent when at least minUnits are
// available, rounding down to the cent.
func MarkdownRule(id string, minUnits int64, pct int64) domain.Rule {
	return domain.Rule{
		ID:        id,
		Condition: domain.UnitsAvailable{Operator: domain.OperatorGreaterOrEqual, Value: minUnits},
		Action:    domain.Action{Type: domain.ActionDecrease, ValueType: domain.ValuePercentage, Value: big.NewRat(pct, 1)},
		Rounding:  domain.RoundingPolicy{Type: domain.RoundingDown, Unit: domain.MustParseMoney("0.01")},
	}
}

// InsertProduct writes a product row directly.
func InsertProduct(t *testing.T, client *spanner.Client, p domain.ProductSnapshot) {
	t.Helper()

	mut, err := repo.NewCatalogRepo(client).InsertMut(p)
	require.NoError(t, err)
	_, err = client.Apply(context.Background(), []*spanner.Mutation{mut})
	require.NoError(t, err, "failed to create test product")
}

// InsertMetrics writes a metrics snapshot taken at asOf.
func InsertMetrics(t *testing.T, client *spanner.Client, productID string, asOf time.Time, m domain.ProductMetrics) {
	t.Helper()

	mut, err := repo.NewMetricsRepo(client).PutMut(productID, asOf, m)
	require.NoError(t, err)
	_, err = client.Apply(context.Background(), []*spanner.Mutation{mut})
	require.NoError(t, err, "failed to create test metrics")
}

// CountOutboxEvents counts outbox rows of eventType.
func CountOutboxEvents(t *testing.T, client *spanner.Client, eventType string) int {
	t.Helper()

	stmt := spanner.Statement{
		SQL:    "SELECT COUNT(*) FROM " + m_outbox.TableName + " WHERE " + m_outbox.EventType + " = @eventType",
		Params: map[string]interface{}{"eventType": eventType},
	}
	iter := client.Single().Query(context.Background(), stmt)
	defer iter.Stop()

	row, err := iter.Next()
	require.NoError(t, err, "failed to count outbox events")

	var count int64
	require.NoError(t, row.Columns(&count))
	return int(count)
}

package selector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

func jacket() domain.ProductSnapshot {
	return domain.ProductSnapshot{
		ID:       "prod-1",
		SKU:      "JKT-001",
		Category: "outerwear",
		Tags:     []string{"clearance", "winter"},
		Price:    domain.MustParseMoney("89.99"),
	}
}

func TestMatcher_Match(t *testing.T) {
	m, err := NewMatcher()
	require.NoError(t, err)

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"category", `product.category == "outerwear"`, true},
		{"tag membership", `"clearance" in product.tags`, true},
		{"price comparison", `product.price > 50.0`, true},
		{"sku prefix", `product.sku.startsWith("SHO")`, false},
		{"combined", `product.category == "outerwear" && !("new" in product.tags)`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Match(tt.expr, jacket())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatcher_Errors(t *testing.T) {
	m, err := NewMatcher()
	require.NoError(t, err)

	t.Run("syntax", func(t *testing.T) {
		assert.Error(t, m.Validate(`product.category ==`))
	})

	t.Run("non boolean", func(t *testing.T) {
		assert.ErrorIs(t, m.Validate(`1 + 2`), ErrNotBoolean)
	})

	t.Run("unknown variable", func(t *testing.T) {
		assert.Error(t, m.Validate(`order.total > 5`))
	})
}

func TestMatcher_ConcurrentUse(t *testing.T) {
	m, err := NewMatcher()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.Match(`product.category == "outerwear"`, jacket())
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

package ruledoc

import (
	"fmt"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// ProductDocument is a product as submitted for a preview.
type ProductDocument struct {
	ID             string   `json:"id" yaml:"id"`
	SKU            string   `json:"sku,omitempty" yaml:"sku,omitempty"`
	Name           string   `json:"name,omitempty" yaml:"name,omitempty"`
	Category       string   `json:"category,omitempty" yaml:"category,omitempty"`
	Tags           []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Price          Decimal  `json:"price" yaml:"price"`
	CompareAtPrice Decimal  `json:"compare_at_price,omitempty" yaml:"compare_at_price,omitempty"`
}

// MetricsDocument mirrors domain.ProductMetrics. Absent fields stay unknown.
type MetricsDocument struct {
	UnitsAvailable    *int64  `json:"units_available,omitempty" yaml:"units_available,omitempty"`
	UnitsSoldInWindow *int64  `json:"units_sold_in_window,omitempty" yaml:"units_sold_in_window,omitempty"`
	WindowDays        int64   `json:"window_days,omitempty" yaml:"window_days,omitempty"`
	AverageUnitRetail Decimal `json:"average_unit_retail,omitempty" yaml:"average_unit_retail,omitempty"`
}

// PreviewDocument is one simulation request.
type PreviewDocument struct {
	Product ProductDocument  `json:"product" yaml:"product"`
	Metrics *MetricsDocument `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	RuleSet RuleSetDocument  `json:"rule_set" yaml:"rule_set"`
	AsOf    string           `json:"as_of,omitempty" yaml:"as_of,omitempty"`
}

// ToDomain converts the product. A missing price is left nil for the engine to report.
func (d ProductDocument) ToDomain() (domain.ProductSnapshot, error) {
	p := domain.ProductSnapshot{
		ID:       d.ID,
		SKU:      d.SKU,
		Name:     d.Name,
		Category: d.Category,
		Tags:     append([]string(nil), d.Tags...),
	}
	if d.Price != "" {
		r, err := d.Price.rat()
		if err != nil {
			return domain.ProductSnapshot{}, fmt.Errorf("price: %w", err)
		}
		p.Price = domain.NewMoneyFromRat(r)
	}
	if d.CompareAtPrice != "" {
		r, err := d.CompareAtPrice.rat()
		if err != nil {
			return domain.ProductSnapshot{}, fmt.Errorf("compare_at_price: %w", err)
		}
		p.CompareAtPrice = domain.NewMoneyFromRat(r)
	}
	return p, nil
}

// ToDomain converts the metrics; a nil document yields nil metrics.
func (d *MetricsDocument) ToDomain() (*domain.ProductMetrics, error) {
	if d == nil {
		return nil, nil
	}
	m := &domain.ProductMetrics{
		UnitsAvailable:    d.UnitsAvailable,
		UnitsSoldInWindow: d.UnitsSoldInWindow,
		WindowDays:        d.WindowDays,
	}
	if d.AverageUnitRetail != "" {
		r, err := d.AverageUnitRetail.rat()
		if err != nil {
			return nil, fmt.Errorf("average_unit_retail: %w", err)
		}
		m.AverageUnitRetail = domain.NewMoneyFromRat(r)
	}
	return m, nil
}

// ParseAsOf returns the evaluation instant, defaulting to now.
func (d PreviewDocument) ParseAsOf(now time.Time) (time.Time, error) {
	if d.AsOf == "" {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339, d.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of: %w", err)
	}
	return t, nil
}

package repo

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/models/m_product_metrics"
	"github.com/light-bringer/dynprice-service/internal/pkg/query"
)

// MetricsRepo implements MetricsProvider over product_metrics snapshots.
type MetricsRepo struct {
	client *spanner.Client
	model  *m_product_metrics.Model
}

var _ contracts.MetricsProvider = (*MetricsRepo)(nil)

// NewMetricsRepo creates a new MetricsRepo.
func NewMetricsRepo(client *spanner.Client) *MetricsRepo {
	return &MetricsRepo{
		client: client,
		model:  m_product_metrics.NewModel(),
	}
}

// Metrics returns the latest snapshot taken at or before asOf.
func (r *MetricsRepo) Metrics(ctx context.Context, productID string, asOf time.Time) (*domain.ProductMetrics, error) {
	stmt := query.From(m_product_metrics.TableName).
		Select(r.model.ReadColumns()...).
		Where(query.Eq(m_product_metrics.ProductID, productID)).
		Where(query.Lte(m_product_metrics.AsOf, asOf)).
		OrderBy(m_product_metrics.AsOf, query.Desc).
		Limit(1).
		Build()

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return nil, domain.ErrMetricsUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}

	var data m_product_metrics.Data
	if err := row.ToStruct(&data); err != nil {
		return nil, fmt.Errorf("failed to parse metrics: %w", err)
	}

	metrics := &domain.ProductMetrics{WindowDays: data.WindowDays}
	if data.UnitsAvailable.Valid {
		v := data.UnitsAvailable.Int64
		metrics.UnitsAvailable = &v
	}
	if data.UnitsSoldInWindow.Valid {
		v := data.UnitsSoldInWindow.Int64
		metrics.UnitsSoldInWindow = &v
	}
	metrics.AverageUnitRetail, err = nullMoney(data.AverageUnitRetailNumerator, data.AverageUnitRetailDenominator)
	if err != nil {
		return nil, fmt.Errorf("invalid average unit retail: %w", err)
	}
	return metrics, nil
}

// PutMut creates a mutation recording a metrics snapshot.
func (r *MetricsRepo) PutMut(productID string, asOf time.Time, m domain.ProductMetrics) (*spanner.Mutation, error) {
	aurNum, aurDen, err := nullMoneyCols(m.AverageUnitRetail)
	if err != nil {
		return nil, err
	}
	data := &m_product_metrics.Data{
		ProductID:                    productID,
		AsOf:                         asOf,
		WindowDays:                   m.WindowDays,
		AverageUnitRetailNumerator:   aurNum,
		AverageUnitRetailDenominator: aurDen,
	}
	if m.UnitsAvailable != nil {
		data.UnitsAvailable = spanner.NullInt64{Int64: *m.UnitsAvailable, Valid: true}
	}
	if m.UnitsSoldInWindow != nil {
		data.UnitsSoldInWindow = spanner.NullInt64{Int64: *m.UnitsSoldInWindow, Valid: true}
	}
	return r.model.InsertMut(data), nil
}

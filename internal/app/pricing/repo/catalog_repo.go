package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/models/m_product"
	"github.com/light-bringer/dynprice-service/internal/pkg/query"
)

// CatalogRepo implements CatalogProvider for Spanner.
type CatalogRepo struct {
	client *spanner.Client
	model  *m_product.Model
}

var _ contracts.CatalogProvider = (*CatalogRepo)(nil)

// NewCatalogRepo creates a new CatalogRepo.
func NewCatalogRepo(client *spanner.Client) *CatalogRepo {
	return &CatalogRepo{
		client: client,
		model:  m_product.NewModel(),
	}
}

// ListProducts returns the catalog's active products ordered by id.
func (r *CatalogRepo) ListProducts(ctx context.Context, catalogID string) ([]domain.ProductSnapshot, error) {
	stmt := query.From(m_product.TableName).
		Select(r.model.ReadColumns()...).
		Where(query.Eq(m_product.CatalogID, catalogID)).
		Where(query.Eq(m_product.Status, m_product.StatusActive)).
		OrderBy(m_product.ProductID, query.Asc).
		Build()

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	products := make([]domain.ProductSnapshot, 0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate products: %w", err)
		}

		var data m_product.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse product: %w", err)
		}
		p, err := dataToSnapshot(&data)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

// CurrentPrice re-reads one product with a strong read.
func (r *CatalogRepo) CurrentPrice(ctx context.Context, productID string) (*domain.ProductSnapshot, error) {
	row, err := r.client.Single().ReadRow(ctx, m_product.TableName, spanner.Key{productID}, r.model.ReadColumns())
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to read product: %w", err)
	}

	var data m_product.Data
	if err := row.ToStruct(&data); err != nil {
		return nil, fmt.Errorf("failed to parse product: %w", err)
	}
	return dataToSnapshot(&data)
}

// InsertMut creates an upsert mutation for a product at version 1 (or p.Version).
func (r *CatalogRepo) InsertMut(p domain.ProductSnapshot) (*spanner.Mutation, error) {
	if p.Price == nil {
		return nil, domain.ErrMissingPrice
	}
	num, den, err := moneyCols(p.Price)
	if err != nil {
		return nil, err
	}
	caNum, caDen, err := nullMoneyCols(p.CompareAtPrice)
	if err != nil {
		return nil, err
	}
	version := p.Version
	if version == 0 {
		version = 1
	}
	return r.model.InsertMut(&m_product.Data{
		ProductID:            p.ID,
		CatalogID:            p.CatalogID,
		SKU:                  p.SKU,
		Name:                 p.Name,
		Category:             nullString(p.Category),
		Tags:                 p.Tags,
		PriceNumerator:       num,
		PriceDenominator:     den,
		CompareAtNumerator:   caNum,
		CompareAtDenominator: caDen,
		Status:               m_product.StatusActive,
		Version:              version,
		RepricedFor:          nullString(p.RepricedFor),
	}), nil
}

func dataToSnapshot(data *m_product.Data) (*domain.ProductSnapshot, error) {
	price, err := domain.NewMoney(data.PriceNumerator, data.PriceDenominator)
	if err != nil {
		return nil, fmt.Errorf("product %s: invalid price: %w", data.ProductID, err)
	}
	compareAt, err := nullMoney(data.CompareAtNumerator, data.CompareAtDenominator)
	if err != nil {
		return nil, fmt.Errorf("product %s: invalid compare-at price: %w", data.ProductID, err)
	}
	return &domain.ProductSnapshot{
		ID:             data.ProductID,
		CatalogID:      data.CatalogID,
		SKU:            data.SKU,
		Name:           data.Name,
		Category:       data.Category.StringVal,
		Tags:           data.Tags,
		Price:          price,
		CompareAtPrice: compareAt,
		Version:        data.Version,
		RepricedFor:    data.RepricedFor.StringVal,
	}, nil
}

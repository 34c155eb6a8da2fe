package repo

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/models/m_price_history"
	"github.com/light-bringer/dynprice-service/internal/models/m_product"
	"github.com/light-bringer/dynprice-service/internal/pkg/committer"
	"github.com/light-bringer/dynprice-service/internal/pkg/query"
)

// PriceStore implements contracts.PriceStore for Spanner.
type PriceStore struct {
	client    *spanner.Client
	committer *committer.Committer
	products  *m_product.Model
	history   *m_price_history.Model
	outbox    contracts.OutboxRepository
}

var _ contracts.PriceStore = (*PriceStore)(nil)

// NewPriceStore creates a new PriceStore.
func NewPriceStore(client *spanner.Client, c *committer.Committer, outbox contracts.OutboxRepository) *PriceStore {
	return &PriceStore{
		client:    client,
		committer: c,
		products:  m_product.NewModel(),
		history:   m_price_history.NewModel(),
		outbox:    outbox,
	}
}

// UpdatePriceMut creates a mutation setting a product's price and compare-at
// price and bumping its version past currentVersion.
func (s *PriceStore) UpdatePriceMut(productID string, price, compareAt *domain.Money, currentVersion int64) (*spanner.Mutation, error) {
	num, den, err := moneyCols(price)
	if err != nil {
		return nil, err
	}
	caNum, caDen, err := nullMoneyCols(compareAt)
	if err != nil {
		return nil, err
	}
	return s.products.UpdatePriceMut(productID, num, den, caNum, caDen, currentVersion+1), nil
}

// AppendHistoryMut creates a mutation inserting a price history entry.
func (s *PriceStore) AppendHistoryMut(entry *domain.PriceHistoryEntry) (*spanner.Mutation, error) {
	num, den, err := moneyCols(entry.Price)
	if err != nil {
		return nil, err
	}
	data := &m_price_history.Data{
		HistoryID:        entry.ID,
		ProductID:        entry.ProductID,
		PriceNumerator:   num,
		PriceDenominator: den,
		RuleID:           nullString(entry.RuleID),
		RuleSetID:        nullString(entry.RuleSetID),
		RunID:            nullString(entry.RunID),
		Reason:           nullString(entry.Reason),
		ChangedAt:        entry.Timestamp,
	}
	if data.PreviousPriceNumerator, data.PreviousPriceDenominator, err = nullMoneyCols(entry.PreviousPrice); err != nil {
		return nil, err
	}
	if data.CompareAtNumerator, data.CompareAtDenominator, err = nullMoneyCols(entry.CompareAtPrice); err != nil {
		return nil, err
	}
	if data.AverageUnitRetailNumerator, data.AverageUnitRetailDenominator, err = nullMoneyCols(entry.AverageUnitRetail); err != nil {
		return nil, err
	}
	return s.history.InsertMut(data), nil
}

// ApplyPriceChange commits price, history and events in one transaction,
// guarded by the product's version and, when set, the run lease.
func (s *PriceStore) ApplyPriceChange(ctx context.Context, change *contracts.PriceChange) error {
	plan := committer.NewPlan()

	priceMut, err := s.UpdatePriceMut(change.ProductID, change.Price, change.CompareAtPrice, change.ExpectedVersion)
	if err != nil {
		return err
	}
	plan.Add(priceMut)

	if change.History != nil {
		historyMut, err := s.AppendHistoryMut(change.History)
		if err != nil {
			return err
		}
		plan.Add(historyMut)
	}

	for _, event := range change.Events {
		plan.Add(s.outbox.InsertMut(event))
	}

	var checks []committer.Check
	if change.Lease != nil {
		plan.Add(s.products.StampRunMut(change.ProductID, change.Lease.Key.String()))
		checks = append(checks, LeaseCheck(*change.Lease))
	}

	err = s.committer.ApplyWithVersionCheck(ctx, committer.VersionGuard{
		Table:    m_product.TableName,
		Key:      spanner.Key{change.ProductID},
		Column:   m_product.Version,
		Expected: change.ExpectedVersion,
	}, plan, checks...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrLeaseLost):
		return domain.ErrLeaseLost
	case errors.Is(err, committer.ErrVersionMismatch):
		return fmt.Errorf("%w: %w", domain.ErrVersionConflict, err)
	case spanner.ErrCode(err) == codes.NotFound:
		return domain.ErrProductNotFound
	default:
		return err
	}
}

// History returns the product's entries, most recent first.
func (s *PriceStore) History(ctx context.Context, productID string, limit int) ([]domain.PriceHistoryEntry, error) {
	stmt := query.From(m_price_history.TableName).
		Select(s.history.ReadColumns()...).
		Where(query.Eq(m_price_history.ProductID, productID)).
		OrderBy(m_price_history.ChangedAt, query.Desc).
		OrderBy(m_price_history.HistoryID, query.Asc).
		Limit(int64(limit)).
		Build()

	iter := s.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	entries := make([]domain.PriceHistoryEntry, 0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate price history: %w", err)
		}

		var data m_price_history.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse price history: %w", err)
		}

		entry, err := dataToHistory(&data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func dataToHistory(data *m_price_history.Data) (*domain.PriceHistoryEntry, error) {
	price, err := domain.NewMoney(data.PriceNumerator, data.PriceDenominator)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	entry := &domain.PriceHistoryEntry{
		ID:        data.HistoryID,
		ProductID: data.ProductID,
		Timestamp: data.ChangedAt,
		Price:     price,
		RuleID:    data.RuleID.StringVal,
		RuleSetID: data.RuleSetID.StringVal,
		RunID:     data.RunID.StringVal,
		Reason:    data.Reason.StringVal,
	}
	if entry.PreviousPrice, err = nullMoney(data.PreviousPriceNumerator, data.PreviousPriceDenominator); err != nil {
		return nil, fmt.Errorf("invalid previous price: %w", err)
	}
	if entry.CompareAtPrice, err = nullMoney(data.CompareAtNumerator, data.CompareAtDenominator); err != nil {
		return nil, fmt.Errorf("invalid compare-at price: %w", err)
	}
	if entry.AverageUnitRetail, err = nullMoney(data.AverageUnitRetailNumerator, data.AverageUnitRetailDenominator); err != nil {
		return nil, fmt.Errorf("invalid average unit retail: %w", err)
	}
	return entry, nil
}

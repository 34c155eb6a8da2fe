// Package memory is an in-process implementation of the pricing contracts.
// It backs the memory store driver, the preview CLI and the use case tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

type ruleSetRow struct {
	rs        domain.RuleSet
	createdAt time.Time
	enabled   bool
}

// Store keeps products, metrics, rule sets, price history, the run log and
// outbox events in maps guarded by a single RWMutex.
type Store struct {
	mu       sync.RWMutex
	products map[string]domain.ProductSnapshot
	metrics  map[string]domain.ProductMetrics
	ruleSets map[string]*ruleSetRow
	history  map[string][]domain.PriceHistoryEntry
	runs     map[domain.RunKey]*contracts.RunRecord
	outbox   []*contracts.OutboxEvent
}

var (
	_ contracts.CatalogProvider = (*Store)(nil)
	_ contracts.MetricsProvider = (*Store)(nil)
	_ contracts.PriceStore      = (*Store)(nil)
	_ contracts.RuleSetStore    = (*Store)(nil)
	_ contracts.RunLog          = (*Store)(nil)
)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		products: make(map[string]domain.ProductSnapshot),
		metrics:  make(map[string]domain.ProductMetrics),
		ruleSets: make(map[string]*ruleSetRow),
		history:  make(map[string][]domain.PriceHistoryEntry),
		runs:     make(map[domain.RunKey]*contracts.RunRecord),
	}
}

// PutProduct inserts or replaces a product. A new product starts at version 1.
func (s *Store) PutProduct(p domain.ProductSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Version == 0 {
		p.Version = 1
	}
	s.products[p.ID] = cloneProduct(p)
}

// Product returns a copy of the stored product.
func (s *Store) Product(productID string) (domain.ProductSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[productID]
	return cloneProduct(p), ok
}

// PutMetrics inserts or replaces a product's metrics.
func (s *Store) PutMetrics(productID string, m domain.ProductMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[productID] = m
}

// ListProducts returns the catalog's products ordered by id.
func (s *Store) ListProducts(ctx context.Context, catalogID string) ([]domain.ProductSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ProductSnapshot, 0)
	for _, p := range s.products {
		if p.CatalogID == catalogID {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CurrentPrice returns the product as currently stored.
func (s *Store) CurrentPrice(ctx context.Context, productID string) (*domain.ProductSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := s.Product(productID)
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

// Metrics returns the product's metrics or domain.ErrMetricsUnavailable.
func (s *Store) Metrics(ctx context.Context, productID string, _ time.Time) (*domain.ProductMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.metrics[productID]
	if !ok {
		return nil, domain.ErrMetricsUnavailable
	}
	return &m, nil
}

// ApplyPriceChange updates the product and appends history and outbox events together.
func (s *Store) ApplyPriceChange(ctx context.Context, change *contracts.PriceChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[change.ProductID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.Version != change.ExpectedVersion {
		return domain.ErrVersionConflict
	}
	if l := change.Lease; l != nil {
		if !s.holdsLease(l.Key, l.Owner, l.At) {
			return domain.ErrLeaseLost
		}
		p.RepricedFor = l.Key.String()
	}

	p.Price = change.Price.Copy()
	p.CompareAtPrice = nil
	if change.CompareAtPrice != nil {
		p.CompareAtPrice = change.CompareAtPrice.Copy()
	}
	p.Version++
	s.products[p.ID] = p

	if change.History != nil {
		s.history[p.ID] = append(s.history[p.ID], *change.History)
	}
	s.outbox = append(s.outbox, change.Events...)
	return nil
}

// History returns the product's entries, most recent first.
func (s *Store) History(ctx context.Context, productID string, limit int) ([]domain.PriceHistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.history[productID]
	out := make([]domain.PriceHistoryEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, entries[i])
	}
	return out, nil
}

// Save validates and upserts a rule set. New rule sets are enabled. The
// creation time is CreatedAt, falling back to UpdatedAt; zero is always visible.
func (s *Store) Save(ctx context.Context, rs domain.RuleSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rs.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.ruleSets[rs.ID]
	if !ok {
		row = &ruleSetRow{createdAt: rs.CreatedAt, enabled: true}
		s.ruleSets[rs.ID] = row
	}
	if row.createdAt.IsZero() {
		row.createdAt = rs.UpdatedAt
	}
	rs.CreatedAt = row.createdAt
	row.rs = rs
	return nil
}

// Disable keeps the rule set but excludes it from ActiveRuleSets.
func (s *Store) Disable(ruleSetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.ruleSets[ruleSetID]; ok {
		row.enabled = false
	}
}

// GetRuleSet returns a rule set by id.
func (s *Store) GetRuleSet(ctx context.Context, ruleSetID string) (*domain.RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.ruleSets[ruleSetID]
	if !ok {
		return nil, domain.ErrRuleSetNotFound
	}
	rs := row.rs
	return &rs, nil
}

// ActiveRuleSets returns enabled rule sets created at or before asOf, in evaluation order.
func (s *Store) ActiveRuleSets(ctx context.Context, catalogID string, asOf time.Time) ([]domain.RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.RuleSet, 0)
	for _, row := range s.ruleSets {
		if !row.enabled || row.rs.CatalogID != catalogID || row.createdAt.After(asOf) {
			continue
		}
		out = append(out, row.rs)
	}
	domain.SortRuleSets(out)
	return out, nil
}

// Events returns a copy of the outbox.
func (s *Store) Events() []*contracts.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*contracts.OutboxEvent(nil), s.outbox...)
}

func cloneProduct(p domain.ProductSnapshot) domain.ProductSnapshot {
	p.Tags = append([]string(nil), p.Tags...)
	if p.Price != nil {
		p.Price = p.Price.Copy()
	}
	if p.CompareAtPrice != nil {
		p.CompareAtPrice = p.CompareAtPrice.Copy()
	}
	return p
}

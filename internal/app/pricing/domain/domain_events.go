package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventType() string
	AggregateID() string
}

// ProductRepricedEvent is emitted when a run changes a product's price or compare-at price.
type ProductRepricedEvent struct {
	ProductID         string    `json:"product_id"`
	RunID             string    `json:"run_id"`
	RuleSetID         string    `json:"rule_set_id"`
	AppliedRuleIDs    []string  `json:"applied_rule_ids"`
	OldPrice          *Money    `json:"old_price"`
	NewPrice          *Money    `json:"new_price"`
	NewCompareAtPrice *Money    `json:"new_compare_at_price,omitempty"`
	RepricedAt        time.Time `json:"repriced_at"`
}

func (e *ProductRepricedEvent) EventType() string {
	return "product.repriced"
}

func (e *ProductRepricedEvent) AggregateID() string {
	return e.ProductID
}

// RunCompletedEvent is emitted when a catalog's daily run is marked complete.
type RunCompletedEvent struct {
	RunID     string     `json:"run_id"`
	CatalogID string     `json:"catalog_id"`
	RunDate   civil.Date `json:"run_date"`
	Timezone  string     `json:"timezone"`
	Updated   int        `json:"updated"`
	Unchanged int        `json:"unchanged"`
	Failed    int        `json:"failed"`
}

func (e *RunCompletedEvent) EventType() string {
	return "pricing.run_completed"
}

func (e *RunCompletedEvent) AggregateID() string {
	return e.CatalogID
}

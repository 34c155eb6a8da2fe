package m_rule_set

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents a rule_sets row. Rules is the JSON array of rule documents.
type Data struct {
	RuleSetID     string             `spanner:"rule_set_id"`
	CatalogID     string             `spanner:"catalog_id"`
	Name          spanner.NullString `spanner:"name"`
	Priority      int64              `spanner:"priority"`
	ProductIDs    []string           `spanner:"product_ids"`
	Selector      spanner.NullString `spanner:"selector"`
	Rules         spanner.NullJSON   `spanner:"rules"`
	ScheduleStart spanner.NullTime   `spanner:"schedule_start"`
	ScheduleEnd   spanner.NullTime   `spanner:"schedule_end"`
	Status        string             `spanner:"status"`
	CreatedAt     time.Time          `spanner:"created_at"`
	UpdatedAt     time.Time          `spanner:"updated_at"`
}

// Package m_run_log maps the run_log table: one row per (catalog, run date,
// timezone) recording whether that day's evaluation has run.
package m_run_log

import (
	"time"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/spanner"
)

const (
	TableName = "run_log"

	CatalogID      = "catalog_id"
	RunDate        = "run_date"
	Timezone       = "timezone"
	RunID          = "run_id"
	Status         = "status"
	Owner          = "owner"
	LeaseUntil     = "lease_until"
	StartedAt      = "started_at"
	CompletedAt    = "completed_at"
	UpdatedCount   = "updated_count"
	UnchangedCount = "unchanged_count"
	FailedCount    = "failed_count"
)

// Data represents a run_log row.
type Data struct {
	CatalogID      string           `spanner:"catalog_id"`
	RunDate        civil.Date       `spanner:"run_date"`
	Timezone       string           `spanner:"timezone"`
	RunID          string           `spanner:"run_id"`
	Status         string           `spanner:"status"`
	Owner          string           `spanner:"owner"`
	LeaseUntil     time.Time        `spanner:"lease_until"`
	StartedAt      time.Time        `spanner:"started_at"`
	CompletedAt    spanner.NullTime `spanner:"completed_at"`
	UpdatedCount   int64            `spanner:"updated_count"`
	UnchangedCount int64            `spanner:"unchanged_count"`
	FailedCount    int64            `spanner:"failed_count"`
}

// Model provides type-safe operations on the run_log table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// Key returns the primary key of a run.
func (m *Model) Key(catalogID string, runDate civil.Date, timezone string) spanner.Key {
	return spanner.Key{catalogID, runDate, timezone}
}

// ReadColumns lists the columns Data is scanned from.
func (m *Model) ReadColumns() []string {
	return []string{
		CatalogID,
		RunDate,
		Timezone,
		RunID,
		Status,
		Owner,
		LeaseUntil,
		StartedAt,
		CompletedAt,
		UpdatedCount,
		UnchangedCount,
		FailedCount,
	}
}

// UpsertMut writes the whole row.
func (m *Model) UpsertMut(data *Data) *spanner.Mutation {
	mut, _ := spanner.InsertOrUpdateStruct(TableName, data)
	return mut
}

// DeleteMut removes a run row.
func (m *Model) DeleteMut(catalogID string, runDate civil.Date, timezone string) *spanner.Mutation {
	return spanner.Delete(TableName, m.Key(catalogID, runDate, timezone))
}

// Package view holds the JSON shapes shared by the HTTP and gRPC surfaces.
package view

import (
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// Result is a ProductResult on the wire. Money renders as exact decimal strings.
type Result struct {
	ProductID       string        `json:"product_id"`
	RuleSetID       string        `json:"rule_set_id,omitempty"`
	BeforePrice     *domain.Money `json:"before_price,omitempty"`
	AfterPrice      *domain.Money `json:"after_price,omitempty"`
	BeforeCompareAt *domain.Money `json:"before_compare_at_price,omitempty"`
	AfterCompareAt  *domain.Money `json:"after_compare_at_price,omitempty"`
	AppliedRuleIDs  []string      `json:"applied_rule_ids"`
	Outcome         string        `json:"outcome"`
	Error           string        `json:"error,omitempty"`
}

// FromResult converts a ProductResult.
func FromResult(r *domain.ProductResult) Result {
	v := Result{
		ProductID:       r.ProductID,
		RuleSetID:       r.RuleSetID,
		BeforePrice:     r.BeforePrice,
		AfterPrice:      r.AfterPrice,
		BeforeCompareAt: r.BeforeCompareAt,
		AfterCompareAt:  r.AfterCompareAt,
		AppliedRuleIDs:  r.AppliedRuleIDs,
		Outcome:         string(r.Outcome),
	}
	if v.AppliedRuleIDs == nil {
		v.AppliedRuleIDs = []string{}
	}
	if r.Error != nil {
		v.Error = r.Error.Error()
	}
	return v
}

// Run summarizes an evaluation run.
type Run struct {
	RunID       string     `json:"run_id"`
	CatalogID   string     `json:"catalog_id"`
	RunDate     string     `json:"run_date"`
	Timezone    string     `json:"timezone"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Updated     int        `json:"updated"`
	Unchanged   int        `json:"unchanged"`
	Failed      int        `json:"failed"`
	Results     []Result   `json:"results,omitempty"`
}

// FromRun converts a run that just finished.
func FromRun(run *domain.EvaluationRun) Run {
	updated, unchanged, failed := run.Counts()
	completed := run.CompletedAt
	v := Run{
		RunID:       run.ID,
		CatalogID:   run.Key.CatalogID,
		RunDate:     run.Key.RunDate.String(),
		Timezone:    run.Key.Timezone,
		Status:      string(domain.RunStatusCompleted),
		StartedAt:   run.StartedAt,
		CompletedAt: &completed,
		Updated:     updated,
		Unchanged:   unchanged,
		Failed:      failed,
	}
	for i := range run.Results {
		v.Results = append(v.Results, FromResult(&run.Results[i]))
	}
	return v
}

// FromRecord converts a stored run record.
func FromRecord(rec *contracts.RunRecord) Run {
	v := Run{
		RunID:     rec.RunID,
		CatalogID: rec.Key.CatalogID,
		RunDate:   rec.Key.RunDate.String(),
		Timezone:  rec.Key.Timezone,
		Status:    string(rec.Status),
		StartedAt: rec.StartedAt,
		Updated:   rec.Updated,
		Unchanged: rec.Unchanged,
		Failed:    rec.Failed,
	}
	if !rec.CompletedAt.IsZero() {
		completed := rec.CompletedAt
		v.CompletedAt = &completed
	}
	for i := range rec.Results {
		v.Results = append(v.Results, FromResult(&rec.Results[i]))
	}
	return v
}

// HistoryEntry is a PriceHistoryEntry on the wire.
type HistoryEntry struct {
	ID                string        `json:"id"`
	ProductID         string        `json:"product_id"`
	Timestamp         time.Time     `json:"timestamp"`
	Price             *domain.Money `json:"price"`
	PreviousPrice     *domain.Money `json:"previous_price,omitempty"`
	CompareAtPrice    *domain.Money `json:"compare_at_price,omitempty"`
	AverageUnitRetail *domain.Money `json:"average_unit_retail,omitempty"`
	RuleID            string        `json:"rule_id,omitempty"`
	RuleSetID         string        `json:"rule_set_id,omitempty"`
	RunID             string        `json:"run_id,omitempty"`
	Reason            string        `json:"reason,omitempty"`
}

// FromHistory converts history entries.
func FromHistory(entries []domain.PriceHistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			ID:                e.ID,
			ProductID:         e.ProductID,
			Timestamp:         e.Timestamp,
			Price:             e.Price,
			PreviousPrice:     e.PreviousPrice,
			CompareAtPrice:    e.CompareAtPrice,
			AverageUnitRetail: e.AverageUnitRetail,
			RuleID:            e.RuleID,
			RuleSetID:         e.RuleSetID,
			RunID:             e.RunID,
			Reason:            e.Reason,
		})
	}
	return out
}

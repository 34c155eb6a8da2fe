package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// ProductSnapshot is the catalog view of a product at evaluation time.
type ProductSnapshot struct {
	ID             string
	CatalogID      string
	SKU            string
	Name           string
	Category       string
	Tags           []string
	Price          *Money
	CompareAtPrice *Money // nil when the product is not marked down
	Version        int64
	RepricedFor    string // RunKey.String() of the run that last repriced it
}

// Outcome is the terminal state of one product in a run.
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
)

// ProductResult is the effect of a rule set on one product.
type ProductResult struct {
	ProductID       string
	RuleSetID       string
	BeforePrice     *Money
	AfterPrice      *Money
	BeforeCompareAt *Money
	AfterCompareAt  *Money
	AppliedRuleIDs  []string
	Outcome         Outcome
	Error           error
}

// Changed reports whether persisting the result would modify the product.
func (r *ProductResult) Changed() bool {
	if r.Error != nil || r.BeforePrice == nil || r.AfterPrice == nil {
		return false
	}
	return !r.BeforePrice.Equals(r.AfterPrice) || !moneyPtrEqual(r.BeforeCompareAt, r.AfterCompareAt)
}

// Fail marks the result failed, leaving the product's price untouched.
func (r *ProductResult) Fail(err error) {
	r.Error = err
	r.Outcome = OutcomeFailed
	if r.BeforePrice != nil {
		r.AfterPrice = r.BeforePrice.Copy()
	}
	r.AfterCompareAt = r.BeforeCompareAt
}

// RunKey identifies one daily run of a catalog.
type RunKey struct {
	CatalogID string
	RunDate   civil.Date
	Timezone  string
}

// RunKeyFor derives the run key for asOf, using asOf's location as the run timezone.
func RunKeyFor(catalogID string, asOf time.Time) RunKey {
	return RunKey{
		CatalogID: catalogID,
		RunDate:   civil.DateOf(asOf),
		Timezone:  asOf.Location().String(),
	}
}

// String renders the key as catalog/date/timezone.
func (k RunKey) String() string {
	return k.CatalogID + "/" + k.RunDate.String() + "/" + k.Timezone
}

// RunStatus is the RunLog state of a run key.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
)

// EvaluationRun is one daily, catalog-wide application of rules.
type EvaluationRun struct {
	ID          string
	Key         RunKey
	AsOf        time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	Results     []ProductResult
}

// Counts returns how many products ended in each outcome.
func (r *EvaluationRun) Counts() (updated, unchanged, failed int) {
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeUpdated:
			updated++
		case OutcomeUnchanged:
			unchanged++
		case OutcomeFailed:
			failed++
		}
	}
	return updated, unchanged, failed
}

// PriceHistoryEntry is an immutable audit record of a price change.
type PriceHistoryEntry struct {
	ID                string
	ProductID         string
	Timestamp         time.Time
	Price             *Money
	PreviousPrice     *Money
	CompareAtPrice    *Money
	AverageUnitRetail *Money
	RuleID            string
	RuleSetID         string
	RunID             string
	Reason            string
}

package view

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

func TestFromResult_JSON(t *testing.T) {
	res := &domain.ProductResult{
		ProductID:   "p1",
		RuleSetID:   "spring",
		BeforePrice: domain.MustParseMoney("50"),
		AfterPrice:  domain.MustParseMoney("50"),
		Outcome:     domain.OutcomeFailed,
		Error:       errors.New("boom"),
	}

	data, err := json.Marshal(FromResult(res))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"product_id": "p1",
		"rule_set_id": "spring",
		"before_price": "50.00",
		"after_price": "50.00",
		"applied_rule_ids": [],
		"outcome": "failed",
		"error": "boom"
	}`, string(data))
}

func TestFromRecord(t *testing.T) {
	rec := &contracts.RunRecord{
		Key:       domain.RunKey{CatalogID: "spring", RunDate: civil.Date{Year: 2026, Month: 6, Day: 1}, Timezone: "America/New_York"},
		RunID:     "run-1",
		Status:    domain.RunStatusRunning,
		StartedAt: time.Date(2026, 6, 1, 16, 0, 0, 0, time.UTC),
	}

	v := FromRecord(rec)
	assert.Equal(t, "2026-06-01", v.RunDate)
	assert.Equal(t, "running", v.Status)
	assert.Nil(t, v.CompletedAt)
	assert.Empty(t, v.Results)
}

func TestFromRun_Counts(t *testing.T) {
	run := &domain.EvaluationRun{
		ID:  "run-1",
		Key: domain.RunKey{CatalogID: "spring", RunDate: civil.Date{Year: 2026, Month: 6, Day: 1}, Timezone: "UTC"},
		Results: []domain.ProductResult{
			{ProductID: "a", Outcome: domain.OutcomeUpdated},
			{ProductID: "b", Outcome: domain.OutcomeUnchanged},
			{ProductID: "c", Outcome: domain.OutcomeUpdated},
		},
	}

	v := FromRun(run)
	assert.Equal(t, 2, v.Updated)
	assert.Equal(t, 1, v.Unchanged)
	assert.Equal(t, 0, v.Failed)
	assert.Len(t, v.Results, 3)
	assert.Equal(t, "completed", v.Status)
}

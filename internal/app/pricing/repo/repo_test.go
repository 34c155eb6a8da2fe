package repo

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/models/m_evaluation_result"
	"github.com/light-bringer/dynprice-service/internal/models/m_price_history"
	"github.com/light-bringer/dynprice-service/internal/models/m_product"
	"github.com/light-bringer/dynprice-service/internal/models/m_run_log"
)

func TestMoneyCols(t *testing.T) {
	num, den, err := moneyCols(domain.MustParseMoney("19.99"))
	require.NoError(t, err)
	assert.Equal(t, int64(1999), num)
	assert.Equal(t, int64(100), den)

	num, den, err = moneyCols(domain.MustParseMoney("40.00"))
	require.NoError(t, err)
	assert.Equal(t, int64(40), num)
	assert.Equal(t, int64(1), den)

	huge := domain.MustParseMoney("1e30")
	_, _, err = moneyCols(huge)
	assert.ErrorIs(t, err, domain.ErrMoneyOverflow)
}

func TestNullMoney(t *testing.T) {
	num, den, err := nullMoneyCols(nil)
	require.NoError(t, err)
	assert.False(t, num.Valid)
	assert.False(t, den.Valid)

	m, err := nullMoney(num, den)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = nullMoney(spanner.NullInt64{Int64: 45, Valid: true}, spanner.NullInt64{Int64: 2, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, "22.50", m.Exact())
}

func TestDataToSnapshot(t *testing.T) {
	p, err := dataToSnapshot(&m_product.Data{
		ProductID:            "p1",
		CatalogID:            "spring",
		SKU:                  "SKU-1",
		Name:                 "Linen shirt",
		Category:             spanner.NullString{StringVal: "apparel", Valid: true},
		Tags:                 []string{"summer"},
		PriceNumerator:       4999,
		PriceDenominator:     100,
		CompareAtNumerator:   spanner.NullInt64{Int64: 60, Valid: true},
		CompareAtDenominator: spanner.NullInt64{Int64: 1, Valid: true},
		Version:              7,
		RepricedFor:          spanner.NullString{StringVal: "spring/2026-06-01/America/New_York", Valid: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "spring/2026-06-01/America/New_York", p.RepricedFor)
	assert.Equal(t, "apparel", p.Category)
	assert.Equal(t, "49.99", p.Price.Exact())
	require.NotNil(t, p.CompareAtPrice)
	assert.Equal(t, "60.00", p.CompareAtPrice.Exact())
	assert.Equal(t, int64(7), p.Version)

	_, err = dataToSnapshot(&m_product.Data{ProductID: "bad", PriceNumerator: 1, PriceDenominator: 0})
	assert.Error(t, err)
}

func TestDataToHistory(t *testing.T) {
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	entry, err := dataToHistory(&m_price_history.Data{
		HistoryID:                "h1",
		ProductID:                "p1",
		PriceNumerator:           40,
		PriceDenominator:         1,
		PreviousPriceNumerator:   spanner.NullInt64{Int64: 50, Valid: true},
		PreviousPriceDenominator: spanner.NullInt64{Int64: 1, Valid: true},
		RuleID:                   spanner.NullString{StringVal: "clearance", Valid: true},
		ChangedAt:                at,
	})
	require.NoError(t, err)
	assert.Equal(t, "40.00", entry.Price.Exact())
	assert.Equal(t, "50.00", entry.PreviousPrice.Exact())
	assert.Nil(t, entry.CompareAtPrice)
	assert.Equal(t, "clearance", entry.RuleID)
	assert.Empty(t, entry.RunID)
	assert.True(t, at.Equal(entry.Timestamp))
}

func TestResultRoundTrip(t *testing.T) {
	r := &RunLogRepo{results: m_evaluation_result.NewModel()}

	mut, err := r.resultMut("run-1", domain.ProductResult{
		ProductID:      "p1",
		RuleSetID:      "rs",
		BeforePrice:    domain.MustParseMoney("50"),
		AfterPrice:     domain.MustParseMoney("40"),
		AfterCompareAt: domain.MustParseMoney("50"),
		AppliedRuleIDs: []string{"r1"},
		Outcome:        domain.OutcomeUpdated,
	})
	require.NoError(t, err)
	assert.NotNil(t, mut)

	res, err := dataToResult(&m_evaluation_result.Data{
		RunID:                  "run-1",
		ProductID:              "p2",
		BeforePriceNumerator:   spanner.NullInt64{Int64: 10, Valid: true},
		BeforePriceDenominator: spanner.NullInt64{Int64: 1, Valid: true},
		AfterPriceNumerator:    spanner.NullInt64{Int64: 10, Valid: true},
		AfterPriceDenominator:  spanner.NullInt64{Int64: 1, Valid: true},
		Outcome:                string(domain.OutcomeFailed),
		ErrorMessage:           spanner.NullString{StringVal: "price persistence failed", Valid: true},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.EqualError(t, res.Error, "price persistence failed")
	assert.Equal(t, []string{}, res.AppliedRuleIDs)
	assert.Nil(t, res.AfterCompareAt)
}

func TestResultMut_Overflow(t *testing.T) {
	r := &RunLogRepo{results: m_evaluation_result.NewModel()}
	_, err := r.resultMut("run-1", domain.ProductResult{
		ProductID:   "p1",
		BeforePrice: domain.MustParseMoney("1e30"),
	})
	assert.ErrorIs(t, err, domain.ErrMoneyOverflow)
}

func TestPurgeStatement(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	stmt := PurgeStatement(now, Retention{Completed: 24 * time.Hour, Failed: 48 * time.Hour})

	assert.Equal(t,
		"SELECT event_id FROM outbox_events WHERE ((status = @p0 AND processed_at < @p1) OR (status = @p2 AND processed_at < @p3))",
		stmt.SQL)
	assert.Equal(t, "completed", stmt.Params["p0"])
	assert.Equal(t, now.Add(-24*time.Hour), stmt.Params["p1"])
	assert.Equal(t, "failed", stmt.Params["p2"])
	assert.Equal(t, now.Add(-48*time.Hour), stmt.Params["p3"])
}

func TestLeaseHeld(t *testing.T) {
	now := time.Date(2026, 6, 1, 16, 0, 0, 0, time.UTC)
	running := func(owner string, until time.Time) *m_run_log.Data {
		return &m_run_log.Data{Status: string(domain.RunStatusRunning), Owner: owner, LeaseUntil: until}
	}

	assert.True(t, leaseHeld(running("node-a", now.Add(time.Second)), "node-a", now))
	assert.False(t, leaseHeld(running("node-a", now), "node-a", now), "lapses at lease_until")
	assert.False(t, leaseHeld(running("node-b", now.Add(time.Hour)), "node-a", now))
	assert.False(t, leaseHeld(nil, "node-a", now))

	done := running("node-a", now.Add(time.Hour))
	done.Status = string(domain.RunStatusCompleted)
	assert.False(t, leaseHeld(done, "node-a", now))
}

func TestRunLogError(t *testing.T) {
	wrapped := errors.Join(errors.New("transaction failed"), domain.ErrRunInProgress)
	assert.Same(t, domain.ErrRunInProgress, runLogError(wrapped))
	assert.Nil(t, runLogError(nil))
	assert.Same(t, domain.ErrLeaseLost, runLogError(errors.Join(errors.New("transaction failed"), domain.ErrLeaseLost)))

	other := errors.New("unavailable")
	assert.Same(t, other, runLogError(other))
}

//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo"
	"github.com/light-bringer/dynprice-service/internal/models/m_price_history"
	"github.com/light-bringer/dynprice-service/internal/pkg/committer"
	"github.com/light-bringer/dynprice-service/tests/testutil"
)

func repricedChange(t *testing.T, productID string, version int64, price, previous string) *contracts.PriceChange {
	t.Helper()
	event, err := contracts.EnrichEvent(&domain.ProductRepricedEvent{ProductID: productID})
	require.NoError(t, err)
	return &contracts.PriceChange{
		ProductID:       productID,
		ExpectedVersion: version,
		Price:           domain.MustParseMoney(price),
		CompareAtPrice:  domain.MustParseMoney(previous),
		History: &domain.PriceHistoryEntry{
			ID:             "h-" + price,
			ProductID:      productID,
			Timestamp:      testutil.Noon(1),
			Price:          domain.MustParseMoney(price),
			PreviousPrice:  domain.MustParseMoney(previous),
			CompareAtPrice: domain.MustParseMoney(previous),
			RuleID:         "markdown",
			RuleSetID:      "overstock",
			RunID:          "run-1",
			Reason:         "rules: markdown",
		},
		Events: []*contracts.OutboxEvent{event},
	}
}

func TestPriceStore_ApplyPriceChange(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	testutil.InsertProduct(t, client, testutil.NewProductBuilder("p1").Build())
	store := repo.NewPriceStore(client, committer.NewCommitter(client), repo.NewOutboxRepo(client))

	require.NoError(t, store.ApplyPriceChange(ctx, repricedChange(t, "p1", 1, "80.00", "100.00")))

	p, err := repo.NewCatalogRepo(client).CurrentPrice(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, p.Price.Equals(domain.MustParseMoney("80")))
	assert.True(t, p.CompareAtPrice.Equals(domain.MustParseMoney("100")))
	assert.Equal(t, int64(2), p.Version)

	testutil.AssertRowCount(t, client, m_price_history.TableName, 1)
	assert.Equal(t, 1, testutil.CountOutboxEvents(t, client, "product.repriced"))

	history, err := store.History(ctx, "p1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "markdown", history[0].RuleID)
	assert.True(t, history[0].PreviousPrice.Equals(domain.MustParseMoney("100")))
}

func TestPriceStore_StaleVersionWritesNothing(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	testutil.InsertProduct(t, client, testutil.NewProductBuilder("p1").Build())
	store := repo.NewPriceStore(client, committer.NewCommitter(client), repo.NewOutboxRepo(client))

	err := store.ApplyPriceChange(ctx, repricedChange(t, "p1", 7, "80.00", "100.00"))
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	testutil.AssertRowCount(t, client, m_price_history.TableName, 0)
	assert.Equal(t, 0, testutil.CountOutboxEvents(t, client, "product.repriced"))

	err = store.ApplyPriceChange(ctx, repricedChange(t, "missing", 1, "80.00", "100.00"))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestPriceStore_LeaseFencedWrite(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	now := testutil.Noon(1)
	key := domain.RunKeyFor("spring", now)
	testutil.InsertProduct(t, client, testutil.NewProductBuilder("p1").Build())
	testutil.InsertProduct(t, client, testutil.NewProductBuilder("p2").Build())

	comm := committer.NewCommitter(client)
	outbox := repo.NewOutboxRepo(client)
	store := repo.NewPriceStore(client, comm, outbox)
	runLog := repo.NewRunLogRepo(client, comm, outbox)
	require.NoError(t, runLog.Acquire(ctx, key, "run-1", "node-a", now, now.Add(time.Minute)))

	held := repricedChange(t, "p1", 1, "80.00", "100.00")
	held.Lease = &contracts.RunLease{Key: key, Owner: "node-a", At: now.Add(30 * time.Second)}
	require.NoError(t, store.ApplyPriceChange(ctx, held))

	p, err := repo.NewCatalogRepo(client).CurrentPrice(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, key.String(), p.RepricedFor)

	lapsed := repricedChange(t, "p2", 1, "70.00", "100.00")
	lapsed.Lease = &contracts.RunLease{Key: key, Owner: "node-a", At: now.Add(2 * time.Minute)}
	err = store.ApplyPriceChange(ctx, lapsed)
	assert.ErrorIs(t, err, domain.ErrLeaseLost)

	p, err = repo.NewCatalogRepo(client).CurrentPrice(ctx, "p2")
	require.NoError(t, err)
	assert.True(t, p.Price.Equals(domain.MustParseMoney("100")))
	assert.Empty(t, p.RepricedFor)
	testutil.AssertRowCount(t, client, m_price_history.TableName, 1)
}

func TestPriceStore_HistoryNewestFirst(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	testutil.InsertProduct(t, client, testutil.NewProductBuilder("p1").Build())
	store := repo.NewPriceStore(client, committer.NewCommitter(client), repo.NewOutboxRepo(client))

	first := repricedChange(t, "p1", 1, "90.00", "100.00")
	second := repricedChange(t, "p1", 2, "80.00", "100.00")
	second.History.Timestamp = testutil.Noon(2)
	require.NoError(t, store.ApplyPriceChange(ctx, first))
	require.NoError(t, store.ApplyPriceChange(ctx, second))

	history, err := store.History(ctx, "p1", 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Price.Equals(domain.MustParseMoney("80")))
}

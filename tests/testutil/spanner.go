package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/models/m_evaluation_result"
	"github.com/light-bringer/dynprice-service/internal/models/m_outbox"
	"github.com/light-bringer/dynprice-service/internal/models/m_price_history"
	"github.com/light-bringer/dynprice-service/internal/models/m_product"
	"github.com/light-bringer/dynprice-service/internal/models/m_product_metrics"
	"github.com/light-bringer/dynprice-service/internal/models/m_rule_set"
	"github.com/light-bringer/dynprice-service/internal/models/m_run_log"
)

// SpannerAvailable reports whether an emulator is configured.
func SpannerAvailable() bool {
	return os.Getenv("SPANNER_EMULATOR_HOST") != ""
}

// SetupSpannerTest creates a test Spanner client on a clean database and
// returns a cleanup function. The test is skipped without an emulator.
func SetupSpannerTest(t *testing.T) (*spanner.Client, func()) {
	t.Helper()
	if !SpannerAvailable() {
		t.Skip("SPANNER_EMULATOR_HOST not set")
	}

	client, err := spanner.NewClient(context.Background(), GetTestSpannerDB())
	require.NoError(t, err, "failed to create Spanner client")

	CleanDatabase(t, client)

	cleanup := func() {
		CleanDatabase(t, client)
		client.Close()
	}
	return client, cleanup
}

// GetTestSpannerDB returns SPANNER_TEST_DATABASE or the emulator default.
// The schema is created by cmd/migrate.
func GetTestSpannerDB() string {
	if db := os.Getenv("SPANNER_TEST_DATABASE"); db != "" {
		return db
	}
	return "projects/test-project/instances/test-instance/databases/dynprice-test"
}

// CleanDatabase deletes every row for test isolation.
func CleanDatabase(t *testing.T, client *spanner.Client) {
	t.Helper()

	tables := []string{
		m_outbox.TableName,
		m_evaluation_result.TableName,
		m_run_log.TableName,
		m_rule_set.TableName,
		m_price_history.TableName,
		m_product_metrics.TableName,
		m_product.TableName,
	}
	mutations := make([]*spanner.Mutation, 0, len(tables))
	for _, table := range tables {
		mutations = append(mutations, spanner.Delete(table, spanner.AllKeys()))
	}

	_, err := client.Apply(context.Background(), mutations)
	require.NoError(t, err, "failed to clean database")
}

// AssertRowCount asserts the number of rows in a table.
func AssertRowCount(t *testing.T, client *spanner.Client, table string, expectedCount int) {
	t.Helper()

	stmt := spanner.Statement{SQL: fmt.Sprintf("SELECT COUNT(*) FROM %s", table)}
	iter := client.Single().Query(context.Background(), stmt)
	defer iter.Stop()

	row, err := iter.Next()
	require.NoError(t, err, "failed to query row count")

	var count int64
	require.NoError(t, row.Columns(&count), "failed to parse count")
	require.Equal(t, int64(expectedCount), count, "unexpected row count in table %s", table)
}

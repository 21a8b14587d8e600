package testdb

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/synthgen/internal/platform/postgres"
	"github.com/phrazzld/synthgen/internal/redact"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds connection and migration steps in tests.
const TestTimeout = 10 * time.Second

// databaseURLVars lists the environment variables consulted for the test
// database, in priority order.
var databaseURLVars = []string{"DATABASE_URL", "SYNTHGEN_TEST_DB_URL", "SYNTHGEN_CACHE_DATABASE_URL"}

// migrateOnce applies the schema once per test binary.
var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns the first configured test database URL, or "".
func GetTestDatabaseURL() string {
	for _, name := range databaseURLVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ShouldSkipDatabaseTest reports whether no test database is configured.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

// GetTestDBWithT opens the test database, applies migrations, and registers
// cleanup. It skips the test when no database is configured.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("DATABASE_URL or SYNTHGEN_TEST_DB_URL not set - skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, dbURL, 10)
	require.NoError(t, err, "failed to connect to %s", redact.URL(dbURL))

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close database connection: %v", err)
		}
	})

	migrateOnce.Do(func() {
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		migrateErr = postgres.Migrate(ctx, db, quiet, "up")
	})
	require.NoError(t, migrateErr, "failed to apply migrations")

	return db
}

// WithTx runs fn inside a transaction that is rolled back afterwards.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Logf("Warning: failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}

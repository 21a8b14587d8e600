// Package testdb provides helpers for tests that need a real PostgreSQL
// cache database.
//
// Tests run inside a transaction that is rolled back when the test
// completes, so they can run in parallel against a shared database without
// cleanup:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t) // skips when no database is configured
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        cache := postgres.NewPostgresCacheStore(tx, logger)
//	        // ...
//	    })
//	}
//
// The database is located through DATABASE_URL, SYNTHGEN_TEST_DB_URL or
// SYNTHGEN_CACHE_DATABASE_URL, in that order.
package testdb

// Package testdb provides helpers for database integration tests.
//
// Tests obtain a migrated connection with GetTestDBWithT, which skips the
// test when no database URL is configured, and isolate their writes with
// WithTx, which rolls the transaction back when the test function returns.
//
//	func TestMyStore(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := postgres.NewPostgresTaskStore(tx, nil)
//	        ...
//	    })
//	}
//
// The package reads LATEWATCH_TEST_DATABASE_URL, falling back to DATABASE_URL.
package testdb

package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
// SQL-backed cache stores accept it so tests can run them inside a
// transaction that is rolled back afterwards.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

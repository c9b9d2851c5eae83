package db

import "database/sql"

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside an explicit transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NullIfEmpty helps store optional strings without wiping existing data.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// NullIfZero stores optional foreign keys as NULL instead of 0.
func NullIfZero(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

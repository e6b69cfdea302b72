// Package postgres is the PostgreSQL-backed implementation of the
// kernel's storage interfaces, grounded on the teacher's own
// storage/postgres package: a single Store wrapping *sql.DB, one file
// per interface, raw SQL with $N placeholders rather than an ORM.
package postgres

import (
	"database/sql"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows, letting scan
// helpers serve single-row and multi-row callers alike.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Store implements the kernel's storage interfaces backed by PostgreSQL.
// EnvelopeStore, AuthorityStore, and AuditStore are implemented here;
// cmd/kernelserver wires EnvelopeStore and AuditStore whenever a database
// DSN is configured and has no AuthorityStore consumer. The remaining
// interfaces (GateStore, ReplayStore, TraceStore, SuiteStore,
// ConfigStore) are still served by storage/memory. See DESIGN.md for the
// tracked remainder.
type Store struct {
	db *sql.DB
}

// New creates a Store using the provided database handle. The caller
// owns the handle's lifecycle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

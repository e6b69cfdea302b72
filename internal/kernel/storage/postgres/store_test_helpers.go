package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"

	"github.com/uaesivakumar/authority-kernel/internal/platform/migrations"
)

// newTestStore opens a real PostgreSQL connection and applies every
// migration when TEST_POSTGRES_DSN is set, and skips otherwise — these
// are integration tests against the actual schema, not a mocked driver,
// since envelope sealing leans on a real UNIQUE constraint for its
// idempotency guarantee.
func newTestStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrations.Apply(db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if err := resetTables(db); err != nil {
		t.Fatalf("reset tables: %v", err)
	}
	t.Cleanup(func() {
		_ = resetTables(db)
		_ = db.Close()
	})

	return New(db), context.Background()
}

func resetTables(db *sql.DB) error {
	_, err := db.Exec(`
		TRUNCATE
			envelopes,
			audit_log,
			business_events,
			territory_sub_verticals,
			territories,
			persona_policies,
			personas,
			execution_identities,
			workspaces,
			enterprises
		RESTART IDENTITY CASCADE
	`)
	return err
}

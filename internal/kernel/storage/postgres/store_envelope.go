package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
)

// Seal inserts a new envelope row, or returns the existing one untouched
// when sha256_hash already exists — the ON CONFLICT DO NOTHING plus a
// follow-up read is the same idempotent-insert shape the teacher uses
// for its own content-addressed writes, adapted here to report whether
// the row was newly created.
func (s *Store) Seal(ctx context.Context, e domain.Envelope) (domain.Envelope, bool, error) {
	contentJSON, err := json.Marshal(e.Content)
	if err != nil {
		return domain.Envelope{}, false, fmt.Errorf("marshal envelope content: %w", err)
	}

	tag, err := s.db.ExecContext(ctx, `
		INSERT INTO envelopes (envelope_id, sha256_hash, content, status, sealed_at, expires_at, revoked_at, revoked_by)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, '')
		ON CONFLICT (sha256_hash) DO NOTHING
	`, e.EnvelopeID, e.SHA256Hash, contentJSON, e.Status, e.SealedAt, e.ExpiresAt)
	if err != nil {
		return domain.Envelope{}, false, fmt.Errorf("insert envelope: %w", err)
	}

	rows, err := tag.RowsAffected()
	if err != nil {
		return domain.Envelope{}, false, fmt.Errorf("insert envelope rows affected: %w", err)
	}

	existing, err := s.GetByHash(ctx, e.SHA256Hash)
	if err != nil {
		return domain.Envelope{}, false, err
	}
	return existing, rows == 1, nil
}

func (s *Store) GetByID(ctx context.Context, envelopeID string) (domain.Envelope, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT envelope_id, sha256_hash, content, status, sealed_at, expires_at, revoked_at, revoked_by
		FROM envelopes
		WHERE envelope_id = $1
	`, envelopeID)
	return scanEnvelope(row)
}

func (s *Store) GetByHash(ctx context.Context, sha256Hash string) (domain.Envelope, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT envelope_id, sha256_hash, content, status, sealed_at, expires_at, revoked_at, revoked_by
		FROM envelopes
		WHERE sha256_hash = $1
	`, sha256Hash)
	return scanEnvelope(row)
}

// Revoke transitions a SEALED envelope to REVOKED; the WHERE clause
// enforces the precondition in the same statement rather than requiring
// a separate read-then-write, so a concurrent revoke or a stale read
// cannot double-apply it.
func (s *Store) Revoke(ctx context.Context, envelopeID, by string) (domain.Envelope, error) {
	now := time.Now().UTC()
	tag, err := s.db.ExecContext(ctx, `
		UPDATE envelopes
		SET status = 'REVOKED', revoked_at = $2, revoked_by = $3
		WHERE envelope_id = $1 AND status = 'SEALED'
	`, envelopeID, now, by)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("revoke envelope: %w", err)
	}
	rows, err := tag.RowsAffected()
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("revoke envelope rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := s.GetByID(ctx, envelopeID); err != nil {
			return domain.Envelope{}, err
		}
		return domain.Envelope{}, fmt.Errorf("envelope %q is not in SEALED state", envelopeID)
	}
	return s.GetByID(ctx, envelopeID)
}

// ExpireDue transitions every SEALED envelope whose expires_at has
// passed to EXPIRED in one statement and returns the affected ids via
// RETURNING, avoiding a separate SELECT-then-UPDATE round trip.
func (s *Store) ExpireDue(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE envelopes
		SET status = 'EXPIRED'
		WHERE status = 'SEALED' AND expires_at IS NOT NULL AND expires_at < $1
		RETURNING envelope_id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("expire due envelopes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanEnvelope(scanner rowScanner) (domain.Envelope, error) {
	var (
		e           domain.Envelope
		contentJSON []byte
		sealedAt    time.Time
		expiresAt   sql.NullTime
		revokedAt   sql.NullTime
	)
	if err := scanner.Scan(&e.EnvelopeID, &e.SHA256Hash, &contentJSON, &e.Status, &sealedAt, &expiresAt, &revokedAt, &e.RevokedBy); err != nil {
		return domain.Envelope{}, err
	}
	if err := json.Unmarshal(contentJSON, &e.Content); err != nil {
		return domain.Envelope{}, fmt.Errorf("unmarshal envelope content: %w", err)
	}
	e.SealedAt = sealedAt.UTC()
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		e.ExpiresAt = &t
	}
	if revokedAt.Valid {
		t := revokedAt.Time.UTC()
		e.RevokedAt = &t
	}
	return e, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
)

// Append inserts one audit row. audit_log is append-only; no other
// method in this file issues an UPDATE or DELETE against it, which is
// the durable half of the append-only guarantee the in-memory store can
// only hold for the life of one process.
func (s *Store) Append(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("marshal audit metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor_id, actor_role, enterprise_id, action, target_type, target_id, success, reason, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.ActorID, e.ActorRole, e.EnterpriseID, e.Action, e.TargetType, e.TargetID, e.Success, e.Reason, metadata, e.OccurredAt)
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("insert audit entry: %w", err)
	}
	return e, nil
}

func (s *Store) ListByActor(ctx context.Context, actorID string, limit int) ([]domain.AuditEntry, error) {
	return s.listAudit(ctx, "actor_id = $1", limit, actorID)
}

func (s *Store) ListByTarget(ctx context.Context, targetType, targetID string, limit int) ([]domain.AuditEntry, error) {
	return s.listAudit(ctx, "target_type = $1 AND target_id = $2", limit, targetType, targetID)
}

func (s *Store) ListByEnterprise(ctx context.Context, enterpriseID string, limit int) ([]domain.AuditEntry, error) {
	return s.listAudit(ctx, "enterprise_id = $1", limit, enterpriseID)
}

// listAudit always orders newest-first, matching the indexes migration
// 0008 defines on (key..., occurred_at DESC); limit <= 0 means
// unbounded, same convention storage/memory uses.
func (s *Store) listAudit(ctx context.Context, whereClause string, limit int, args ...interface{}) ([]domain.AuditEntry, error) {
	query := fmt.Sprintf(`
		SELECT id, actor_id, actor_role, enterprise_id, action, target_type, target_id, success, reason, metadata, occurred_at
		FROM audit_log WHERE %s ORDER BY occurred_at DESC
	`, whereClause)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanAuditEntry(scanner rowScanner) (domain.AuditEntry, error) {
	var (
		e        domain.AuditEntry
		metadata []byte
	)
	if err := scanner.Scan(&e.ID, &e.ActorID, &e.ActorRole, &e.EnterpriseID, &e.Action, &e.TargetType, &e.TargetID, &e.Success, &e.Reason, &metadata, &e.OccurredAt); err != nil {
		return domain.AuditEntry{}, err
	}
	e.OccurredAt = e.OccurredAt.UTC()
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return domain.AuditEntry{}, fmt.Errorf("unmarshal audit metadata: %w", err)
		}
	}
	return e, nil
}

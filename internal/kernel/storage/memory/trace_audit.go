package memory

import (
	"context"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
)

func (s *Store) Record(_ context.Context, i domain.Interaction) (domain.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = append(s.interactions, i)
	return i, nil
}

func (s *Store) Get(_ context.Context, interactionID string) (domain.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.interactions {
		if i.InteractionID == interactionID {
			return i, nil
		}
	}
	return domain.Interaction{}, errNotFound("interaction", interactionID)
}

func (s *Store) ListByEnvelope(_ context.Context, envelopeSHA256 string, limit int) ([]domain.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Interaction
	for _, i := range s.interactions {
		if i.EnvelopeSHA256 == envelopeSHA256 {
			out = append(out, i)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Append(_ context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLog = append(s.auditLog, e)
	return e, nil
}

func (s *Store) ListByActor(_ context.Context, actorID string, limit int) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterAudit(s.auditLog, limit, func(e domain.AuditEntry) bool { return e.ActorID == actorID }), nil
}

func (s *Store) ListByTarget(_ context.Context, targetType, targetID string, limit int) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterAudit(s.auditLog, limit, func(e domain.AuditEntry) bool {
		return e.TargetType == targetType && e.TargetID == targetID
	}), nil
}

func (s *Store) ListByEnterprise(_ context.Context, enterpriseID string, limit int) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterAudit(s.auditLog, limit, func(e domain.AuditEntry) bool { return e.EnterpriseID == enterpriseID }), nil
}

func filterAudit(entries []domain.AuditEntry, limit int, pred func(domain.AuditEntry) bool) []domain.AuditEntry {
	var out []domain.AuditEntry
	for _, e := range entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Package auditlog fronts storage.AuditStore with a bounded in-memory
// ring buffer, so recent-audit reads (the common case: "what just
// happened to this enterprise") don't round-trip to the durable store.
package auditlog

import (
	"context"
	"sync"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage"
)

const defaultRingSize = 500

// Log is a read-through cache over storage.AuditStore: every Record call
// writes to the durable store and pushes onto a bounded ring; reads are
// served from the ring when the full result fits, falling back to the
// store otherwise.
type Log struct {
	mu      sync.Mutex
	ring    []domain.AuditEntry
	max     int
	store   storage.AuditStore
	clock   idgen.Clock
	ids     idgen.IDGenerator
}

func New(store storage.AuditStore, clock idgen.Clock, ids idgen.IDGenerator, ringSize int) *Log {
	if ringSize <= 0 {
		ringSize = defaultRingSize
	}
	return &Log{store: store, clock: clock, ids: ids, max: ringSize}
}

// Record appends e to the durable store first, then the ring, so a ring
// that's about to be evicted never shows an entry the store doesn't have.
func (l *Log) Record(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	if e.ID == "" {
		e.ID = l.ids.NewID()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = l.clock.Now()
	}
	written, err := l.store.Append(ctx, e)
	if err != nil {
		return domain.AuditEntry{}, err
	}

	l.mu.Lock()
	l.ring = append(l.ring, written)
	if len(l.ring) > l.max {
		l.ring = l.ring[len(l.ring)-l.max:]
	}
	l.mu.Unlock()

	return written, nil
}

// ByActor serves from the ring while the ring is below capacity (see
// ringMatch), returning at most limit of the most recent matches; once the
// ring is full it falls back to the durable store, which has no such bound.
func (l *Log) ByActor(ctx context.Context, actorID string, limit int) ([]domain.AuditEntry, error) {
	if hit, ok := l.ringMatch(limit, func(e domain.AuditEntry) bool { return e.ActorID == actorID }); ok {
		return hit, nil
	}
	return l.store.ListByActor(ctx, actorID, limit)
}

func (l *Log) ByTarget(ctx context.Context, targetType, targetID string, limit int) ([]domain.AuditEntry, error) {
	if hit, ok := l.ringMatch(limit, func(e domain.AuditEntry) bool {
		return e.TargetType == targetType && e.TargetID == targetID
	}); ok {
		return hit, nil
	}
	return l.store.ListByTarget(ctx, targetType, targetID, limit)
}

func (l *Log) ByEnterprise(ctx context.Context, enterpriseID string, limit int) ([]domain.AuditEntry, error) {
	if hit, ok := l.ringMatch(limit, func(e domain.AuditEntry) bool { return e.EnterpriseID == enterpriseID }); ok {
		return hit, nil
	}
	return l.store.ListByEnterprise(ctx, enterpriseID, limit)
}

// ringMatch returns the matching entries from the ring and true only if
// the ring itself has not been truncated past the oldest matching entry
// still needed — approximated conservatively by requiring the ring to be
// below capacity, so a full ring always defers to the durable store.
func (l *Log) ringMatch(limit int, pred func(domain.AuditEntry) bool) ([]domain.AuditEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.ring) >= l.max {
		return nil, false
	}

	var out []domain.AuditEntry
	for _, e := range l.ring {
		if pred(e) {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, true
}

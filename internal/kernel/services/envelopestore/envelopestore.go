// Package envelopestore implements seal/verify/get_content/revoke over the
// content-addressed envelope registry. Hashing is delegated to
// internal/kernel/canon; persistence to storage.EnvelopeStore.
package envelopestore

import (
	"context"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/canon"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/metrics"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage"
)

// Store wraps a storage.EnvelopeStore with the sealing and verification
// semantics.
type Store struct {
	store storage.EnvelopeStore
	clock idgen.Clock
	ids   idgen.IDGenerator
}

func New(store storage.EnvelopeStore, clock idgen.Clock, ids idgen.IDGenerator) *Store {
	return &Store{store: store, clock: clock, ids: ids}
}

// SealResult reports whether the seal call observed a pre-existing row.
type SealResult struct {
	Envelope domain.Envelope
	IsNew    bool
}

// Seal computes the content address for c and seals it, returning the
// existing row unchanged if the hash was already sealed.
func (s *Store) Seal(ctx context.Context, c domain.EnvelopeContentV1, expiresAt *time.Time) (SealResult, error) {
	hash, err := canon.Hash(c)
	if err != nil {
		return SealResult{}, kerrors.Wrap(kerrors.CodeEnvelopeNotSealed, "failed to canonicalize envelope content", err)
	}

	now := s.clock.Now()
	c.SealedAt = now
	candidate := domain.Envelope{
		EnvelopeID: s.ids.NewID(),
		SHA256Hash: hash,
		Content:    c,
		Status:     domain.EnvelopeSealed,
		SealedAt:   now,
		ExpiresAt:  expiresAt,
	}

	env, isNew, err := s.store.Seal(ctx, candidate)
	if err != nil {
		return SealResult{}, err
	}
	metrics.RecordEnvelopeSeal(isNew)
	return SealResult{Envelope: env, IsNew: isNew}, nil
}

// Verify resolves an envelope by id and confirms it is still usable:
// SEALED, not expired, not revoked. Expired/revoked envelopes return a
// typed error rather than silently treating the envelope as invalid.
func (s *Store) Verify(ctx context.Context, envelopeID string) (domain.Envelope, error) {
	env, err := s.store.GetByID(ctx, envelopeID)
	if err != nil {
		return domain.Envelope{}, err
	}
	return env, checkUsable(env, s.clock.Now())
}

// VerifyByHash is Verify keyed by content hash, used by the HTTP verify
// handler when the request names a sha256_hash instead of an envelope_id.
func (s *Store) VerifyByHash(ctx context.Context, sha256Hash string) (domain.Envelope, error) {
	env, err := s.store.GetByHash(ctx, sha256Hash)
	if err != nil {
		return domain.Envelope{}, err
	}
	return env, checkUsable(env, s.clock.Now())
}

func checkUsable(env domain.Envelope, now time.Time) error {
	switch env.Status {
	case domain.EnvelopeRevoked:
		return kerrors.New(kerrors.CodeEnvelopeRevoked, "envelope has been revoked").
			WithDetails("envelope_id", env.EnvelopeID).
			WithDetails("revoked_at", env.RevokedAt)
	case domain.EnvelopeExpired:
		return kerrors.New(kerrors.CodeEnvelopeExpired, "envelope has expired").
			WithDetails("envelope_id", env.EnvelopeID)
	}
	if env.ExpiresAt != nil && env.ExpiresAt.Before(now) {
		return kerrors.New(kerrors.CodeEnvelopeExpired, "envelope has expired").
			WithDetails("envelope_id", env.EnvelopeID).
			WithDetails("expires_at", env.ExpiresAt)
	}
	return nil
}

// GetContent returns the sealed payload without the usability check, for
// audit and replay callers that need to inspect a revoked/expired
// envelope's content rather than be blocked by it.
func (s *Store) GetContent(ctx context.Context, envelopeID string) (domain.EnvelopeContentV1, error) {
	env, err := s.store.GetByID(ctx, envelopeID)
	if err != nil {
		return domain.EnvelopeContentV1{}, err
	}
	return env.Content, nil
}

// Revoke transitions a SEALED envelope to REVOKED. The store rejects
// revoking an already-revoked or expired envelope.
func (s *Store) Revoke(ctx context.Context, envelopeID, by string) (domain.Envelope, error) {
	return s.store.Revoke(ctx, envelopeID, by)
}

// SweepExpired transitions every SEALED envelope past its expiry to
// EXPIRED, for the scheduled sweeper.
func (s *Store) SweepExpired(ctx context.Context) ([]string, error) {
	return s.store.ExpireDue(ctx, s.clock.Now())
}

// Package replayengine re-executes a reasoning call against its sealed
// envelope and diffs the result. The engine never reasons itself; it only
// initiates, diffs, and records.
package replayengine

import (
	"context"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/metrics"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage"
)

// EnvelopeLookup is the narrow read surface the engine needs from the
// envelope store.
type EnvelopeLookup interface {
	GetByHash(ctx context.Context, sha256Hash string) (domain.Envelope, error)
}

// Engine wraps storage.ReplayStore with initiate/complete semantics.
type Engine struct {
	envelopes EnvelopeLookup
	replays   storage.ReplayStore
	clock     idgen.Clock
	ids       idgen.IDGenerator
}

func New(envelopes EnvelopeLookup, replays storage.ReplayStore, clock idgen.Clock, ids idgen.IDGenerator) *Engine {
	return &Engine{envelopes: envelopes, replays: replays, clock: clock, ids: ids}
}

// InitiateResult carries the envelope content needed for re-execution
// alongside the recorded attempt, unless the envelope could not be used.
type InitiateResult struct {
	Attempt domain.ReplayAttempt
	Content domain.EnvelopeContentV1
}

// Initiate looks up the envelope by its sealed hash. A missing envelope
// terminates the attempt as ENVELOPE_NOT_FOUND; a REVOKED or EXPIRED
// envelope terminates it as FAILED. Neither case is an error return: the
// terminal status in the recorded attempt IS the negative outcome, the
// same typed-negative-outcome convention the resolver and runtime gate
// use. Only a PENDING attempt carries content for re-execution.
func (e *Engine) Initiate(ctx context.Context, sha256Hash, requestedBy, source string) (InitiateResult, error) {
	env, err := e.envelopes.GetByHash(ctx, sha256Hash)
	if err != nil {
		now := e.clock.Now()
		attempt, recErr := e.replays.Initiate(ctx, domain.ReplayAttempt{
			ReplayID:     e.ids.NewID(),
			EnvelopeHash: sha256Hash,
			RequestedBy:  requestedBy,
			Source:       source,
			Status:       domain.ReplayEnvelopeNotFound,
			InitiatedAt:  now,
			CompletedAt:  &now,
		})
		if recErr != nil {
			return InitiateResult{}, recErr
		}
		metrics.RecordReplayOutcome(string(domain.ReplayEnvelopeNotFound))
		return InitiateResult{Attempt: attempt}, nil
	}

	if env.Status == domain.EnvelopeRevoked || env.Status == domain.EnvelopeExpired {
		now := e.clock.Now()
		attempt, err := e.replays.Initiate(ctx, domain.ReplayAttempt{
			ReplayID:     e.ids.NewID(),
			EnvelopeID:   env.EnvelopeID,
			EnvelopeHash: sha256Hash,
			RequestedBy:  requestedBy,
			Source:       source,
			Status:       domain.ReplayFailed,
			InitiatedAt:  now,
			CompletedAt:  &now,
		})
		if err != nil {
			return InitiateResult{}, err
		}
		metrics.RecordReplayOutcome(string(domain.ReplayFailed))
		return InitiateResult{Attempt: attempt}, nil
	}

	attempt, err := e.replays.Initiate(ctx, domain.ReplayAttempt{
		ReplayID:     e.ids.NewID(),
		EnvelopeID:   env.EnvelopeID,
		EnvelopeHash: sha256Hash,
		RequestedBy:  requestedBy,
		Source:       source,
		Status:       domain.ReplayPending,
		InitiatedAt:  e.clock.Now(),
	})
	if err != nil {
		return InitiateResult{}, err
	}
	return InitiateResult{Attempt: attempt, Content: env.Content}, nil
}

// Complete diffs the replay's new hash against the original. A mismatch is
// DRIFT_DETECTED with a HASH_MISMATCH drift type; otherwise SUCCESS. The
// store enforces the PENDING-only compare-and-set, so a second completion
// for the same replay is rejected there.
func (e *Engine) Complete(ctx context.Context, replayID, originalHash, newHash string) (domain.ReplayAttempt, error) {
	status := domain.ReplaySuccess
	var drift *domain.DriftDetails
	if newHash != originalHash {
		status = domain.ReplayDriftDetected
		drift = &domain.DriftDetails{
			OriginalHash: originalHash,
			ReplayHash:   newHash,
			DriftType:    "HASH_MISMATCH",
		}
	}

	attempt, err := e.replays.Complete(ctx, replayID, status, drift)
	if err != nil {
		return domain.ReplayAttempt{}, err
	}
	metrics.RecordReplayOutcome(string(status))
	return attempt, nil
}

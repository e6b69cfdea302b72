// Package runtimegate is the single admission point for reasoning calls:
// every call must carry a claimed envelope identifier that resolves to a
// SEALED, unexpired envelope, or it is blocked and recorded as a
// RuntimeGateViolation.
package runtimegate

import (
	"context"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/metrics"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage"
)

// Claim is the identifying information a reasoning call presents to the
// gate; exactly one of EnvelopeID/SHA256Hash is expected to be set.
type Claim struct {
	Source      string
	Endpoint    string
	Method      string
	TenantID    string
	WorkspaceID string
	UserID      string
	EnvelopeID  string
	SHA256Hash  string
	Context     map[string]interface{}
}

// EnvelopeLookup is the narrow read surface the gate needs from the
// envelope store.
type EnvelopeLookup interface {
	GetByID(ctx context.Context, envelopeID string) (domain.Envelope, error)
	GetByHash(ctx context.Context, sha256Hash string) (domain.Envelope, error)
}

// Decision is the pure outcome of Decide: either Admitted is true and
// Envelope is populated, or Code names the violation.
type Decision struct {
	Admitted bool
	Envelope domain.Envelope
	Code     domain.ViolationCode
}

// Decide implements the decision table from the runtime gate spec: no
// claim -> NO_ENVELOPE, unresolvable claim -> INVALID_ENVELOPE, REVOKED ->
// REVOKED_ENVELOPE, EXPIRED or past expires_at -> EXPIRED_ENVELOPE,
// otherwise admit.
func Decide(claim Claim, lookup func() (domain.Envelope, error), now time.Time) Decision {
	if claim.EnvelopeID == "" && claim.SHA256Hash == "" {
		return Decision{Code: domain.ViolationNoEnvelope}
	}

	env, err := lookup()
	if err != nil {
		return Decision{Code: domain.ViolationInvalidEnvelope}
	}

	switch {
	case env.Status == domain.EnvelopeRevoked:
		return Decision{Code: domain.ViolationRevokedEnvelope, Envelope: env}
	case env.Status == domain.EnvelopeExpired:
		return Decision{Code: domain.ViolationExpiredEnvelope, Envelope: env}
	case env.ExpiresAt != nil && env.ExpiresAt.Before(now):
		return Decision{Code: domain.ViolationExpiredEnvelope, Envelope: env}
	}

	return Decision{Admitted: true, Envelope: env}
}

// Gate wraps Decide with envelope resolution and violation persistence.
type Gate struct {
	envelopes EnvelopeLookup
	violations storage.GateStore
	clock     idgen.Clock
	ids       idgen.IDGenerator
}

func New(envelopes EnvelopeLookup, violations storage.GateStore, clock idgen.Clock, ids idgen.IDGenerator) *Gate {
	return &Gate{envelopes: envelopes, violations: violations, clock: clock, ids: ids}
}

// Admit runs the claim through Decide and, on block, persists a
// RuntimeGateViolation row carrying the full request context.
func (g *Gate) Admit(ctx context.Context, claim Claim) (Decision, error) {
	lookup := func() (domain.Envelope, error) {
		if claim.EnvelopeID != "" {
			return g.envelopes.GetByID(ctx, claim.EnvelopeID)
		}
		return g.envelopes.GetByHash(ctx, claim.SHA256Hash)
	}

	decision := Decide(claim, lookup, g.clock.Now())
	if decision.Admitted {
		metrics.RecordGateAdmission(true, "")
		return decision, nil
	}
	metrics.RecordGateAdmission(false, string(decision.Code))

	violation := domain.RuntimeGateViolation{
		ID:                g.ids.NewID(),
		ViolationCode:     decision.Code,
		Source:            claim.Source,
		Endpoint:          claim.Endpoint,
		Method:            claim.Method,
		TenantID:          claim.TenantID,
		WorkspaceID:       claim.WorkspaceID,
		UserID:            claim.UserID,
		ClaimedEnvelopeID: claim.EnvelopeID,
		ClaimedSHA256:     claim.SHA256Hash,
		RequestContext:    claim.Context,
		ResolutionStatus:  "OPEN",
		OccurredAt:        g.clock.Now(),
	}
	if _, err := g.violations.RecordViolation(ctx, violation); err != nil {
		return decision, err
	}
	return decision, nil
}

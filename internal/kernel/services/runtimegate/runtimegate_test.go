package runtimegate

import (
	"context"
	"testing"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage/memory"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestAdmit_NoEnvelope(t *testing.T) {
	store := memory.New()
	gate := New(store, store, fixedClock{t: time.Now()}, &idgen.Sequence{IDs: []string{"V-1"}})

	decision, err := gate.Admit(context.Background(), Claim{Source: "api"})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if decision.Admitted {
		t.Fatal("expected block")
	}
	if decision.Code != domain.ViolationNoEnvelope {
		t.Fatalf("code = %s, want NO_ENVELOPE", decision.Code)
	}

	violations, err := store.ListViolations(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListViolations: %v", err)
	}
	if len(violations) != 1 || violations[0].ViolationCode != domain.ViolationNoEnvelope {
		t.Fatalf("expected one NO_ENVELOPE violation recorded, got %+v", violations)
	}
}

func TestAdmit_InvalidEnvelope(t *testing.T) {
	store := memory.New()
	gate := New(store, store, fixedClock{t: time.Now()}, &idgen.Sequence{IDs: []string{"V-1"}})

	decision, err := gate.Admit(context.Background(), Claim{Source: "api", EnvelopeID: "does-not-exist"})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if decision.Admitted || decision.Code != domain.ViolationInvalidEnvelope {
		t.Fatalf("expected INVALID_ENVELOPE block, got %+v", decision)
	}
}

func TestAdmit_AdmitsSealed(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()
	sealed, _, err := store.Seal(context.Background(), domain.Envelope{
		EnvelopeID: "ENV-1",
		SHA256Hash: "hash-1",
		Status:     domain.EnvelopeSealed,
		SealedAt:   now,
	})
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	gate := New(store, store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"V-1"}})
	decision, err := gate.Admit(context.Background(), Claim{Source: "api", EnvelopeID: sealed.EnvelopeID})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if !decision.Admitted {
		t.Fatalf("expected admit, got block with code %s", decision.Code)
	}
	if decision.Envelope.EnvelopeID != "ENV-1" {
		t.Fatalf("expected envelope ENV-1 returned, got %s", decision.Envelope.EnvelopeID)
	}
}

func TestAdmit_ExpiredEnvelope(t *testing.T) {
	store := memory.New()
	sealedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	expiresAt := sealedAt.Add(time.Hour)
	sealed, _, err := store.Seal(context.Background(), domain.Envelope{
		EnvelopeID: "ENV-1",
		SHA256Hash: "hash-1",
		Status:     domain.EnvelopeSealed,
		SealedAt:   sealedAt,
		ExpiresAt:  &expiresAt,
	})
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	gate := New(store, store, fixedClock{t: sealedAt.Add(2 * time.Hour)}, &idgen.Sequence{IDs: []string{"V-1"}})
	decision, err := gate.Admit(context.Background(), Claim{Source: "api", EnvelopeID: sealed.EnvelopeID})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if decision.Admitted || decision.Code != domain.ViolationExpiredEnvelope {
		t.Fatalf("expected EXPIRED_ENVELOPE block, got %+v", decision)
	}
}

func TestAdmit_RevokedEnvelope(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()
	sealed, _, err := store.Seal(context.Background(), domain.Envelope{
		EnvelopeID: "ENV-1",
		SHA256Hash: "hash-1",
		Status:     domain.EnvelopeSealed,
		SealedAt:   now,
	})
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := store.Revoke(context.Background(), sealed.EnvelopeID, "admin@example.com"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	gate := New(store, store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"V-1"}})
	decision, err := gate.Admit(context.Background(), Claim{Source: "api", SHA256Hash: "hash-1"})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if decision.Admitted || decision.Code != domain.ViolationRevokedEnvelope {
		t.Fatalf("expected REVOKED_ENVELOPE block, got %+v", decision)
	}
}

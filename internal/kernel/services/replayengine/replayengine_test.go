package replayengine

import (
	"context"
	"testing"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage/memory"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestInitiate_EnvelopeNotFound(t *testing.T) {
	store := memory.New()
	engine := New(store, store, fixedClock{t: time.Now()}, &idgen.Sequence{IDs: []string{"R-1"}})

	res, err := engine.Initiate(context.Background(), "no-such-hash", "qa@example.com", "sales-bench")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if res.Attempt.Status != domain.ReplayEnvelopeNotFound {
		t.Fatalf("status = %s, want ENVELOPE_NOT_FOUND", res.Attempt.Status)
	}
	if res.Attempt.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be set on a terminal initiate outcome")
	}
}

func TestInitiate_RevokedEnvelopeFails(t *testing.T) {
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

	engine := New(store, store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"R-1"}})
	res, err := engine.Initiate(context.Background(), "hash-1", "qa@example.com", "api")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if res.Attempt.Status != domain.ReplayFailed {
		t.Fatalf("status = %s, want FAILED", res.Attempt.Status)
	}
}

func TestInitiate_PendingOnSealed(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()
	_, _, err := store.Seal(context.Background(), domain.Envelope{
		EnvelopeID: "ENV-1",
		SHA256Hash: "hash-1",
		Status:     domain.EnvelopeSealed,
		SealedAt:   now,
		Content:    domain.EnvelopeContentV1{PersonaID: "P-1"},
	})
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	engine := New(store, store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"R-1"}})
	res, err := engine.Initiate(context.Background(), "hash-1", "qa@example.com", "api")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if res.Attempt.Status != domain.ReplayPending {
		t.Fatalf("status = %s, want PENDING", res.Attempt.Status)
	}
	if res.Content.PersonaID != "P-1" {
		t.Fatalf("expected content to be returned for re-execution, got %+v", res.Content)
	}
}

func TestComplete_SuccessAndDrift(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()
	_, _, err := store.Seal(context.Background(), domain.Envelope{
		EnvelopeID: "ENV-1",
		SHA256Hash: "hash-1",
		Status:     domain.EnvelopeSealed,
		SealedAt:   now,
	})
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	engine := New(store, store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"R-1", "R-2"}})

	initiated, err := engine.Initiate(context.Background(), "hash-1", "qa@example.com", "api")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	completed, err := engine.Complete(context.Background(), initiated.Attempt.ReplayID, "hash-1", "hash-1")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != domain.ReplaySuccess {
		t.Fatalf("status = %s, want SUCCESS", completed.Status)
	}

	initiated2, err := engine.Initiate(context.Background(), "hash-1", "qa@example.com", "api")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	drifted, err := engine.Complete(context.Background(), initiated2.Attempt.ReplayID, "hash-1", "hash-2")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if drifted.Status != domain.ReplayDriftDetected {
		t.Fatalf("status = %s, want DRIFT_DETECTED", drifted.Status)
	}
	if drifted.DriftDetails == nil || drifted.DriftDetails.DriftType != "HASH_MISMATCH" {
		t.Fatalf("expected HASH_MISMATCH drift details, got %+v", drifted.DriftDetails)
	}

	_, err = engine.Complete(context.Background(), initiated.Attempt.ReplayID, "hash-1", "hash-1")
	if !kerrors.Is(err, kerrors.CodeInvalidStatus) {
		t.Fatalf("expected CodeInvalidStatus on double completion, got %v", err)
	}
}

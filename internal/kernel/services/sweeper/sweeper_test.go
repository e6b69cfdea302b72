package sweeper

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

func TestSweepOnce_ExpiresDueEnvelopesAndAudits(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	store.Seal(context.Background(), domain.Envelope{
		EnvelopeID: "ENV-1", SHA256Hash: "hash-1", Status: domain.EnvelopeSealed,
		SealedAt: past, ExpiresAt: &past,
	})

	sw := New(store, store, store, store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"AUDIT-1"}}, nil, Config{})
	sw.sweepOnce(context.Background())

	env, err := store.GetByID(context.Background(), "ENV-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if env.Status != domain.EnvelopeExpired {
		t.Fatalf("Status = %s, want EXPIRED", env.Status)
	}

	entries, err := store.ListByTarget(context.Background(), "ENVELOPE", "ENV-1", 10)
	if err != nil {
		t.Fatalf("ListByTarget: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "EXPIRE_DUE_ENVELOPE" {
		t.Fatalf("expected one EXPIRE_DUE_ENVELOPE audit entry, got %+v", entries)
	}
}

func TestSweepOnce_FailsStalePendingReplay(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()

	store.Initiate(context.Background(), domain.ReplayAttempt{
		ReplayID: "REPLAY-1", EnvelopeID: "ENV-1", Status: domain.ReplayPending,
		InitiatedAt: now.Add(-10 * time.Minute),
	})

	sw := New(store, store, store, store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"AUDIT-1"}}, nil, Config{ReplayGrace: 5 * time.Minute})
	sw.sweepOnce(context.Background())

	replay, err := store.Get(context.Background(), "REPLAY-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if replay.Status != domain.ReplayFailed {
		t.Fatalf("Status = %s, want FAILED", replay.Status)
	}
}

func TestSweepOnce_FailsStaleRunningSuiteRun(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()

	store.CreateRun(context.Background(), domain.Run{
		RunID: "RUN-1", SuiteID: "SUITE-1", RunNumber: 1, Status: domain.RunRunning,
		StartedAt: now.Add(-time.Hour),
	})

	sw := New(store, store, store, store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"AUDIT-1"}}, nil, Config{RunGrace: 30 * time.Minute})
	sw.sweepOnce(context.Background())

	run, err := store.GetRun(context.Background(), "RUN-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != domain.RunFailed {
		t.Fatalf("Status = %s, want FAILED", run.Status)
	}
}

func TestConfig_WithDefaultsFillsZeroValues(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Schedule == "" || cfg.ReplayGrace <= 0 || cfg.RunGrace <= 0 {
		t.Fatalf("expected defaults to be filled, got %+v", cfg)
	}
}

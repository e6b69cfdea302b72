package tracerecorder

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

func TestSign_IsDeterministicForSameInputs(t *testing.T) {
	store := memory.New()
	rec, err := New(store, fixedClock{t: time.Now()}, &idgen.Sequence{IDs: []string{"I-1"}}, []byte("test-master-secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := rec.Sign("I-1", "hash-1", "SUCCESS")
	b := rec.Sign("I-1", "hash-1", "SUCCESS")
	if a != b {
		t.Fatalf("expected deterministic signatures, got %s != %s", a, b)
	}

	c := rec.Sign("I-1", "hash-1", "FAILED")
	if a == c {
		t.Fatal("expected different outcome to change the signature")
	}
}

func TestVerify_RoundTrips(t *testing.T) {
	store := memory.New()
	rec, err := New(store, fixedClock{t: time.Now()}, &idgen.Sequence{IDs: []string{"I-1"}}, []byte("test-master-secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sig := rec.Sign("I-1", "hash-1", "SUCCESS")
	if !rec.Verify("I-1", "hash-1", "SUCCESS", sig) {
		t.Fatal("expected signature to verify")
	}
	if rec.Verify("I-1", "hash-1", "SUCCESS", "tampered") {
		t.Fatal("expected tampered signature to fail verification")
	}
}

func TestRecord_PersistsSignedInteraction(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()
	rec, err := New(store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"I-1"}}, []byte("test-master-secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	recorded, err := rec.Record(context.Background(), domain.Interaction{
		EnvelopeSHA256: "hash-1",
		Outcome:        "SUCCESS",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if recorded.InteractionID != "I-1" {
		t.Fatalf("InteractionID = %s, want I-1", recorded.InteractionID)
	}
	if !rec.Verify(recorded.InteractionID, recorded.EnvelopeSHA256, recorded.Outcome, recorded.Signature) {
		t.Fatal("expected persisted signature to verify")
	}

	fetched, err := rec.Get(context.Background(), "I-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Signature != recorded.Signature {
		t.Fatal("expected stored interaction to carry the same signature")
	}
}

func TestExtractPolicyGatesHit(t *testing.T) {
	raw := map[string]interface{}{
		"policy_gates_hit": []interface{}{
			map[string]interface{}{"gate": "compliance_disclosure", "triggered": true, "reason": "missing disclaimer", "action": "BLOCK"},
			map[string]interface{}{"gate": "pricing_guardrail", "triggered": false, "reason": "", "action": "PASS"},
		},
	}

	hits, err := ExtractPolicyGatesHit(raw)
	if err != nil {
		t.Fatalf("ExtractPolicyGatesHit: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Gate != "compliance_disclosure" || !hits[0].Triggered || hits[0].Action != "BLOCK" {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
}

func TestExtractPolicyGatesHit_AbsentFieldReturnsNoError(t *testing.T) {
	hits, err := ExtractPolicyGatesHit(map[string]interface{}{"other_field": 1})
	if err != nil {
		t.Fatalf("expected no error for an absent field, got %v", err)
	}
	if hits != nil {
		t.Fatalf("expected nil hits, got %v", hits)
	}
}

func TestExtractEvidenceUsed(t *testing.T) {
	raw := map[string]interface{}{
		"evidence_used": []interface{}{
			map[string]interface{}{"source": "crm_lookup", "content_hash": "abc123"},
		},
	}

	evidence, err := ExtractEvidenceUsed(raw)
	if err != nil {
		t.Fatalf("ExtractEvidenceUsed: %v", err)
	}
	if len(evidence) != 1 || evidence[0].Source != "crm_lookup" {
		t.Fatalf("unexpected evidence: %+v", evidence)
	}
}

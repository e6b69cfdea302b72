// Package tracerecorder signs and persists interaction traces, and
// extracts policy-gate/evidence summaries from a reasoner's raw
// interaction payload by field path.
package tracerecorder

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/tidwall/gjson"
	"golang.org/x/crypto/hkdf"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage"
)

// Recorder signs interaction rows with a key derived from a master secret
// via HKDF, the same derivation shape the teacher uses for per-purpose
// subkeys, and persists them to storage.TraceStore.
type Recorder struct {
	store     storage.TraceStore
	clock     idgen.Clock
	ids       idgen.IDGenerator
	signingKey []byte
}

// New derives a 32-byte HMAC signing key from masterSecret via
// HKDF-SHA256 with the fixed info string "trace-signing", so the derived
// key never has to be stored or rotated independently of the master
// secret.
func New(store storage.TraceStore, clock idgen.Clock, ids idgen.IDGenerator, masterSecret []byte) (*Recorder, error) {
	key := make([]byte, 32)
	reader := hkdf.New(sha256.New, masterSecret, nil, []byte("trace-signing"))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return &Recorder{store: store, clock: clock, ids: ids, signingKey: key}, nil
}

// Sign computes HMAC-SHA256(key, interaction_id ":" envelope_hash ":" outcome),
// hex-encoded.
func (r *Recorder) Sign(interactionID, envelopeSHA256, outcome string) string {
	mac := hmac.New(sha256.New, r.signingKey)
	mac.Write([]byte(interactionID + ":" + envelopeSHA256 + ":" + outcome))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the expected HMAC for the
// given fields.
func (r *Recorder) Verify(interactionID, envelopeSHA256, outcome, signature string) bool {
	expected := r.Sign(interactionID, envelopeSHA256, outcome)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Record signs and persists one interaction. The InteractionID and
// Signature fields of i are overwritten; callers only need to populate
// the rest.
func (r *Recorder) Record(ctx context.Context, i domain.Interaction) (domain.Interaction, error) {
	i.InteractionID = r.ids.NewID()
	i.RecordedAt = r.clock.Now()
	i.Signature = r.Sign(i.InteractionID, i.EnvelopeSHA256, i.Outcome)
	return r.store.Record(ctx, i)
}

func (r *Recorder) Get(ctx context.Context, interactionID string) (domain.Interaction, error) {
	return r.store.Get(ctx, interactionID)
}

func (r *Recorder) ListByEnvelope(ctx context.Context, envelopeSHA256 string, limit int) ([]domain.Interaction, error) {
	return r.store.ListByEnvelope(ctx, envelopeSHA256, limit)
}

// ExtractPolicyGatesHit pulls the "policy_gates_hit" array out of a raw
// reasoner payload and decodes it into typed rows, so callers building an
// Interaction don't have to hand-walk the reasoner's free-form JSON.
// Grounded on the teacher's gjson.GetBytes(body, jsonPath) calls in
// services/datafeed/marble/core.go and services/requests/marble/dispatcher.go
// — both fields here are flat, top-level arrays, the same shape the
// teacher extracts with gjson rather than a deeper path library.
func ExtractPolicyGatesHit(raw map[string]interface{}) ([]domain.PolicyGateHit, error) {
	items, err := fieldArray(raw, "policy_gates_hit")
	if err != nil {
		return nil, err
	}
	out := make([]domain.PolicyGateHit, 0, len(items))
	for _, item := range items {
		out = append(out, domain.PolicyGateHit{
			Gate:      item.Get("gate").String(),
			Triggered: item.Get("triggered").Bool(),
			Reason:    item.Get("reason").String(),
			Action:    item.Get("action").String(),
		})
	}
	return out, nil
}

// ExtractEvidenceUsed mirrors ExtractPolicyGatesHit for "evidence_used".
func ExtractEvidenceUsed(raw map[string]interface{}) ([]domain.EvidenceUsed, error) {
	items, err := fieldArray(raw, "evidence_used")
	if err != nil {
		return nil, err
	}
	out := make([]domain.EvidenceUsed, 0, len(items))
	for _, item := range items {
		out = append(out, domain.EvidenceUsed{
			Source:      item.Get("source").String(),
			ContentHash: item.Get("content_hash").String(),
		})
	}
	return out, nil
}

// fieldArray re-marshals raw and reads path as a JSON array via gjson,
// returning nil (no error) when the field is absent from this payload.
func fieldArray(raw map[string]interface{}, path string) ([]gjson.Result, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	result := gjson.GetBytes(data, path)
	if !result.Exists() || !result.IsArray() {
		return nil, nil
	}
	return result.Array(), nil
}

package canon

import (
	"testing"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
)

func sampleContent() domain.EnvelopeContentV1 {
	return domain.EnvelopeContentV1{
		EnvelopeVersion:         "v1",
		TenantID:                "tenant-1",
		WorkspaceID:             "ws-1",
		PersonaID:               "persona-1",
		PolicyID:                "policy-1",
		PolicyVersion:           3,
		PersonaResolutionPath:   "LOCAL(UAE-DUBAI) -> REGIONAL(UAE)",
		PersonaResolutionScope:  domain.ScopeLocal,
		TerritoryResolutionPath: "exact(UAE-DUBAI)",
		Content:                 map[string]interface{}{"b": 1, "a": 2},
		SealedAt:                time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		SealedBy:                "system",
	}
}

func TestCanonicalizeDeterministic(t *testing.T) {
	c := sampleContent()
	a, err := Canonicalize(c)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	b, err := Canonicalize(c)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("canonicalize not deterministic: %s != %s", a, b)
	}
}

func TestHashStableAcrossReserialization(t *testing.T) {
	c := sampleContent()
	h1, err := Hash(c)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	// Re-ordering the Go struct literal fields cannot change the wire
	// order since Canonicalize controls it explicitly, but changing the
	// content map's key insertion order must not change the hash either.
	c.Content = map[string]interface{}{"a": 2, "b": 1}
	h2, err := Hash(c)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hash changed with map insertion order: %s != %s", h1, h2)
	}
}

func TestHashChangesWithContent(t *testing.T) {
	c := sampleContent()
	h1, _ := Hash(c)
	c.Content["b"] = 999
	h2, _ := Hash(c)
	if h1 == h2 {
		t.Fatalf("expected hash to change when content changes")
	}
}

func TestOptionalFieldsOmittedWhenEmpty(t *testing.T) {
	c := sampleContent()
	body, err := Canonicalize(c)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	s := string(body)
	if contains(s, "user_id") {
		t.Fatalf("expected user_id omitted, got %s", s)
	}
	if contains(s, "territory_id") {
		t.Fatalf("expected territory_id omitted, got %s", s)
	}
	if contains(s, "expires_at") {
		t.Fatalf("expected expires_at omitted, got %s", s)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

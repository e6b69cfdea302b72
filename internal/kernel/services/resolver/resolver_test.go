package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage/memory"
)

func seedPersona(t *testing.T, store *memory.Store, p domain.Persona) {
	t.Helper()
	if _, err := store.CreatePersona(context.Background(), p); err != nil {
		t.Fatalf("seed persona %s: %v", p.PersonaID, err)
	}
}

func TestResolvePersona_LocalBeatsRegionalBeatsGlobal(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	seedPersona(t, store, domain.Persona{PersonaID: "P-GL", Scope: domain.ScopeGlobal, SubVerticalID: "SV1", IsActive: true, CreatedAt: now})
	seedPersona(t, store, domain.Persona{PersonaID: "P-UAE", Scope: domain.ScopeRegional, SubVerticalID: "SV1", RegionCode: "UAE", IsActive: true, CreatedAt: now})

	r := New(store)

	res, err := r.ResolvePersona(ctx, "SV1", "UAE-DUBAI")
	if err != nil {
		t.Fatalf("ResolvePersona: %v", err)
	}
	if res.Persona.PersonaID != "P-UAE" {
		t.Fatalf("expected P-UAE, got %s", res.Persona.PersonaID)
	}
	wantPath := "LOCAL(UAE-DUBAI) → REGIONAL(UAE)"
	if res.ResolutionPath != wantPath {
		t.Fatalf("path = %q, want %q", res.ResolutionPath, wantPath)
	}
	if res.ResolutionScope != domain.ScopeRegional {
		t.Fatalf("scope = %s, want REGIONAL", res.ResolutionScope)
	}

	seedPersona(t, store, domain.Persona{PersonaID: "P-DXB", Scope: domain.ScopeLocal, SubVerticalID: "SV1", RegionCode: "UAE-DUBAI", IsActive: true, CreatedAt: now})

	res, err = r.ResolvePersona(ctx, "SV1", "UAE-DUBAI")
	if err != nil {
		t.Fatalf("ResolvePersona after LOCAL seed: %v", err)
	}
	if res.Persona.PersonaID != "P-DXB" {
		t.Fatalf("expected P-DXB to win over REGIONAL/GLOBAL, got %s", res.Persona.PersonaID)
	}
	if res.ResolutionPath != "LOCAL(UAE-DUBAI)" {
		t.Fatalf("path = %q, want LOCAL(UAE-DUBAI)", res.ResolutionPath)
	}
}

func TestResolvePersona_FallsThroughToGlobal(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	seedPersona(t, store, domain.Persona{PersonaID: "P-GL", Scope: domain.ScopeGlobal, SubVerticalID: "SV1", IsActive: true, CreatedAt: now})

	r := New(store)
	res, err := r.ResolvePersona(ctx, "SV1", "KSA-RIYADH")
	if err != nil {
		t.Fatalf("ResolvePersona: %v", err)
	}
	if res.Persona.PersonaID != "P-GL" {
		t.Fatalf("expected P-GL, got %s", res.Persona.PersonaID)
	}
	wantPath := "LOCAL(KSA-RIYADH) → REGIONAL(none) → GLOBAL"
	if res.ResolutionPath != wantPath {
		t.Fatalf("path = %q, want %q", res.ResolutionPath, wantPath)
	}
}

func TestResolvePersona_TieBreaksOnEarliestCreatedAt(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	seedPersona(t, store, domain.Persona{PersonaID: "P-LOCAL-LATER", Scope: domain.ScopeLocal, SubVerticalID: "SV1", RegionCode: "UAE-DUBAI", IsActive: true, CreatedAt: now})
	seedPersona(t, store, domain.Persona{PersonaID: "P-LOCAL-EARLIER", Scope: domain.ScopeLocal, SubVerticalID: "SV1", RegionCode: "UAE-DUBAI", IsActive: true, CreatedAt: now.Add(-time.Hour)})

	r := New(store)

	for i := 0; i < 5; i++ {
		res, err := r.ResolvePersona(ctx, "SV1", "UAE-DUBAI")
		if err != nil {
			t.Fatalf("ResolvePersona: %v", err)
		}
		if res.Persona.PersonaID != "P-LOCAL-EARLIER" {
			t.Fatalf("expected P-LOCAL-EARLIER to win tie-break on every run, got %s", res.Persona.PersonaID)
		}
	}
}

func TestResolvePersona_NotResolved(t *testing.T) {
	store := memory.New()
	r := New(store)

	_, err := r.ResolvePersona(context.Background(), "SV-MISSING", "UAE-DUBAI")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !kerrors.Is(err, kerrors.CodePersonaNotResolved) {
		t.Fatalf("expected CodePersonaNotResolved, got %v", err)
	}
}

func seedTerritory(t *testing.T, store *memory.Store, tr domain.Territory) {
	t.Helper()
	if _, err := store.CreateTerritory(context.Background(), tr); err != nil {
		t.Fatalf("seed territory %s: %v", tr.TerritoryID, err)
	}
}

func TestResolveTerritory_PrefersSmallestDepth(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	seedTerritory(t, store, domain.Territory{
		TerritoryID: "T-GLOBAL", Name: "Global", Level: domain.LevelGlobal,
		CoverageType: domain.CoverageGlobal, Status: domain.TerritoryActive, CreatedAt: now,
	})
	seedTerritory(t, store, domain.Territory{
		TerritoryID: "T-UAE", Name: "UAE", Slug: "uae", RegionCode: "UAE", CountryCode: "UAE",
		Level: domain.LevelCountry, CoverageType: domain.CoverageMulti, Status: domain.TerritoryActive, CreatedAt: now,
	})

	r := New(store)
	res, err := r.ResolveTerritory(ctx, "UAE", "")
	if err != nil {
		t.Fatalf("ResolveTerritory: %v", err)
	}
	if res.Territory.TerritoryID != "T-UAE" {
		t.Fatalf("expected T-UAE (exact region_code match, depth 1), got %s depth %d", res.Territory.TerritoryID, res.ResolutionDepth)
	}
	if res.ResolutionDepth != 1 {
		t.Fatalf("depth = %d, want 1", res.ResolutionDepth)
	}
}

func TestResolveTerritory_CoverageGateBlocksUnboundSingle(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	seedTerritory(t, store, domain.Territory{
		TerritoryID: "T-DXB", Name: "Dubai", Slug: "dubai", RegionCode: "UAE-DUBAI",
		Level: domain.LevelDistrict, CoverageType: domain.CoverageSingle, Status: domain.TerritoryActive, CreatedAt: now,
	})

	r := New(store)

	_, err := r.ResolveTerritory(ctx, "UAE-DUBAI", "SV1")
	if err == nil {
		t.Fatal("expected coverage gate error, got nil")
	}
	if !kerrors.Is(err, kerrors.CodeTerritoryNotConfiguredForVertical) {
		t.Fatalf("expected CodeTerritoryNotConfiguredForVertical, got %v", err)
	}

	if err := store.BindTerritorySubVertical(ctx, "T-DXB", "SV1"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	res, err := r.ResolveTerritory(ctx, "UAE-DUBAI", "SV1")
	if err != nil {
		t.Fatalf("ResolveTerritory after binding: %v", err)
	}
	if res.Territory.TerritoryID != "T-DXB" {
		t.Fatalf("expected T-DXB, got %s", res.Territory.TerritoryID)
	}
}

func TestResolveTerritory_NotConfigured(t *testing.T) {
	store := memory.New()
	r := New(store)

	_, err := r.ResolveTerritory(context.Background(), "NOWHERE", "")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !kerrors.Is(err, kerrors.CodeTerritoryNotConfigured) {
		t.Fatalf("expected CodeTerritoryNotConfigured, got %v", err)
	}
}

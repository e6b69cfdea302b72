// Package resolver implements persona, policy, and territory resolution:
// pure functions over a read-only slice of the authority store, with no
// I/O beyond those store reads and no retries. A resolution failure is a
// typed negative outcome, not a panic or a retryable error.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
)

// AuthorityReader is the read-only slice of storage.AuthorityStore the
// resolver needs. Keeping it narrow here (rather than depending on the
// full AuthorityStore interface) makes it obvious at a glance that the
// resolver never mutates authority state.
type AuthorityReader interface {
	ListActivePersonasBySubVertical(ctx context.Context, subVerticalID string) ([]domain.Persona, error)
	GetActivePolicy(ctx context.Context, personaID string) (domain.Policy, error)
	FindTerritoryByRegionCode(ctx context.Context, regionCode string) (domain.Territory, error)
	FindTerritoryByCountryCode(ctx context.Context, countryCode string) (domain.Territory, error)
	FindTerritoryBySlug(ctx context.Context, slug string) (domain.Territory, error)
	FindTerritoryByName(ctx context.Context, name string) (domain.Territory, error)
	FindGlobalTerritory(ctx context.Context) (domain.Territory, error)
	HasTerritorySubVerticalBinding(ctx context.Context, territoryID, subVerticalID string) (bool, error)
}

// Resolver resolves personas, policies, and territories against an
// AuthorityReader.
type Resolver struct {
	authority AuthorityReader
}

func New(authority AuthorityReader) *Resolver {
	return &Resolver{authority: authority}
}

// PersonaResolution is the positive outcome of resolve_persona.
type PersonaResolution struct {
	Persona          domain.Persona
	ResolutionPath   string
	ResolutionScope  domain.PersonaScope
}

// ResolvePersona implements the inheritance order LOCAL -> REGIONAL ->
// GLOBAL, first hit wins, with subsequent probes short-circuited. The
// resolution path is an audit trail of every probe actually made, up to
// and including the one that matched.
func (r *Resolver) ResolvePersona(ctx context.Context, subVerticalID, regionCode string) (PersonaResolution, error) {
	candidates, err := r.authority.ListActivePersonasBySubVertical(ctx, subVerticalID)
	if err != nil {
		return PersonaResolution{}, err
	}

	leadingSegment := regionCode
	if idx := strings.Index(regionCode, "-"); idx >= 0 {
		leadingSegment = regionCode[:idx]
	}

	var localMatches, regionalMatches, globalMatches []domain.Persona
	for i := range candidates {
		p := candidates[i]
		if !p.IsActive {
			continue
		}
		switch p.Scope {
		case domain.ScopeLocal:
			if p.RegionCode != "" && p.RegionCode == regionCode {
				localMatches = append(localMatches, p)
			}
		case domain.ScopeRegional:
			if p.RegionCode != "" && (p.RegionCode == leadingSegment || strings.HasPrefix(regionCode, p.RegionCode)) {
				regionalMatches = append(regionalMatches, p)
			}
		case domain.ScopeGlobal:
			globalMatches = append(globalMatches, p)
		}
	}

	// Multiple ACTIVE personas can match the same scope/region; break
	// ties the same way territory resolution does — earliest CreatedAt
	// wins — so resolution is deterministic across runs.
	local := pickPersonaTieBreak(localMatches)
	regional := pickPersonaTieBreak(regionalMatches)
	global := pickPersonaTieBreak(globalMatches)

	var segments []string

	// LOCAL is always probed first and always echoes the requested code.
	segments = append(segments, fmt.Sprintf("LOCAL(%s)", valueOrNone(regionCode)))
	if local != nil {
		return PersonaResolution{Persona: *local, ResolutionPath: strings.Join(segments, " → "), ResolutionScope: domain.ScopeLocal}, nil
	}

	regionalValue := ""
	if regional != nil {
		regionalValue = regional.RegionCode
	}
	segments = append(segments, fmt.Sprintf("REGIONAL(%s)", valueOrNone(regionalValue)))
	if regional != nil {
		return PersonaResolution{Persona: *regional, ResolutionPath: strings.Join(segments, " → "), ResolutionScope: domain.ScopeRegional}, nil
	}

	segments = append(segments, "GLOBAL")
	if global != nil {
		return PersonaResolution{Persona: *global, ResolutionPath: strings.Join(segments, " → "), ResolutionScope: domain.ScopeGlobal}, nil
	}

	return PersonaResolution{}, kerrors.New(kerrors.CodePersonaNotResolved, "no active persona matches sub_vertical and region").
		WithDetails("sub_vertical_id", subVerticalID).
		WithDetails("region_code", regionCode)
}

// pickPersonaTieBreak applies the same tie-break territory resolution
// uses (pickTerritoryTieBreak in storage/memory/authority.go): when
// more than one ACTIVE persona matches at the same specificity level,
// the earliest-created one wins, so resolution doesn't depend on map
// iteration order.
func pickPersonaTieBreak(candidates []domain.Persona) *domain.Persona {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.CreatedAt.Before(best.CreatedAt) {
			best = c
		}
	}
	return &best
}

func valueOrNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}

// GetActivePolicy wraps the authority store call so resolver callers have
// a single import surface.
func (r *Resolver) GetActivePolicy(ctx context.Context, personaID string) (domain.Policy, error) {
	return r.authority.GetActivePolicy(ctx, personaID)
}

// TerritoryResolution is the positive outcome of resolve_territory.
type TerritoryResolution struct {
	Territory        domain.Territory
	ResolutionPath   string
	ResolutionDepth  int
}

// ResolveTerritory implements the inheritance order: exact region_code ->
// country_code (country level) -> case-insensitive slug -> case
// insensitive name -> GLOBAL fallback. resolution_depth is 1..5.
func (r *Resolver) ResolveTerritory(ctx context.Context, regionCode, subVerticalID string) (TerritoryResolution, error) {
	steps := []struct {
		depth int
		path  string
		find  func() (domain.Territory, error)
	}{
		{1, fmt.Sprintf("exact(%s)", regionCode), func() (domain.Territory, error) {
			return r.authority.FindTerritoryByRegionCode(ctx, regionCode)
		}},
		{2, fmt.Sprintf("country(%s)", regionCode), func() (domain.Territory, error) {
			return r.authority.FindTerritoryByCountryCode(ctx, regionCode)
		}},
		{3, fmt.Sprintf("slug(%s)", regionCode), func() (domain.Territory, error) {
			return r.authority.FindTerritoryBySlug(ctx, regionCode)
		}},
		{4, fmt.Sprintf("name(%s)", regionCode), func() (domain.Territory, error) {
			return r.authority.FindTerritoryByName(ctx, regionCode)
		}},
		{5, "global", func() (domain.Territory, error) {
			return r.authority.FindGlobalTerritory(ctx)
		}},
	}

	for _, step := range steps {
		t, err := step.find()
		if err == nil {
			if subVerticalID != "" {
				if gateErr := r.checkCoverage(ctx, t, subVerticalID); gateErr != nil {
					return TerritoryResolution{}, gateErr
				}
			}
			return TerritoryResolution{Territory: t, ResolutionPath: step.path, ResolutionDepth: step.depth}, nil
		}
	}

	return TerritoryResolution{}, kerrors.New(kerrors.CodeTerritoryNotConfigured, "no territory resolves for region_code").
		WithDetails("region_code", regionCode)
}

// checkCoverage enforces the coverage gate: validation succeeds if an
// explicit binding exists, or the territory's coverage type is GLOBAL or
// MULTI.
func (r *Resolver) checkCoverage(ctx context.Context, t domain.Territory, subVerticalID string) error {
	if t.CoverageType == domain.CoverageGlobal || t.CoverageType == domain.CoverageMulti {
		return nil
	}
	bound, err := r.authority.HasTerritorySubVerticalBinding(ctx, t.TerritoryID, subVerticalID)
	if err != nil {
		return err
	}
	if bound {
		return nil
	}
	return kerrors.New(kerrors.CodeTerritoryNotConfiguredForVertical, "territory has no binding for sub_vertical and is not MULTI/GLOBAL coverage").
		WithDetails("territory_id", t.TerritoryID).
		WithDetails("sub_vertical_id", subVerticalID)
}

package memory

import (
	"context"
	"strings"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
)

func (s *Store) CreateEnterprise(_ context.Context, e domain.Enterprise) (domain.Enterprise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enterprises[e.EnterpriseID] = e
	return e, nil
}

func (s *Store) GetEnterprise(_ context.Context, enterpriseID string) (domain.Enterprise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enterprises[enterpriseID]
	if !ok {
		return domain.Enterprise{}, errNotFound("enterprise", enterpriseID)
	}
	return e, nil
}

func (s *Store) CreateWorkspace(_ context.Context, w domain.Workspace) (domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.enterprises[w.EnterpriseID]; !ok {
		return domain.Workspace{}, errNotFound("enterprise", w.EnterpriseID)
	}
	s.workspaces[w.WorkspaceID] = w
	return w, nil
}

func (s *Store) GetWorkspace(_ context.Context, workspaceID string) (domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workspaces[workspaceID]
	if !ok {
		return domain.Workspace{}, errNotFound("workspace", workspaceID)
	}
	return w, nil
}

func (s *Store) UpdateWorkspace(_ context.Context, w domain.Workspace) (domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.workspaces[w.WorkspaceID]
	if !ok {
		return domain.Workspace{}, errNotFound("workspace", w.WorkspaceID)
	}
	if existing.EnterpriseID != w.EnterpriseID {
		return domain.Workspace{}, kerrors.New(kerrors.CodeWorkspaceReassignmentForbidden,
			"workspace enterprise_id is immutable").
			WithDetails("workspace_id", w.WorkspaceID).
			WithDetails("current_enterprise_id", existing.EnterpriseID).
			WithDetails("attempted_enterprise_id", w.EnterpriseID)
	}
	s.workspaces[w.WorkspaceID] = w
	return w, nil
}

func (s *Store) SoftDeleteWorkspace(_ context.Context, workspaceID, deletedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workspaces[workspaceID]
	if !ok {
		return errNotFound("workspace", workspaceID)
	}
	now := nowUTC()
	w.DeletedAt = &now
	w.DeletedBy = deletedBy
	s.workspaces[workspaceID] = w
	return nil
}

func (s *Store) CreateExecutionIdentity(_ context.Context, u domain.ExecutionIdentity) (domain.ExecutionIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[u.WorkspaceID]
	if !ok {
		return domain.ExecutionIdentity{}, errNotFound("workspace", u.WorkspaceID)
	}
	if ws.EnterpriseID != u.EnterpriseID {
		return domain.ExecutionIdentity{}, kerrors.New(kerrors.CodeCrossEnterpriseForbidden,
			"execution identity enterprise_id must match workspace enterprise_id").
			WithDetails("workspace_id", u.WorkspaceID).
			WithDetails("workspace_enterprise_id", ws.EnterpriseID).
			WithDetails("attempted_enterprise_id", u.EnterpriseID)
	}
	s.identities[u.UserID] = u
	return u, nil
}

func (s *Store) GetExecutionIdentity(_ context.Context, userID string) (domain.ExecutionIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.identities[userID]
	if !ok {
		return domain.ExecutionIdentity{}, errNotFound("execution identity", userID)
	}
	return u, nil
}

func (s *Store) UpdateExecutionIdentity(_ context.Context, u domain.ExecutionIdentity) (domain.ExecutionIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.identities[u.UserID]
	if !ok {
		return domain.ExecutionIdentity{}, errNotFound("execution identity", u.UserID)
	}
	if existing.EnterpriseID != u.EnterpriseID {
		return domain.ExecutionIdentity{}, kerrors.New(kerrors.CodeCrossEnterpriseForbidden,
			"execution identity enterprise_id is immutable").
			WithDetails("user_id", u.UserID)
	}
	if existing.WorkspaceID != u.WorkspaceID {
		return domain.ExecutionIdentity{}, kerrors.New(kerrors.CodeWorkspaceReassignmentForbidden,
			"execution identity workspace_id is immutable").
			WithDetails("user_id", u.UserID)
	}
	if isForbiddenEscalation(existing.Role, u.Role) {
		return domain.ExecutionIdentity{}, kerrors.New(kerrors.CodeRoleEscalationForbidden,
			"direct escalation to SUPER_ADMIN is forbidden").
			WithDetails("user_id", u.UserID).
			WithDetails("from_role", string(existing.Role)).
			WithDetails("to_role", string(u.Role))
	}
	s.identities[u.UserID] = u
	return u, nil
}

// isForbiddenEscalation rejects USER->SUPER_ADMIN and
// ENTERPRISE_ADMIN->SUPER_ADMIN in one mutation; USER->ENTERPRISE_ADMIN
// and ENTERPRISE_ADMIN->SUPER_ADMIN as two separate mutations are each
// individually allowed.
func isForbiddenEscalation(from, to domain.Role) bool {
	return to == domain.RoleSuperAdmin && from != domain.RoleSuperAdmin
}

func (s *Store) CreatePersona(_ context.Context, p domain.Persona) (domain.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personas[p.PersonaID] = p
	return p, nil
}

func (s *Store) GetPersona(_ context.Context, personaID string) (domain.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.personas[personaID]
	if !ok {
		return domain.Persona{}, errNotFound("persona", personaID)
	}
	return p, nil
}

func (s *Store) ListActivePersonasBySubVertical(_ context.Context, subVerticalID string) ([]domain.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Persona
	for _, p := range s.personas {
		if p.SubVerticalID == subVerticalID && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) CreatePolicy(_ context.Context, p domain.Policy) (domain.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Status == domain.PolicyActive {
		for id, existing := range s.policies {
			if existing.PersonaID == p.PersonaID && existing.Status == domain.PolicyActive {
				existing.Status = domain.PolicyDeprecated
				s.policies[id] = existing
			}
		}
	}
	s.policies[p.PolicyID] = p
	return p, nil
}

func (s *Store) GetActivePolicy(_ context.Context, personaID string) (domain.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *domain.Policy
	count := 0
	for _, p := range s.policies {
		if p.PersonaID == personaID && p.Status == domain.PolicyActive {
			count++
			cp := p
			found = &cp
		}
	}
	if count == 0 {
		return domain.Policy{}, kerrors.New(kerrors.CodePolicyNotFound, "no active policy for persona").
			WithDetails("persona_id", personaID)
	}
	if count > 1 {
		return domain.Policy{}, kerrors.New(kerrors.CodeMultipleActivePolicies, "multiple active policies for persona").
			WithDetails("persona_id", personaID)
	}
	return *found, nil
}

func (s *Store) SetPolicyStatus(_ context.Context, policyID string, status domain.PolicyStatus) (domain.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[policyID]
	if !ok {
		return domain.Policy{}, errNotFound("policy", policyID)
	}
	if status == domain.PolicyActive {
		for id, existing := range s.policies {
			if existing.PersonaID == p.PersonaID && existing.Status == domain.PolicyActive && id != policyID {
				existing.Status = domain.PolicyDeprecated
				s.policies[id] = existing
			}
		}
	}
	p.Status = status
	s.policies[policyID] = p
	return p, nil
}

func (s *Store) CreateTerritory(_ context.Context, t domain.Territory) (domain.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.territories[t.TerritoryID] = t
	return t, nil
}

func (s *Store) GetTerritory(_ context.Context, territoryID string) (domain.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.territories[territoryID]
	if !ok {
		return domain.Territory{}, errNotFound("territory", territoryID)
	}
	return t, nil
}

func (s *Store) FindTerritoryByRegionCode(_ context.Context, regionCode string) (domain.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []domain.Territory
	for _, t := range s.territories {
		if t.Status == domain.TerritoryActive && strings.EqualFold(t.RegionCode, regionCode) {
			candidates = append(candidates, t)
		}
	}
	return pickTerritoryTieBreak(candidates)
}

func (s *Store) FindTerritoryByCountryCode(_ context.Context, countryCode string) (domain.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []domain.Territory
	for _, t := range s.territories {
		if t.Status == domain.TerritoryActive && t.Level == domain.LevelCountry && strings.EqualFold(t.CountryCode, countryCode) {
			candidates = append(candidates, t)
		}
	}
	return pickTerritoryTieBreak(candidates)
}

func (s *Store) FindTerritoryBySlug(_ context.Context, slug string) (domain.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []domain.Territory
	for _, t := range s.territories {
		if t.Status == domain.TerritoryActive && strings.EqualFold(t.Slug, slug) {
			candidates = append(candidates, t)
		}
	}
	return pickTerritoryTieBreak(candidates)
}

func (s *Store) FindTerritoryByName(_ context.Context, name string) (domain.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []domain.Territory
	for _, t := range s.territories {
		if t.Status == domain.TerritoryActive && strings.EqualFold(t.Name, name) {
			candidates = append(candidates, t)
		}
	}
	return pickTerritoryTieBreak(candidates)
}

func (s *Store) FindGlobalTerritory(_ context.Context) (domain.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []domain.Territory
	for _, t := range s.territories {
		if t.Status == domain.TerritoryActive && t.Level == domain.LevelGlobal {
			candidates = append(candidates, t)
		}
	}
	return pickTerritoryTieBreak(candidates)
}

// pickTerritoryTieBreak applies the resolver tie-break decision recorded
// in DESIGN.md: order by level specificity descending, then by
// CreatedAt ascending (earliest wins).
func pickTerritoryTieBreak(candidates []domain.Territory) (domain.Territory, error) {
	if len(candidates) == 0 {
		return domain.Territory{}, kerrors.New(kerrors.CodeTerritoryNotConfigured, "no matching territory")
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if levelSpecificity(c.Level) > levelSpecificity(best.Level) {
			best = c
			continue
		}
		if levelSpecificity(c.Level) == levelSpecificity(best.Level) && c.CreatedAt.Before(best.CreatedAt) {
			best = c
		}
	}
	return best, nil
}

func levelSpecificity(l domain.TerritoryLevel) int {
	switch l {
	case domain.LevelDistrict:
		return 5
	case domain.LevelState:
		return 4
	case domain.LevelCountry:
		return 3
	case domain.LevelRegion:
		return 2
	default:
		return 1
	}
}

func (s *Store) BindTerritorySubVertical(_ context.Context, territoryID, subVerticalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.territorySV[territorySVKey(territoryID, subVerticalID)] = true
	return nil
}

func (s *Store) HasTerritorySubVerticalBinding(_ context.Context, territoryID, subVerticalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.territorySV[territorySVKey(territoryID, subVerticalID)], nil
}

func (s *Store) AppendBusinessEvent(_ context.Context, e domain.BusinessEvent) (domain.BusinessEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businessEvents = append(s.businessEvents, e)
	return e, nil
}

// Package authoritystore wraps storage.AuthorityStore so every mutation is
// paired with an audit_log append, the same write-then-record shape the
// teacher uses for chain-state mutations paired with business events.
package authoritystore

import (
	"context"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage"
)

// Actor identifies who is performing a mutation, carried into the audit
// row without the caller having to build an AuditEntry by hand.
type Actor struct {
	ActorID      string
	ActorRole    domain.ActorRole
	EnterpriseID string
}

// Service is a thin facade over storage.AuthorityStore that appends one
// AuditEntry per mutating call.
type Service struct {
	authority storage.AuthorityStore
	audit     storage.AuditStore
	clock     idgen.Clock
	ids       idgen.IDGenerator
}

func New(authority storage.AuthorityStore, audit storage.AuditStore, clock idgen.Clock, ids idgen.IDGenerator) *Service {
	return &Service{authority: authority, audit: audit, clock: clock, ids: ids}
}

func (s *Service) appendAudit(ctx context.Context, actor Actor, action, targetType, targetID string, success bool, reason string, metadata map[string]interface{}) error {
	_, err := s.audit.Append(ctx, domain.AuditEntry{
		ID:           s.ids.NewID(),
		ActorID:      actor.ActorID,
		ActorRole:    actor.ActorRole,
		EnterpriseID: actor.EnterpriseID,
		Action:       action,
		TargetType:   targetType,
		TargetID:     targetID,
		Success:      success,
		Reason:       reason,
		Metadata:     metadata,
		OccurredAt:   s.clock.Now(),
	})
	return err
}

func (s *Service) CreateEnterprise(ctx context.Context, actor Actor, e domain.Enterprise) (domain.Enterprise, error) {
	created, err := s.authority.CreateEnterprise(ctx, e)
	if err != nil {
		_ = s.appendAudit(ctx, actor, "CREATE_ENTERPRISE", "enterprise", e.EnterpriseID, false, err.Error(), nil)
		return domain.Enterprise{}, err
	}
	if auditErr := s.appendAudit(ctx, actor, "CREATE_ENTERPRISE", "enterprise", created.EnterpriseID, true, "", nil); auditErr != nil {
		return domain.Enterprise{}, auditErr
	}
	return created, nil
}

func (s *Service) GetEnterprise(ctx context.Context, enterpriseID string) (domain.Enterprise, error) {
	return s.authority.GetEnterprise(ctx, enterpriseID)
}

func (s *Service) CreateWorkspace(ctx context.Context, actor Actor, w domain.Workspace) (domain.Workspace, error) {
	created, err := s.authority.CreateWorkspace(ctx, w)
	if err != nil {
		_ = s.appendAudit(ctx, actor, "CREATE_WORKSPACE", "workspace", w.WorkspaceID, false, err.Error(), nil)
		return domain.Workspace{}, err
	}
	if auditErr := s.appendAudit(ctx, actor, "CREATE_WORKSPACE", "workspace", created.WorkspaceID, true, "", nil); auditErr != nil {
		return domain.Workspace{}, auditErr
	}
	return created, nil
}

func (s *Service) GetWorkspace(ctx context.Context, workspaceID string) (domain.Workspace, error) {
	return s.authority.GetWorkspace(ctx, workspaceID)
}

func (s *Service) UpdateWorkspace(ctx context.Context, actor Actor, w domain.Workspace) (domain.Workspace, error) {
	updated, err := s.authority.UpdateWorkspace(ctx, w)
	if err != nil {
		_ = s.appendAudit(ctx, actor, "UPDATE_WORKSPACE", "workspace", w.WorkspaceID, false, err.Error(), nil)
		return domain.Workspace{}, err
	}
	if auditErr := s.appendAudit(ctx, actor, "UPDATE_WORKSPACE", "workspace", updated.WorkspaceID, true, "", nil); auditErr != nil {
		return domain.Workspace{}, auditErr
	}
	return updated, nil
}

func (s *Service) SoftDeleteWorkspace(ctx context.Context, actor Actor, workspaceID string) error {
	if err := s.authority.SoftDeleteWorkspace(ctx, workspaceID, actor.ActorID); err != nil {
		_ = s.appendAudit(ctx, actor, "DELETE_WORKSPACE", "workspace", workspaceID, false, err.Error(), nil)
		return err
	}
	return s.appendAudit(ctx, actor, "DELETE_WORKSPACE", "workspace", workspaceID, true, "", nil)
}

func (s *Service) CreateExecutionIdentity(ctx context.Context, actor Actor, u domain.ExecutionIdentity) (domain.ExecutionIdentity, error) {
	created, err := s.authority.CreateExecutionIdentity(ctx, u)
	if err != nil {
		_ = s.appendAudit(ctx, actor, "CREATE_EXECUTION_IDENTITY", "execution_identity", u.UserID, false, err.Error(), nil)
		return domain.ExecutionIdentity{}, err
	}
	if auditErr := s.appendAudit(ctx, actor, "CREATE_EXECUTION_IDENTITY", "execution_identity", created.UserID, true, "", nil); auditErr != nil {
		return domain.ExecutionIdentity{}, auditErr
	}
	return created, nil
}

func (s *Service) GetExecutionIdentity(ctx context.Context, userID string) (domain.ExecutionIdentity, error) {
	return s.authority.GetExecutionIdentity(ctx, userID)
}

func (s *Service) UpdateExecutionIdentity(ctx context.Context, actor Actor, u domain.ExecutionIdentity) (domain.ExecutionIdentity, error) {
	updated, err := s.authority.UpdateExecutionIdentity(ctx, u)
	if err != nil {
		_ = s.appendAudit(ctx, actor, "UPDATE_EXECUTION_IDENTITY", "execution_identity", u.UserID, false, err.Error(),
			map[string]interface{}{"attempted_role": string(u.Role)})
		return domain.ExecutionIdentity{}, err
	}
	if auditErr := s.appendAudit(ctx, actor, "UPDATE_EXECUTION_IDENTITY", "execution_identity", updated.UserID, true, "", nil); auditErr != nil {
		return domain.ExecutionIdentity{}, auditErr
	}
	return updated, nil
}

func (s *Service) CreatePersona(ctx context.Context, actor Actor, p domain.Persona) (domain.Persona, error) {
	created, err := s.authority.CreatePersona(ctx, p)
	if err != nil {
		_ = s.appendAudit(ctx, actor, "CREATE_PERSONA", "persona", p.PersonaID, false, err.Error(), nil)
		return domain.Persona{}, err
	}
	if auditErr := s.appendAudit(ctx, actor, "CREATE_PERSONA", "persona", created.PersonaID, true, "", nil); auditErr != nil {
		return domain.Persona{}, auditErr
	}
	return created, nil
}

func (s *Service) GetPersona(ctx context.Context, personaID string) (domain.Persona, error) {
	return s.authority.GetPersona(ctx, personaID)
}

func (s *Service) ListActivePersonasBySubVertical(ctx context.Context, subVerticalID string) ([]domain.Persona, error) {
	return s.authority.ListActivePersonasBySubVertical(ctx, subVerticalID)
}

// CreatePolicy audits the new policy with its persona_id and resulting
// status as metadata. The audit row does not record whether the store
// deprecated a prior ACTIVE policy for the same persona.
func (s *Service) CreatePolicy(ctx context.Context, actor Actor, p domain.Policy) (domain.Policy, error) {
	created, err := s.authority.CreatePolicy(ctx, p)
	if err != nil {
		_ = s.appendAudit(ctx, actor, "CREATE_POLICY", "policy", p.PolicyID, false, err.Error(), nil)
		return domain.Policy{}, err
	}
	metadata := map[string]interface{}{"persona_id": created.PersonaID, "status": string(created.Status)}
	if auditErr := s.appendAudit(ctx, actor, "CREATE_POLICY", "policy", created.PolicyID, true, "", metadata); auditErr != nil {
		return domain.Policy{}, auditErr
	}
	return created, nil
}

func (s *Service) GetActivePolicy(ctx context.Context, personaID string) (domain.Policy, error) {
	return s.authority.GetActivePolicy(ctx, personaID)
}

func (s *Service) SetPolicyStatus(ctx context.Context, actor Actor, policyID string, status domain.PolicyStatus) (domain.Policy, error) {
	updated, err := s.authority.SetPolicyStatus(ctx, policyID, status)
	if err != nil {
		_ = s.appendAudit(ctx, actor, "SET_POLICY_STATUS", "policy", policyID, false, err.Error(),
			map[string]interface{}{"attempted_status": string(status)})
		return domain.Policy{}, err
	}
	if auditErr := s.appendAudit(ctx, actor, "SET_POLICY_STATUS", "policy", updated.PolicyID, true, "",
		map[string]interface{}{"status": string(updated.Status)}); auditErr != nil {
		return domain.Policy{}, auditErr
	}
	return updated, nil
}

func (s *Service) CreateTerritory(ctx context.Context, actor Actor, t domain.Territory) (domain.Territory, error) {
	created, err := s.authority.CreateTerritory(ctx, t)
	if err != nil {
		_ = s.appendAudit(ctx, actor, "CREATE_TERRITORY", "territory", t.TerritoryID, false, err.Error(), nil)
		return domain.Territory{}, err
	}
	if auditErr := s.appendAudit(ctx, actor, "CREATE_TERRITORY", "territory", created.TerritoryID, true, "", nil); auditErr != nil {
		return domain.Territory{}, auditErr
	}
	return created, nil
}

func (s *Service) GetTerritory(ctx context.Context, territoryID string) (domain.Territory, error) {
	return s.authority.GetTerritory(ctx, territoryID)
}

func (s *Service) BindTerritorySubVertical(ctx context.Context, actor Actor, territoryID, subVerticalID string) error {
	if err := s.authority.BindTerritorySubVertical(ctx, territoryID, subVerticalID); err != nil {
		_ = s.appendAudit(ctx, actor, "BIND_TERRITORY_SUB_VERTICAL", "territory", territoryID, false, err.Error(),
			map[string]interface{}{"sub_vertical_id": subVerticalID})
		return err
	}
	return s.appendAudit(ctx, actor, "BIND_TERRITORY_SUB_VERTICAL", "territory", territoryID, true, "",
		map[string]interface{}{"sub_vertical_id": subVerticalID})
}

func (s *Service) HasTerritorySubVerticalBinding(ctx context.Context, territoryID, subVerticalID string) (bool, error) {
	return s.authority.HasTerritorySubVerticalBinding(ctx, territoryID, subVerticalID)
}

// AppendBusinessEvent is itself the audited fact (invariant I6); it does
// not additionally generate an AuditEntry, matching spec.md's distinction
// between the business-fact stream and the authority-mutation audit log.
func (s *Service) AppendBusinessEvent(ctx context.Context, e domain.BusinessEvent) (domain.BusinessEvent, error) {
	return s.authority.AppendBusinessEvent(ctx, e)
}

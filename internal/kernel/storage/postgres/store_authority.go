package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
)

func (s *Store) CreateEnterprise(ctx context.Context, e domain.Enterprise) (domain.Enterprise, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enterprises (enterprise_id, name, type, region, status, created_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.EnterpriseID, e.Name, e.Type, e.Region, e.Status, e.CreatedAt, e.DeletedAt)
	if err != nil {
		return domain.Enterprise{}, fmt.Errorf("insert enterprise: %w", err)
	}
	return e, nil
}

func (s *Store) GetEnterprise(ctx context.Context, enterpriseID string) (domain.Enterprise, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT enterprise_id, name, type, region, status, created_at, deleted_at
		FROM enterprises WHERE enterprise_id = $1
	`, enterpriseID)
	return scanEnterprise(row)
}

func scanEnterprise(scanner rowScanner) (domain.Enterprise, error) {
	var e domain.Enterprise
	var deletedAt sql.NullTime
	if err := scanner.Scan(&e.EnterpriseID, &e.Name, &e.Type, &e.Region, &e.Status, &e.CreatedAt, &deletedAt); err != nil {
		return domain.Enterprise{}, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	if deletedAt.Valid {
		t := deletedAt.Time.UTC()
		e.DeletedAt = &t
	}
	return e, nil
}

func (s *Store) CreateWorkspace(ctx context.Context, w domain.Workspace) (domain.Workspace, error) {
	if _, err := s.GetEnterprise(ctx, w.EnterpriseID); err != nil {
		return domain.Workspace{}, err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workspaces (workspace_id, enterprise_id, sub_vertical_id, name, status, created_at, deleted_at, deleted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, w.WorkspaceID, w.EnterpriseID, w.SubVerticalID, w.Name, w.Status, w.CreatedAt, w.DeletedAt, w.DeletedBy)
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("insert workspace: %w", err)
	}
	return w, nil
}

func (s *Store) GetWorkspace(ctx context.Context, workspaceID string) (domain.Workspace, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT workspace_id, enterprise_id, sub_vertical_id, name, status, created_at, deleted_at, deleted_by
		FROM workspaces WHERE workspace_id = $1
	`, workspaceID)
	return scanWorkspace(row)
}

func scanWorkspace(scanner rowScanner) (domain.Workspace, error) {
	var w domain.Workspace
	var deletedAt sql.NullTime
	if err := scanner.Scan(&w.WorkspaceID, &w.EnterpriseID, &w.SubVerticalID, &w.Name, &w.Status, &w.CreatedAt, &deletedAt, &w.DeletedBy); err != nil {
		return domain.Workspace{}, err
	}
	w.CreatedAt = w.CreatedAt.UTC()
	if deletedAt.Valid {
		t := deletedAt.Time.UTC()
		w.DeletedAt = &t
	}
	return w, nil
}

// UpdateWorkspace enforces the same immutable-enterprise invariant the
// memory store checks in Go: read the current row first so the
// attempted reassignment can be reported with both enterprise ids
// rather than just failing a blind UPDATE.
func (s *Store) UpdateWorkspace(ctx context.Context, w domain.Workspace) (domain.Workspace, error) {
	existing, err := s.GetWorkspace(ctx, w.WorkspaceID)
	if err != nil {
		return domain.Workspace{}, err
	}
	if existing.EnterpriseID != w.EnterpriseID {
		return domain.Workspace{}, kerrors.New(kerrors.CodeWorkspaceReassignmentForbidden,
			"workspace enterprise_id is immutable").
			WithDetails("workspace_id", w.WorkspaceID).
			WithDetails("current_enterprise_id", existing.EnterpriseID).
			WithDetails("attempted_enterprise_id", w.EnterpriseID)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE workspaces SET sub_vertical_id = $2, name = $3, status = $4
		WHERE workspace_id = $1
	`, w.WorkspaceID, w.SubVerticalID, w.Name, w.Status)
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("update workspace: %w", err)
	}
	return s.GetWorkspace(ctx, w.WorkspaceID)
}

func (s *Store) SoftDeleteWorkspace(ctx context.Context, workspaceID, deletedBy string) error {
	tag, err := s.db.ExecContext(ctx, `
		UPDATE workspaces SET deleted_at = now(), deleted_by = $2
		WHERE workspace_id = $1
	`, workspaceID, deletedBy)
	if err != nil {
		return fmt.Errorf("soft delete workspace: %w", err)
	}
	rows, err := tag.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("workspace %q: not found", workspaceID)
	}
	return nil
}

func (s *Store) CreateExecutionIdentity(ctx context.Context, u domain.ExecutionIdentity) (domain.ExecutionIdentity, error) {
	ws, err := s.GetWorkspace(ctx, u.WorkspaceID)
	if err != nil {
		return domain.ExecutionIdentity{}, err
	}
	if ws.EnterpriseID != u.EnterpriseID {
		return domain.ExecutionIdentity{}, kerrors.New(kerrors.CodeCrossEnterpriseForbidden,
			"execution identity enterprise_id must match workspace enterprise_id").
			WithDetails("workspace_id", u.WorkspaceID).
			WithDetails("workspace_enterprise_id", ws.EnterpriseID).
			WithDetails("attempted_enterprise_id", u.EnterpriseID)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO execution_identities (user_id, enterprise_id, workspace_id, sub_vertical_id, role, mode, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.UserID, u.EnterpriseID, u.WorkspaceID, u.SubVerticalID, u.Role, u.Mode, u.Status, u.CreatedAt)
	if err != nil {
		return domain.ExecutionIdentity{}, fmt.Errorf("insert execution identity: %w", err)
	}
	return u, nil
}

func (s *Store) GetExecutionIdentity(ctx context.Context, userID string) (domain.ExecutionIdentity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, enterprise_id, workspace_id, sub_vertical_id, role, mode, status, created_at
		FROM execution_identities WHERE user_id = $1
	`, userID)
	return scanExecutionIdentity(row)
}

func scanExecutionIdentity(scanner rowScanner) (domain.ExecutionIdentity, error) {
	var u domain.ExecutionIdentity
	if err := scanner.Scan(&u.UserID, &u.EnterpriseID, &u.WorkspaceID, &u.SubVerticalID, &u.Role, &u.Mode, &u.Status, &u.CreatedAt); err != nil {
		return domain.ExecutionIdentity{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// isForbiddenEscalation rejects a direct jump to SUPER_ADMIN in one
// mutation, the same rule storage/memory enforces in Go since the
// constraint depends on both the old and new row.
func isForbiddenEscalation(from, to domain.Role) bool {
	return to == domain.RoleSuperAdmin && from != domain.RoleSuperAdmin
}

func (s *Store) UpdateExecutionIdentity(ctx context.Context, u domain.ExecutionIdentity) (domain.ExecutionIdentity, error) {
	existing, err := s.GetExecutionIdentity(ctx, u.UserID)
	if err != nil {
		return domain.ExecutionIdentity{}, err
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
	_, err = s.db.ExecContext(ctx, `
		UPDATE execution_identities SET sub_vertical_id = $2, role = $3, mode = $4, status = $5
		WHERE user_id = $1
	`, u.UserID, u.SubVerticalID, u.Role, u.Mode, u.Status)
	if err != nil {
		return domain.ExecutionIdentity{}, fmt.Errorf("update execution identity: %w", err)
	}
	return s.GetExecutionIdentity(ctx, u.UserID)
}

func (s *Store) CreatePersona(ctx context.Context, p domain.Persona) (domain.Persona, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO personas (persona_id, scope, sub_vertical_id, region_code, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.PersonaID, p.Scope, p.SubVerticalID, p.RegionCode, p.IsActive, p.CreatedAt)
	if err != nil {
		return domain.Persona{}, fmt.Errorf("insert persona: %w", err)
	}
	return p, nil
}

func (s *Store) GetPersona(ctx context.Context, personaID string) (domain.Persona, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT persona_id, scope, sub_vertical_id, region_code, is_active, created_at
		FROM personas WHERE persona_id = $1
	`, personaID)
	return scanPersona(row)
}

func scanPersona(scanner rowScanner) (domain.Persona, error) {
	var p domain.Persona
	if err := scanner.Scan(&p.PersonaID, &p.Scope, &p.SubVerticalID, &p.RegionCode, &p.IsActive, &p.CreatedAt); err != nil {
		return domain.Persona{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// ListActivePersonasBySubVertical orders by created_at ascending so the
// resolver's own tie-break (internal/kernel/services/resolver) picking
// the earliest match within a scope bucket sees candidates in a stable
// order, matching pickTerritoryTieBreak's SQL-layer counterpart.
func (s *Store) ListActivePersonasBySubVertical(ctx context.Context, subVerticalID string) ([]domain.Persona, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT persona_id, scope, sub_vertical_id, region_code, is_active, created_at
		FROM personas WHERE sub_vertical_id = $1 AND is_active = true
		ORDER BY created_at ASC
	`, subVerticalID)
	if err != nil {
		return nil, fmt.Errorf("list active personas: %w", err)
	}
	defer rows.Close()

	var out []domain.Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreatePolicy deprecates any existing ACTIVE policy for the same
// persona before inserting an ACTIVE one, inside one transaction, so
// the partial-unique index on (persona_id) WHERE status = 'ACTIVE'
// (invariant I2) never sees a transient violation.
func (s *Store) CreatePolicy(ctx context.Context, p domain.Policy) (domain.Policy, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Policy{}, fmt.Errorf("begin create policy: %w", err)
	}
	defer tx.Rollback()

	if p.Status == domain.PolicyActive {
		if _, err := tx.ExecContext(ctx, `
			UPDATE persona_policies SET status = 'DEPRECATED'
			WHERE persona_id = $1 AND status = 'ACTIVE'
		`, p.PersonaID); err != nil {
			return domain.Policy{}, fmt.Errorf("deprecate existing active policy: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO persona_policies (policy_id, policy_version, persona_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.PolicyID, p.PolicyVersion, p.PersonaID, p.Status, p.CreatedAt); err != nil {
		return domain.Policy{}, fmt.Errorf("insert policy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Policy{}, fmt.Errorf("commit create policy: %w", err)
	}
	return p, nil
}

func (s *Store) GetActivePolicy(ctx context.Context, personaID string) (domain.Policy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT policy_id, policy_version, persona_id, status, created_at
		FROM persona_policies WHERE persona_id = $1 AND status = 'ACTIVE'
	`, personaID)
	if err != nil {
		return domain.Policy{}, fmt.Errorf("query active policy: %w", err)
	}
	defer rows.Close()

	var found []domain.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return domain.Policy{}, err
		}
		found = append(found, p)
	}
	if err := rows.Err(); err != nil {
		return domain.Policy{}, err
	}
	if len(found) == 0 {
		return domain.Policy{}, kerrors.New(kerrors.CodePolicyNotFound, "no active policy for persona").
			WithDetails("persona_id", personaID)
	}
	if len(found) > 1 {
		return domain.Policy{}, kerrors.New(kerrors.CodeMultipleActivePolicies, "multiple active policies for persona").
			WithDetails("persona_id", personaID)
	}
	return found[0], nil
}

func scanPolicy(scanner rowScanner) (domain.Policy, error) {
	var p domain.Policy
	if err := scanner.Scan(&p.PolicyID, &p.PolicyVersion, &p.PersonaID, &p.Status, &p.CreatedAt); err != nil {
		return domain.Policy{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// SetPolicyStatus mirrors CreatePolicy's transactional deprecate-then-set
// shape when promoting a policy to ACTIVE.
func (s *Store) SetPolicyStatus(ctx context.Context, policyID string, status domain.PolicyStatus) (domain.Policy, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Policy{}, fmt.Errorf("begin set policy status: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT policy_id, policy_version, persona_id, status, created_at
		FROM persona_policies WHERE policy_id = $1
	`, policyID)
	existing, err := scanPolicy(row)
	if err != nil {
		return domain.Policy{}, err
	}

	if status == domain.PolicyActive {
		if _, err := tx.ExecContext(ctx, `
			UPDATE persona_policies SET status = 'DEPRECATED'
			WHERE persona_id = $1 AND status = 'ACTIVE' AND policy_id != $2
		`, existing.PersonaID, policyID); err != nil {
			return domain.Policy{}, fmt.Errorf("deprecate existing active policy: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE persona_policies SET status = $2 WHERE policy_id = $1
	`, policyID, status); err != nil {
		return domain.Policy{}, fmt.Errorf("update policy status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Policy{}, fmt.Errorf("commit set policy status: %w", err)
	}

	existing.Status = status
	return existing, nil
}

func (s *Store) CreateTerritory(ctx context.Context, t domain.Territory) (domain.Territory, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO territories (territory_id, slug, name, level, region_code, country_code, coverage_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.TerritoryID, t.Slug, t.Name, t.Level, t.RegionCode, t.CountryCode, t.CoverageType, t.Status, t.CreatedAt)
	if err != nil {
		return domain.Territory{}, fmt.Errorf("insert territory: %w", err)
	}
	return t, nil
}

func (s *Store) GetTerritory(ctx context.Context, territoryID string) (domain.Territory, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT territory_id, slug, name, level, region_code, country_code, coverage_type, status, created_at
		FROM territories WHERE territory_id = $1
	`, territoryID)
	return scanTerritory(row)
}

func scanTerritory(scanner rowScanner) (domain.Territory, error) {
	var t domain.Territory
	if err := scanner.Scan(&t.TerritoryID, &t.Slug, &t.Name, &t.Level, &t.RegionCode, &t.CountryCode, &t.CoverageType, &t.Status, &t.CreatedAt); err != nil {
		return domain.Territory{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

// territoryTieBreakOrder is the SQL mirror of storage/memory's
// pickTerritoryTieBreak: order by level specificity descending (district
// > state > country > region > global), then by created_at ascending.
const territoryTieBreakOrder = `
	ORDER BY
		CASE level
			WHEN 'district' THEN 5
			WHEN 'state' THEN 4
			WHEN 'country' THEN 3
			WHEN 'region' THEN 2
			ELSE 1
		END DESC,
		created_at ASC
	LIMIT 1
`

func (s *Store) findTerritory(ctx context.Context, whereClause string, args ...interface{}) (domain.Territory, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT territory_id, slug, name, level, region_code, country_code, coverage_type, status, created_at
		FROM territories WHERE status = 'ACTIVE' AND `+whereClause+territoryTieBreakOrder, args...)
	t, err := scanTerritory(row)
	if err == sql.ErrNoRows {
		return domain.Territory{}, kerrors.New(kerrors.CodeTerritoryNotConfigured, "no matching territory")
	}
	return t, err
}

func (s *Store) FindTerritoryByRegionCode(ctx context.Context, regionCode string) (domain.Territory, error) {
	return s.findTerritory(ctx, "lower(region_code) = lower($1)", regionCode)
}

func (s *Store) FindTerritoryByCountryCode(ctx context.Context, countryCode string) (domain.Territory, error) {
	return s.findTerritory(ctx, "level = 'country' AND lower(country_code) = lower($1)", countryCode)
}

func (s *Store) FindTerritoryBySlug(ctx context.Context, slug string) (domain.Territory, error) {
	return s.findTerritory(ctx, "lower(slug) = lower($1)", slug)
}

func (s *Store) FindTerritoryByName(ctx context.Context, name string) (domain.Territory, error) {
	return s.findTerritory(ctx, "lower(name) = lower($1)", name)
}

func (s *Store) FindGlobalTerritory(ctx context.Context) (domain.Territory, error) {
	return s.findTerritory(ctx, "level = 'global'")
}

func (s *Store) BindTerritorySubVertical(ctx context.Context, territoryID, subVerticalID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO territory_sub_verticals (territory_id, sub_vertical_id)
		VALUES ($1, $2)
		ON CONFLICT (territory_id, sub_vertical_id) DO NOTHING
	`, territoryID, subVerticalID)
	if err != nil {
		return fmt.Errorf("bind territory sub-vertical: %w", err)
	}
	return nil
}

func (s *Store) HasTerritorySubVerticalBinding(ctx context.Context, territoryID, subVerticalID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM territory_sub_verticals WHERE territory_id = $1 AND sub_vertical_id = $2)
	`, territoryID, subVerticalID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check territory sub-vertical binding: %w", err)
	}
	return exists, nil
}

func (s *Store) AppendBusinessEvent(ctx context.Context, e domain.BusinessEvent) (domain.BusinessEvent, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return domain.BusinessEvent{}, fmt.Errorf("marshal business event payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO business_events (event_id, enterprise_id, event_type, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.EventID, e.EnterpriseID, e.EventType, payload, e.OccurredAt)
	if err != nil {
		return domain.BusinessEvent{}, fmt.Errorf("insert business event: %w", err)
	}
	return e, nil
}

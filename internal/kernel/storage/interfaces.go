// Package storage defines the store contracts every Authority Kernel
// service depends on. Concrete implementations live in storage/memory
// (tests, local dev) and storage/postgres (production); services never
// import either implementation package directly.
package storage

import (
	"context"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
)

// AuthorityStore guards enterprises, workspaces, execution identities,
// personas, policies, territories, and their invariants (I2-I6). It
// enforces invariants at the boundary: even a buggy caller cannot violate
// them through this interface.
type AuthorityStore interface {
	CreateEnterprise(ctx context.Context, e domain.Enterprise) (domain.Enterprise, error)
	GetEnterprise(ctx context.Context, enterpriseID string) (domain.Enterprise, error)

	CreateWorkspace(ctx context.Context, w domain.Workspace) (domain.Workspace, error)
	GetWorkspace(ctx context.Context, workspaceID string) (domain.Workspace, error)
	// UpdateWorkspace rejects any attempt to change EnterpriseID.
	UpdateWorkspace(ctx context.Context, w domain.Workspace) (domain.Workspace, error)
	SoftDeleteWorkspace(ctx context.Context, workspaceID, deletedBy string) error

	CreateExecutionIdentity(ctx context.Context, u domain.ExecutionIdentity) (domain.ExecutionIdentity, error)
	GetExecutionIdentity(ctx context.Context, userID string) (domain.ExecutionIdentity, error)
	// UpdateExecutionIdentity rejects EnterpriseID/WorkspaceID changes and
	// direct USER/ENTERPRISE_ADMIN -> SUPER_ADMIN role escalation.
	UpdateExecutionIdentity(ctx context.Context, u domain.ExecutionIdentity) (domain.ExecutionIdentity, error)

	CreatePersona(ctx context.Context, p domain.Persona) (domain.Persona, error)
	GetPersona(ctx context.Context, personaID string) (domain.Persona, error)
	ListActivePersonasBySubVertical(ctx context.Context, subVerticalID string) ([]domain.Persona, error)

	// CreatePolicy enforces the partial-unique-on-ACTIVE invariant (I2):
	// activating a policy implicitly deactivates any prior ACTIVE policy
	// for the same persona in the same transaction.
	CreatePolicy(ctx context.Context, p domain.Policy) (domain.Policy, error)
	GetActivePolicy(ctx context.Context, personaID string) (domain.Policy, error)
	SetPolicyStatus(ctx context.Context, policyID string, status domain.PolicyStatus) (domain.Policy, error)

	CreateTerritory(ctx context.Context, t domain.Territory) (domain.Territory, error)
	GetTerritory(ctx context.Context, territoryID string) (domain.Territory, error)
	FindTerritoryByRegionCode(ctx context.Context, regionCode string) (domain.Territory, error)
	FindTerritoryByCountryCode(ctx context.Context, countryCode string) (domain.Territory, error)
	FindTerritoryBySlug(ctx context.Context, slug string) (domain.Territory, error)
	FindTerritoryByName(ctx context.Context, name string) (domain.Territory, error)
	FindGlobalTerritory(ctx context.Context) (domain.Territory, error)
	BindTerritorySubVertical(ctx context.Context, territoryID, subVerticalID string) error
	HasTerritorySubVerticalBinding(ctx context.Context, territoryID, subVerticalID string) (bool, error)

	AppendBusinessEvent(ctx context.Context, e domain.BusinessEvent) (domain.BusinessEvent, error)
}

// EnvelopeStore is the content-addressed registry of sealed envelopes.
type EnvelopeStore interface {
	// Seal is idempotent on SHA256Hash: a duplicate seal returns the
	// existing row with IsNew=false and does not mutate it.
	Seal(ctx context.Context, e domain.Envelope) (env domain.Envelope, isNew bool, err error)
	GetByID(ctx context.Context, envelopeID string) (domain.Envelope, error)
	GetByHash(ctx context.Context, sha256Hash string) (domain.Envelope, error)
	Revoke(ctx context.Context, envelopeID, by string) (domain.Envelope, error)
	// ExpireDue transitions every SEALED envelope with ExpiresAt before
	// now to EXPIRED and returns the transitioned ids.
	ExpireDue(ctx context.Context, now time.Time) ([]string, error)
}

// GateStore persists RuntimeGateViolation rows.
type GateStore interface {
	RecordViolation(ctx context.Context, v domain.RuntimeGateViolation) (domain.RuntimeGateViolation, error)
	ListViolations(ctx context.Context, limit int) ([]domain.RuntimeGateViolation, error)
}

// ReplayStore persists ReplayAttempt rows.
type ReplayStore interface {
	Initiate(ctx context.Context, r domain.ReplayAttempt) (domain.ReplayAttempt, error)
	// Complete uses a row-level compare-and-set keyed by ReplayID so a
	// replay can only be completed once.
	Complete(ctx context.Context, replayID string, status domain.ReplayStatus, drift *domain.DriftDetails) (domain.ReplayAttempt, error)
	Get(ctx context.Context, replayID string) (domain.ReplayAttempt, error)
	History(ctx context.Context, envelopeID string, limit int) ([]domain.ReplayAttempt, error)
	// FailStalePending marks PENDING attempts older than the cutoff as
	// FAILED, returning the affected replay ids.
	FailStalePending(ctx context.Context, cutoff time.Time) ([]string, error)
}

// TraceStore persists Interaction rows. Append-only: no update or delete
// method exists on this interface by design.
type TraceStore interface {
	Record(ctx context.Context, i domain.Interaction) (domain.Interaction, error)
	Get(ctx context.Context, interactionID string) (domain.Interaction, error)
	ListByEnvelope(ctx context.Context, envelopeSHA256 string, limit int) ([]domain.Interaction, error)
}

// AuditStore persists AuditEntry rows. Read access only beyond Append.
type AuditStore interface {
	Append(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error)
	ListByActor(ctx context.Context, actorID string, limit int) ([]domain.AuditEntry, error)
	ListByTarget(ctx context.Context, targetType, targetID string, limit int) ([]domain.AuditEntry, error)
	ListByEnterprise(ctx context.Context, enterpriseID string, limit int) ([]domain.AuditEntry, error)
}

// SuiteStore persists suites, scenarios, runs, run results, human
// sessions, evaluator invites, and human scores.
type SuiteStore interface {
	CreateSuite(ctx context.Context, s domain.Suite) (domain.Suite, error)
	GetSuite(ctx context.Context, suiteID string) (domain.Suite, error)
	GetSuiteByKeyVersion(ctx context.Context, suiteKey string, version int) (domain.Suite, error)
	ListSuiteVersions(ctx context.Context, baseSuiteKey string) ([]domain.Suite, error)
	ListAllSuites(ctx context.Context) ([]domain.Suite, error)
	UpdateSuiteStatus(ctx context.Context, suiteID string, status domain.SuiteStatus) (domain.Suite, error)
	FreezeSuite(ctx context.Context, suiteID, manifestHash string, scenarioCount int, frozenAt time.Time) (domain.Suite, error)
	DeprecateSuite(ctx context.Context, suiteID string, reason domain.DeprecationReason) (domain.Suite, error)

	AddScenario(ctx context.Context, sc domain.Scenario) (domain.Scenario, error)
	ListScenarios(ctx context.Context, suiteID string) ([]domain.Scenario, error)
	ScenarioExists(ctx context.Context, suiteID string, sequenceOrder int) (bool, error)

	// NextRunNumber returns the strictly increasing per-suite run number
	// (I5), starting at 1.
	NextRunNumber(ctx context.Context, suiteID string) (int, error)
	CreateRun(ctx context.Context, r domain.Run) (domain.Run, error)
	GetRun(ctx context.Context, runID string) (domain.Run, error)
	CompleteRun(ctx context.Context, runID string, status domain.RunStatus, goldenPassRate, killContainmentRate, cohensD float64, endedAt time.Time) (domain.Run, error)
	// AppendRunResults commits per-scenario result rows; callers pass
	// results pre-sorted by SequenceOrder to preserve the ordering
	// guarantee.
	AppendRunResults(ctx context.Context, results []domain.RunResult) error
	ListRunResults(ctx context.Context, runID string) ([]domain.RunResult, error)
	// FailStaleRunning marks RUNNING runs older than the cutoff as FAILED.
	FailStaleRunning(ctx context.Context, cutoff time.Time) ([]string, error)

	CreateHumanSession(ctx context.Context, s domain.HumanSession) (domain.HumanSession, error)
	GetHumanSession(ctx context.Context, sessionID string) (domain.HumanSession, error)
	CompleteHumanSession(ctx context.Context, sessionID string, rho, icc float64, completedAt time.Time) (domain.HumanSession, error)

	CreateInvite(ctx context.Context, inv domain.EvaluatorInvite) (domain.EvaluatorInvite, error)
	GetInviteByToken(ctx context.Context, token string) (domain.EvaluatorInvite, error)
	ListInvitesBySession(ctx context.Context, sessionID string) ([]domain.EvaluatorInvite, error)
	RecordInviteFirstAccess(ctx context.Context, inviteID, userAgent, ip string, at time.Time) error
	CompleteInvite(ctx context.Context, inviteID string, at time.Time) (domain.EvaluatorInvite, error)

	RecordHumanScore(ctx context.Context, sc domain.HumanScore) (domain.HumanScore, error)
	ListHumanScoresByInvite(ctx context.Context, inviteID string) ([]domain.HumanScore, error)
	ListHumanScoresBySession(ctx context.Context, sessionID string) ([]domain.HumanScore, error)
}

// ConfigStore persists namespaced config entries with version history.
type ConfigStore interface {
	Get(ctx context.Context, namespace, key string) (domain.ConfigEntry, error)
	GetNamespace(ctx context.Context, namespace string) ([]domain.ConfigEntry, error)
	GetMany(ctx context.Context, pairs [][2]string) ([]domain.ConfigEntry, error)
	// Set bumps Version and records history; the previous version remains
	// retrievable via History.
	Set(ctx context.Context, e domain.ConfigEntry) (domain.ConfigEntry, error)
	Delete(ctx context.Context, namespace, key, updatedBy string) error
	History(ctx context.Context, namespace, key string) ([]domain.ConfigEntry, error)
	Rollback(ctx context.Context, namespace, key string, version int, updatedBy string) (domain.ConfigEntry, error)
}

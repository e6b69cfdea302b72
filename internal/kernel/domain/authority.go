// Package domain holds the Authority Kernel's pure data types. Nothing in
// this package performs I/O; it is the vocabulary every service and store
// shares.
package domain

import "time"

// EnterpriseType distinguishes a real tenant from a sales demo tenant.
type EnterpriseType string

const (
	EnterpriseReal EnterpriseType = "REAL"
	EnterpriseDemo EnterpriseType = "DEMO"
)

// EnterpriseStatus tracks lifecycle state; enterprises are never hard
// deleted, only suspended or marked deleted.
type EnterpriseStatus string

const (
	EnterpriseActive    EnterpriseStatus = "ACTIVE"
	EnterpriseSuspended EnterpriseStatus = "SUSPENDED"
	EnterpriseDeleted   EnterpriseStatus = "DELETED"
)

// Enterprise is the top-level tenant. Its identity is immutable: nothing in
// the kernel ever reassigns a workspace or execution identity to a
// different enterprise.
type Enterprise struct {
	EnterpriseID string
	Name         string
	Type         EnterpriseType
	Region       string
	Status       EnterpriseStatus
	CreatedAt    time.Time
	DeletedAt    *time.Time
}

// WorkspaceStatus mirrors EnterpriseStatus but is kept distinct since the
// two lifecycles are independently driven.
type WorkspaceStatus string

const (
	WorkspaceActive   WorkspaceStatus = "ACTIVE"
	WorkspaceArchived WorkspaceStatus = "ARCHIVED"
)

// Workspace is pinned to exactly one enterprise for its entire lifetime
// (invariant I4). Deletion is soft only.
type Workspace struct {
	WorkspaceID   string
	EnterpriseID  string
	SubVerticalID string
	Name          string
	Status        WorkspaceStatus
	CreatedAt     time.Time
	DeletedAt     *time.Time
	DeletedBy     string
}

// Role is the privilege level of an execution identity. Escalation from
// USER or ENTERPRISE_ADMIN directly to SUPER_ADMIN is forbidden; reaching
// SUPER_ADMIN requires two separate mutations through ENTERPRISE_ADMIN.
type Role string

const (
	RoleSuperAdmin      Role = "SUPER_ADMIN"
	RoleEnterpriseAdmin Role = "ENTERPRISE_ADMIN"
	RoleUser            Role = "USER"
)

// IdentityMode marks whether the identity operates against real or demo
// data, independent of the role.
type IdentityMode string

const (
	ModeReal IdentityMode = "REAL"
	ModeDemo IdentityMode = "DEMO"
)

type IdentityStatus string

const (
	IdentityActive    IdentityStatus = "ACTIVE"
	IdentitySuspended IdentityStatus = "SUSPENDED"
)

// ExecutionIdentity pins a request to exactly one enterprise and workspace
// for its entire life (invariant I3). It is not a general identity/auth
// service — it exists only to bind authority, never to authenticate.
type ExecutionIdentity struct {
	UserID        string
	EnterpriseID  string
	WorkspaceID   string
	SubVerticalID string
	Role          Role
	Mode          IdentityMode
	Status        IdentityStatus
	CreatedAt     time.Time
}

// PersonaScope orders inheritance: LOCAL beats REGIONAL beats GLOBAL.
type PersonaScope string

const (
	ScopeGlobal   PersonaScope = "GLOBAL"
	ScopeRegional PersonaScope = "REGIONAL"
	ScopeLocal    PersonaScope = "LOCAL"
)

// Persona is an addressable reasoning configuration. A persona may have
// many policy versions; exactly one carries status ACTIVE (invariant I2).
type Persona struct {
	PersonaID     string
	Scope         PersonaScope
	SubVerticalID string
	RegionCode    string // empty for GLOBAL/REGIONAL-without-region
	IsActive      bool
	CreatedAt     time.Time
}

// PolicyStatus is the lifecycle of one persona policy version.
type PolicyStatus string

const (
	PolicyDraft      PolicyStatus = "DRAFT"
	PolicyStaged     PolicyStatus = "STAGED"
	PolicyActive     PolicyStatus = "ACTIVE"
	PolicyDeprecated PolicyStatus = "DEPRECATED"
)

// Policy is a versioned behavioral spec owned by a persona. The store
// enforces the partial-unique constraint on (persona_id) where
// status = ACTIVE; this struct carries no such guarantee by itself.
type Policy struct {
	PolicyID      string
	PolicyVersion int
	PersonaID     string
	Status        PolicyStatus
	CreatedAt     time.Time
}

// TerritoryLevel determines a territory's default coverage type:
// global -> GLOBAL, region/country -> MULTI, state/district -> SINGLE.
type TerritoryLevel string

const (
	LevelGlobal   TerritoryLevel = "global"
	LevelRegion   TerritoryLevel = "region"
	LevelCountry  TerritoryLevel = "country"
	LevelState    TerritoryLevel = "state"
	LevelDistrict TerritoryLevel = "district"
)

// CoverageType controls whether a territory needs an explicit
// territory_sub_vertical binding to be usable for a given sub-vertical.
type CoverageType string

const (
	CoverageSingle CoverageType = "SINGLE"
	CoverageMulti  CoverageType = "MULTI"
	CoverageGlobal CoverageType = "GLOBAL"
)

type TerritoryStatus string

const (
	TerritoryActive   TerritoryStatus = "ACTIVE"
	TerritoryInactive TerritoryStatus = "INACTIVE"
)

// DefaultCoverage returns the coverage type implied by a territory level,
// used when a territory is created without an explicit override.
func DefaultCoverage(level TerritoryLevel) CoverageType {
	switch level {
	case LevelGlobal:
		return CoverageGlobal
	case LevelRegion, LevelCountry:
		return CoverageMulti
	default:
		return CoverageSingle
	}
}

// Territory is a hierarchical geographic/organizational scope.
type Territory struct {
	TerritoryID  string
	Slug         string
	Name         string
	Level        TerritoryLevel
	RegionCode   string
	CountryCode  string
	CoverageType CoverageType
	Status       TerritoryStatus
	CreatedAt    time.Time
}

// TerritorySubVertical is an explicit binding that satisfies the coverage
// gate for SINGLE-coverage territories.
type TerritorySubVertical struct {
	TerritoryID   string
	SubVerticalID string
}

// BusinessEvent is the immutable event log referenced by governance
// (invariant I6): never updated or deleted once written.
type BusinessEvent struct {
	EventID    string
	EnterpriseID string
	EventType  string
	Payload    map[string]interface{}
	OccurredAt time.Time
}

package domain

import "time"

// ActorRole is the role recorded on an audit entry; SYSTEM covers
// sweepers and other non-human-triggered mutations.
type ActorRole string

const (
	ActorSuperAdmin      ActorRole = "SUPER_ADMIN"
	ActorEnterpriseAdmin ActorRole = "ENTERPRISE_ADMIN"
	ActorUser            ActorRole = "USER"
	ActorSystem          ActorRole = "SYSTEM"
	// ActorCalibrationAdmin is the only role permitted to run the
	// approve-for-ga governance command.
	ActorCalibrationAdmin ActorRole = "CALIBRATION_ADMIN"
)

// AuditEntry is one append-only audit log row. The authoritystore service
// appends one after each authority mutation it performs, as a separate
// write: the mutation and its audit row are not committed in one
// transaction.
type AuditEntry struct {
	ID           string
	ActorID      string
	ActorRole    ActorRole
	EnterpriseID string
	Action       string
	TargetType   string
	TargetID     string
	Success      bool
	Reason       string
	Metadata     map[string]interface{}
	OccurredAt   time.Time
}

// ConfigValueType tags the stored representation of a config value so
// callers can decode it without guessing.
type ConfigValueType string

const (
	ConfigTypeString ConfigValueType = "STRING"
	ConfigTypeInt    ConfigValueType = "INT"
	ConfigTypeFloat  ConfigValueType = "FLOAT"
	ConfigTypeBool   ConfigValueType = "BOOL"
	ConfigTypeJSON   ConfigValueType = "JSON"
)

// ConfigEntry is one namespaced key/value pair with version history.
type ConfigEntry struct {
	Namespace   string
	Key         string
	Value       string // raw encoded value; decode per ValueType
	ValueType   ConfigValueType
	Version     int
	IsActive    bool
	UpdatedBy   string
	UpdatedAt   time.Time
}

// ConfigSnapshot is a deterministic, namespace-then-key ordered view used
// by validate_snapshot to diff against a previously captured state.
type ConfigSnapshot struct {
	Namespaces []string
	Entries    map[string]ConfigEntry // keyed by "namespace/key"
	TakenAt    time.Time
}

// SnapshotDiff is the result of validate_snapshot: which keys were added,
// removed, or changed between two snapshots.
type SnapshotDiff struct {
	Added   []string
	Removed []string
	Changed []string
}

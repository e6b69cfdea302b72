package domain

import "time"

// EnvelopeStatus is strictly monotonic: SEALED is the only non-terminal
// state; EXPIRED and REVOKED are terminal.
type EnvelopeStatus string

const (
	EnvelopeSealed  EnvelopeStatus = "SEALED"
	EnvelopeExpired EnvelopeStatus = "EXPIRED"
	EnvelopeRevoked EnvelopeStatus = "REVOKED"
)

// EnvelopeContentV1 is the versioned, fixed-shape payload a sealed
// envelope quotes. Field order here is the canonical order used by the
// hasher in internal/kernel/canon — it is a property of the code, not of
// encoding/json's map key sort.
type EnvelopeContentV1 struct {
	EnvelopeVersion          string                 `json:"envelope_version"`
	TenantID                 string                 `json:"tenant_id"`
	WorkspaceID              string                 `json:"workspace_id"`
	UserID                   string                 `json:"user_id,omitempty"`
	PersonaID                string                 `json:"persona_id"`
	PolicyID                 string                 `json:"policy_id"`
	PolicyVersion            int                    `json:"policy_version"`
	TerritoryID              string                 `json:"territory_id,omitempty"`
	PersonaResolutionPath    string                 `json:"persona_resolution_path"`
	PersonaResolutionScope   PersonaScope           `json:"persona_resolution_scope"`
	TerritoryResolutionPath  string                 `json:"territory_resolution_path"`
	Content                  map[string]interface{} `json:"content"`
	SealedAt                 time.Time              `json:"sealed_at"`
	SealedBy                 string                 `json:"sealed_by"`
	ExpiresAt                *time.Time             `json:"expires_at,omitempty"`
}

// Envelope is the stored, content-addressed record for a sealed
// EnvelopeContentV1. SHA256Hash is unique and immutable once set.
type Envelope struct {
	EnvelopeID    string
	SHA256Hash    string
	Content       EnvelopeContentV1
	Status        EnvelopeStatus
	SealedAt      time.Time
	ExpiresAt     *time.Time
	RevokedAt     *time.Time
	RevokedBy     string
}

// ViolationCode enumerates the ways a reasoning call can fail the runtime
// gate.
type ViolationCode string

const (
	ViolationNoEnvelope      ViolationCode = "NO_ENVELOPE"
	ViolationInvalidEnvelope ViolationCode = "INVALID_ENVELOPE"
	ViolationExpiredEnvelope ViolationCode = "EXPIRED_ENVELOPE"
	ViolationRevokedEnvelope ViolationCode = "REVOKED_ENVELOPE"
)

// RuntimeGateViolation is an append-only record of a blocked reasoning
// call. Resolution is human-driven and metadata-only: the kernel never
// auto-resolves a violation.
type RuntimeGateViolation struct {
	ID                string
	ViolationCode     ViolationCode
	Source            string // sales-bench | api | internal
	Endpoint          string
	Method            string
	TenantID          string
	WorkspaceID       string
	UserID            string
	ClaimedEnvelopeID string
	ClaimedSHA256     string
	RequestContext    map[string]interface{}
	ResolutionStatus  string
	ResolutionNote    string
	OccurredAt        time.Time
}

// ReplayStatus tracks a replay attempt from PENDING to a terminal state.
type ReplayStatus string

const (
	ReplayPending           ReplayStatus = "PENDING"
	ReplaySuccess            ReplayStatus = "SUCCESS"
	ReplayDriftDetected      ReplayStatus = "DRIFT_DETECTED"
	ReplayEnvelopeNotFound   ReplayStatus = "ENVELOPE_NOT_FOUND"
	ReplayFailed             ReplayStatus = "FAILED"
)

// DriftDetails explains a DRIFT_DETECTED outcome.
type DriftDetails struct {
	OriginalHash string `json:"original_hash"`
	ReplayHash   string `json:"replay_hash"`
	DriftType    string `json:"drift_type"`
}

// ReplayAttempt records one re-execution of a reasoning call against a
// sealed envelope.
type ReplayAttempt struct {
	ReplayID     string
	EnvelopeID   string
	EnvelopeHash string
	RequestedBy  string
	Source       string
	Status       ReplayStatus
	DriftDetails *DriftDetails
	InitiatedAt  time.Time
	CompletedAt  *time.Time
}

// PolicyGateHit records one policy gate's evaluation during an
// interaction.
type PolicyGateHit struct {
	Gate      string `json:"gate"`
	Triggered bool   `json:"triggered"`
	Reason    string `json:"reason"`
	Action    string `json:"action"` // PASS | BLOCK
}

// EvidenceUsed records one piece of evidence consulted by the reasoner.
type EvidenceUsed struct {
	Source     string     `json:"source"`
	ContentHash string    `json:"content_hash"`
	TTLSeconds  *int       `json:"ttl_seconds,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Interaction is the append-only, signed record of one reasoning call.
// It is never updated or deleted; it is the ground truth a replay diffs
// against.
type Interaction struct {
	InteractionID    string
	EnvelopeSHA256   string
	EnvelopeVersion  string
	PersonaID        string
	PersonaVersion   int
	PolicyVersion    int
	ModelSlug        string
	RoutingDecision  map[string]interface{}
	ToolsAllowed     []string
	ToolsUsed        []string
	PolicyGatesHit   []PolicyGateHit
	EvidenceUsed     []EvidenceUsed
	TokensIn         int
	TokensOut        int
	CostEstimate     float64
	CacheHit         bool
	RiskScore        float64
	EscalationTriggered bool
	Outcome          string
	Signature        string
	RecordedAt       time.Time
}

package domain

import "time"

// SuiteStatus is the governance state machine's vertices.
type SuiteStatus string

const (
	SuiteDraft            SuiteStatus = "DRAFT"
	SuiteSystemValidated  SuiteStatus = "SYSTEM_VALIDATED"
	SuiteHumanValidated   SuiteStatus = "HUMAN_VALIDATED"
	SuiteGAApproved       SuiteStatus = "GA_APPROVED"
	SuiteDeprecated       SuiteStatus = "DEPRECATED"
)

// ScenarioKind distinguishes golden (expected-pass) from kill
// (expected-block) scenarios for aggregate rate computation.
type ScenarioKind string

const (
	ScenarioGolden ScenarioKind = "GOLDEN"
	ScenarioKill   ScenarioKind = "KILL"
)

// Scenario is one benchmark case belonging to a suite.
type Scenario struct {
	ScenarioID     string
	SuiteID        string
	SequenceOrder  int
	Kind           ScenarioKind
	PersonaID      string
	Input          map[string]interface{}
	ScenarioHash   string
	CreatedAt      time.Time
}

// Suite is a versioned, eventually-frozen set of scenarios gating
// production promotion of a reasoning configuration.
type Suite struct {
	SuiteID              string
	SuiteKey             string
	Version              int
	BaseSuiteKey         string
	IsFrozen             bool
	ScenarioManifestHash string
	ScenarioCount        int
	Status               SuiteStatus
	CreatedAt            time.Time
	FrozenAt             *time.Time
	DeprecatedReason      DeprecationReason
}

// DeprecationReason is a closed enum rather than a free string, matching
// the fully-typed shape of the rest of the governance command surface.
type DeprecationReason string

const (
	DeprecationStaleManifest DeprecationReason = "STALE_MANIFEST"
	DeprecationSuperseded    DeprecationReason = "SUPERSEDED"
	DeprecationPolicyChange  DeprecationReason = "POLICY_CHANGE"
	DeprecationManual        DeprecationReason = "MANUAL"
)

// RunStatus tracks a system-validation run.
type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// Run is one ordered scoring pass of a frozen suite.
type Run struct {
	RunID                string
	SuiteID              string
	RunNumber            int // strictly increasing per suite, starting at 1 (I5)
	ScenarioManifestHash string
	SIVAVersion          string
	CodeCommitSHA        string
	Environment          string
	Status               RunStatus
	GoldenPassRate       float64
	KillContainmentRate  float64
	CohensD              float64
	StartedAt            time.Time
	EndedAt              *time.Time
}

// ScenarioOutcome is PASS for a golden scenario scored acceptably, or
// BLOCK for a kill scenario correctly rejected, etc. Kept as a string so
// the scoring function's vocabulary can evolve independently.
type RunResult struct {
	RunID          string
	ScenarioID     string
	SequenceOrder  int
	Outcome        string
	DimensionScores map[string]float64
	CRSWeighted    float64
	LatencyMS      int64
	RecordedAt     time.Time
}

// HumanSessionStatus tracks calibration progress.
type HumanSessionStatus string

const (
	SessionInProgress HumanSessionStatus = "IN_PROGRESS"
	SessionCompleted  HumanSessionStatus = "COMPLETED"
)

// HumanSession is one human-calibration round tied to a specific run.
type HumanSession struct {
	SessionID     string
	SuiteID       string
	RunID         string
	DeadlineAt    time.Time
	Status        HumanSessionStatus
	SpearmanRho   *float64
	ICC           *float64
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

type InviteStatus string

const (
	InvitePending   InviteStatus = "PENDING"
	InviteCompleted InviteStatus = "COMPLETED"
	InviteExpired   InviteStatus = "EXPIRED"
)

// EvaluatorInvite pins one evaluator to a deterministically shuffled
// scenario queue. Tokens are single-holder only in the sense that the
// first GET records first_accessed_at; later accesses just resume.
type EvaluatorInvite struct {
	InviteID        string
	SessionID       string
	EvaluatorIndex  int
	EvaluatorEmail  string
	Token           string // 48 random bytes, URL-safe
	ScenarioQueue   []string // shuffled scenario IDs
	Status          InviteStatus
	ExpiresAt       time.Time
	FirstAccessedAt *time.Time
	AccessUserAgent string
	AccessIP        string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// HumanScoreDimensions are the eight fixed dimensions an evaluator rates,
// each in [1,5].
type HumanScoreDimensions struct {
	Qualification        int `json:"qualification"`
	NeedsDiscovery        int `json:"needs_discovery"`
	ValueArticulation     int `json:"value_articulation"`
	ObjectionHandling     int `json:"objection_handling"`
	ProcessAdherence      int `json:"process_adherence"`
	Compliance            int `json:"compliance"`
	RelationshipBuilding  int `json:"relationship_building"`
	NextStepSecured       int `json:"next_step_secured"`
}

// WouldPursue is the evaluator's overall call on a scenario.
type WouldPursue string

const (
	PursueYes   WouldPursue = "YES"
	PursueNo    WouldPursue = "NO"
	PursueMaybe WouldPursue = "MAYBE"
)

// HumanScore is one evaluator's submission for one scenario.
type HumanScore struct {
	InviteID     string
	ScenarioID   string
	Dimensions   HumanScoreDimensions
	WouldPursue  WouldPursue
	Confidence   int // [1,5]
	WeightedCRS  float64
	SubmittedAt  time.Time
}

// DimensionWeights are fixed weights summing to 1.0, applied to the eight
// human score dimensions (and analogously to machine dimension scores) to
// produce a single weighted CRS.
var DimensionWeights = map[string]float64{
	"qualification":         0.15,
	"needs_discovery":       0.15,
	"value_articulation":    0.15,
	"objection_handling":    0.15,
	"process_adherence":     0.10,
	"compliance":            0.15,
	"relationship_building": 0.075,
	"next_step_secured":     0.075,
}

// WeightedCRS computes Σ (score_d / 5) · w_d over the fixed dimension set.
func (d HumanScoreDimensions) WeightedCRS() float64 {
	scores := map[string]int{
		"qualification":         d.Qualification,
		"needs_discovery":       d.NeedsDiscovery,
		"value_articulation":    d.ValueArticulation,
		"objection_handling":    d.ObjectionHandling,
		"process_adherence":     d.ProcessAdherence,
		"compliance":            d.Compliance,
		"relationship_building": d.RelationshipBuilding,
		"next_step_secured":     d.NextStepSecured,
	}
	var total float64
	for dim, weight := range DimensionWeights {
		total += (float64(scores[dim]) / 5.0) * weight
	}
	return total
}

// Package memory is an in-memory implementation of every storage
// interface, used by tests and local development. It follows the
// teacher's sync.Mutex-guarded-map pattern rather than adding a
// dependency for what is fundamentally a test double.
package memory

import (
	"fmt"
	"sync"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
)

// Store implements storage.AuthorityStore, storage.EnvelopeStore,
// storage.GateStore, storage.ReplayStore, storage.TraceStore,
// storage.AuditStore, storage.SuiteStore, and storage.ConfigStore in one
// process-local struct, mirroring the teacher's single InMemoryStore
// satisfying many domain interfaces at once.
type Store struct {
	mu sync.Mutex

	enterprises map[string]domain.Enterprise
	workspaces  map[string]domain.Workspace
	identities  map[string]domain.ExecutionIdentity
	personas    map[string]domain.Persona
	policies    map[string]domain.Policy
	territories map[string]domain.Territory
	territorySV map[string]bool // "territoryID/subVerticalID"
	businessEvents []domain.BusinessEvent

	envelopesByID   map[string]domain.Envelope
	envelopesByHash map[string]string // hash -> id

	violations []domain.RuntimeGateViolation

	replays map[string]domain.ReplayAttempt

	interactions []domain.Interaction

	auditLog []domain.AuditEntry

	suites         map[string]domain.Suite
	suiteRunSeq    map[string]int
	scenarios      map[string][]domain.Scenario
	runs           map[string]domain.Run
	runResults     map[string][]domain.RunResult
	humanSessions  map[string]domain.HumanSession
	invitesByID    map[string]domain.EvaluatorInvite
	invitesByToken map[string]string
	humanScores    map[string][]domain.HumanScore // keyed by inviteID

	configEntries map[string]domain.ConfigEntry   // "namespace/key" -> current
	configHistory map[string][]domain.ConfigEntry // "namespace/key" -> versions
}

// New returns an empty Store with every map initialized.
func New() *Store {
	return &Store{
		enterprises:     make(map[string]domain.Enterprise),
		workspaces:      make(map[string]domain.Workspace),
		identities:      make(map[string]domain.ExecutionIdentity),
		personas:        make(map[string]domain.Persona),
		policies:        make(map[string]domain.Policy),
		territories:     make(map[string]domain.Territory),
		territorySV:     make(map[string]bool),
		envelopesByID:   make(map[string]domain.Envelope),
		envelopesByHash: make(map[string]string),
		replays:         make(map[string]domain.ReplayAttempt),
		suites:          make(map[string]domain.Suite),
		suiteRunSeq:     make(map[string]int),
		scenarios:       make(map[string][]domain.Scenario),
		runs:            make(map[string]domain.Run),
		runResults:      make(map[string][]domain.RunResult),
		humanSessions:   make(map[string]domain.HumanSession),
		invitesByID:     make(map[string]domain.EvaluatorInvite),
		invitesByToken:  make(map[string]string),
		humanScores:     make(map[string][]domain.HumanScore),
		configEntries:   make(map[string]domain.ConfigEntry),
		configHistory:   make(map[string][]domain.ConfigEntry),
	}
}

func configKey(namespace, key string) string {
	return namespace + "/" + key
}

func territorySVKey(territoryID, subVerticalID string) string {
	return territoryID + "/" + subVerticalID
}

var errNotFound = func(kind, id string) error {
	return fmt.Errorf("%s %q: not found", kind, id)
}

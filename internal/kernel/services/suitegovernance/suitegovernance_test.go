package suitegovernance

import (
	"context"
	"testing"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage/memory"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type stubScorer struct {
	outcomeByScenario map[string]string
	crsByScenario     map[string]float64
}

func (s stubScorer) Score(_ context.Context, sc domain.Scenario) (string, map[string]float64, float64, int64, error) {
	return s.outcomeByScenario[sc.ScenarioID], nil, s.crsByScenario[sc.ScenarioID], 120, nil
}

func seedSuiteWithScenarios(t *testing.T, store *memory.Store, svc *Service, suiteID string, scenarios []domain.Scenario) domain.Suite {
	t.Helper()
	suite, err := store.CreateSuite(context.Background(), domain.Suite{
		SuiteID:      suiteID,
		SuiteKey:     "discovery-call-v1",
		Version:      1,
		BaseSuiteKey: "discovery-call",
		Status:       domain.SuiteDraft,
	})
	if err != nil {
		t.Fatalf("CreateSuite: %v", err)
	}
	for _, sc := range scenarios {
		if _, err := store.AddScenario(context.Background(), sc); err != nil {
			t.Fatalf("AddScenario: %v", err)
		}
	}
	return suite
}

func TestFreeze_ComputesManifestAndMarksFrozen(t *testing.T) {
	store := memory.New()
	svc := New(store, fixedClock{t: time.Now()}, &idgen.Sequence{})
	seedSuiteWithScenarios(t, store, svc, "SUITE-1", []domain.Scenario{
		{ScenarioID: "SC-1", SuiteID: "SUITE-1", SequenceOrder: 1, Kind: domain.ScenarioGolden, ScenarioHash: "h1"},
		{ScenarioID: "SC-2", SuiteID: "SUITE-1", SequenceOrder: 2, Kind: domain.ScenarioKill, ScenarioHash: "h2"},
	})

	frozen, err := svc.Freeze(context.Background(), "SUITE-1")
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if !frozen.IsFrozen {
		t.Fatal("expected suite to be frozen")
	}
	if frozen.ScenarioManifestHash == "" {
		t.Fatal("expected a non-empty manifest hash")
	}
	if frozen.ScenarioCount != 2 {
		t.Fatalf("ScenarioCount = %d, want 2", frozen.ScenarioCount)
	}
}

func TestFreeze_RejectsNonDraft(t *testing.T) {
	store := memory.New()
	svc := New(store, fixedClock{t: time.Now()}, &idgen.Sequence{})
	store.CreateSuite(context.Background(), domain.Suite{SuiteID: "SUITE-1", Status: domain.SuiteGAApproved})

	_, err := svc.Freeze(context.Background(), "SUITE-1")
	if !kerrors.Is(err, kerrors.CodeInvalidStatus) {
		t.Fatalf("expected CodeInvalidStatus, got %v", err)
	}
}

func TestRunSystemValidation_PromotesOnPassingGates(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()
	svc := New(store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"RUN-1"}})

	scenarios := make([]domain.Scenario, 0, 20)
	outcomes := map[string]string{}
	crsVals := map[string]float64{}
	for i := 0; i < 10; i++ {
		id := "GOLDEN-" + string(rune('A'+i))
		scenarios = append(scenarios, domain.Scenario{ScenarioID: id, SuiteID: "SUITE-1", SequenceOrder: i, Kind: domain.ScenarioGolden, ScenarioHash: "h"})
		outcomes[id] = "PASS"
		crsVals[id] = 0.9
	}
	for i := 0; i < 10; i++ {
		id := "KILL-" + string(rune('A'+i))
		scenarios = append(scenarios, domain.Scenario{ScenarioID: id, SuiteID: "SUITE-1", SequenceOrder: 10 + i, Kind: domain.ScenarioKill, ScenarioHash: "h"})
		outcomes[id] = "BLOCK"
		crsVals[id] = 0.1
	}

	seedSuiteWithScenarios(t, store, svc, "SUITE-1", scenarios)
	if _, err := svc.Freeze(context.Background(), "SUITE-1"); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	run, err := svc.RunSystemValidation(context.Background(), "SUITE-1", "siva-1.0", "abc123", "staging",
		stubScorer{outcomeByScenario: outcomes, crsByScenario: crsVals})
	if err != nil {
		t.Fatalf("RunSystemValidation: %v", err)
	}
	if run.Status != domain.RunCompleted {
		t.Fatalf("run status = %s, want COMPLETED", run.Status)
	}
	if run.GoldenPassRate != 1.0 || run.KillContainmentRate != 1.0 {
		t.Fatalf("rates = %v/%v, want 1.0/1.0", run.GoldenPassRate, run.KillContainmentRate)
	}

	suite, err := store.GetSuite(context.Background(), "SUITE-1")
	if err != nil {
		t.Fatalf("GetSuite: %v", err)
	}
	if suite.Status != domain.SuiteSystemValidated {
		t.Fatalf("suite status = %s, want SYSTEM_VALIDATED", suite.Status)
	}
}

func TestRunSystemValidation_DoesNotPromoteOnFailingGate(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()
	svc := New(store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"RUN-1"}})

	scenarios := []domain.Scenario{
		{ScenarioID: "G-1", SuiteID: "SUITE-1", SequenceOrder: 0, Kind: domain.ScenarioGolden, ScenarioHash: "h"},
		{ScenarioID: "G-2", SuiteID: "SUITE-1", SequenceOrder: 1, Kind: domain.ScenarioGolden, ScenarioHash: "h"},
		{ScenarioID: "K-1", SuiteID: "SUITE-1", SequenceOrder: 2, Kind: domain.ScenarioKill, ScenarioHash: "h"},
	}
	outcomes := map[string]string{"G-1": "PASS", "G-2": "FAIL", "K-1": "BLOCK"}
	crs := map[string]float64{"G-1": 0.9, "G-2": 0.2, "K-1": 0.1}

	seedSuiteWithScenarios(t, store, svc, "SUITE-1", scenarios)
	if _, err := svc.Freeze(context.Background(), "SUITE-1"); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	run, err := svc.RunSystemValidation(context.Background(), "SUITE-1", "siva-1.0", "abc123", "staging",
		stubScorer{outcomeByScenario: outcomes, crsByScenario: crs})
	if err != nil {
		t.Fatalf("RunSystemValidation: %v", err)
	}
	if run.GoldenPassRate >= goldenPassThreshold {
		t.Fatalf("expected golden pass rate below threshold, got %v", run.GoldenPassRate)
	}

	suite, err := store.GetSuite(context.Background(), "SUITE-1")
	if err != nil {
		t.Fatalf("GetSuite: %v", err)
	}
	if suite.Status != domain.SuiteDraft {
		t.Fatalf("suite status = %s, want unchanged DRAFT", suite.Status)
	}
}

func TestRunSystemValidation_RejectsUnfrozenSuite(t *testing.T) {
	store := memory.New()
	svc := New(store, fixedClock{t: time.Now()}, &idgen.Sequence{IDs: []string{"RUN-1"}})
	seedSuiteWithScenarios(t, store, svc, "SUITE-1", nil)

	_, err := svc.RunSystemValidation(context.Background(), "SUITE-1", "siva-1.0", "abc123", "staging", stubScorer{})
	if !kerrors.Is(err, kerrors.CodeSuiteNotFrozen) {
		t.Fatalf("expected CodeSuiteNotFrozen, got %v", err)
	}
}

func TestHumanCalibration_CompletesAndPromotesOnStrongCorrelation(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()
	svc := New(store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"SESSION-1", "INVITE-1", "INVITE-2"}})

	scenarios := []domain.Scenario{
		{ScenarioID: "SC-1", SuiteID: "SUITE-1", SequenceOrder: 0, Kind: domain.ScenarioGolden, ScenarioHash: "h"},
		{ScenarioID: "SC-2", SuiteID: "SUITE-1", SequenceOrder: 1, Kind: domain.ScenarioGolden, ScenarioHash: "h"},
		{ScenarioID: "SC-3", SuiteID: "SUITE-1", SequenceOrder: 2, Kind: domain.ScenarioGolden, ScenarioHash: "h"},
	}
	seedSuiteWithScenarios(t, store, svc, "SUITE-1", scenarios)
	store.UpdateSuiteStatus(context.Background(), "SUITE-1", domain.SuiteSystemValidated)

	session, invites, err := svc.StartHumanCalibration(context.Background(), "SUITE-1", "RUN-1",
		[]string{"evaluator1@example.com", "evaluator2@example.com"}, now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("StartHumanCalibration: %v", err)
	}
	if len(invites) != 2 {
		t.Fatalf("expected 2 invites, got %d", len(invites))
	}
	for _, inv := range invites {
		if len(inv.Token) == 0 {
			t.Fatal("expected a non-empty invite token")
		}
		if len(inv.ScenarioQueue) != 3 {
			t.Fatalf("expected 3 scenarios in queue, got %d", len(inv.ScenarioQueue))
		}
	}

	machineCRS := map[string]float64{"SC-1": 0.9, "SC-2": 0.6, "SC-3": 0.3}
	dims := func(v int) domain.HumanScoreDimensions {
		return domain.HumanScoreDimensions{
			Qualification: v, NeedsDiscovery: v, ValueArticulation: v, ObjectionHandling: v,
			ProcessAdherence: v, Compliance: v, RelationshipBuilding: v, NextStepSecured: v,
		}
	}

	scoresByInvite := map[string]map[string]int{
		invites[0].InviteID: {"SC-1": 5, "SC-2": 3, "SC-3": 1},
		invites[1].InviteID: {"SC-1": 4, "SC-2": 3, "SC-3": 2},
	}

	var session2 domain.HumanSession
	for _, inv := range invites {
		for scenarioID, v := range scoresByInvite[inv.InviteID] {
			if _, err := svc.SubmitHumanScore(context.Background(), inv.InviteID, scenarioID, dims(v), domain.PursueYes, 4); err != nil {
				t.Fatalf("SubmitHumanScore: %v", err)
			}
		}
		session2, err = svc.CompleteInvite(context.Background(), session.SessionID, inv.InviteID, machineCRS)
		if err != nil {
			t.Fatalf("CompleteInvite: %v", err)
		}
	}

	if session2.Status != domain.SessionCompleted {
		t.Fatalf("session status = %s, want COMPLETED", session2.Status)
	}
	if session2.SpearmanRho == nil || *session2.SpearmanRho < spearmanRhoThreshold {
		t.Fatalf("expected rho >= %v, got %v", spearmanRhoThreshold, session2.SpearmanRho)
	}

	suite, err := store.GetSuite(context.Background(), "SUITE-1")
	if err != nil {
		t.Fatalf("GetSuite: %v", err)
	}
	if suite.Status != domain.SuiteHumanValidated {
		t.Fatalf("suite status = %s, want HUMAN_VALIDATED", suite.Status)
	}
}

func TestStartHumanCalibration_RejectsBelowMinimumEvaluators(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()
	svc := New(store, fixedClock{t: now}, &idgen.Sequence{IDs: []string{"SESSION-1", "INVITE-1"}})

	scenarios := []domain.Scenario{
		{ScenarioID: "SC-1", SuiteID: "SUITE-1", SequenceOrder: 0, Kind: domain.ScenarioGolden, ScenarioHash: "h"},
	}
	seedSuiteWithScenarios(t, store, svc, "SUITE-1", scenarios)
	store.UpdateSuiteStatus(context.Background(), "SUITE-1", domain.SuiteSystemValidated)

	_, _, err := svc.StartHumanCalibration(context.Background(), "SUITE-1", "RUN-1",
		[]string{"evaluator1@example.com"}, now.Add(48*time.Hour))
	if err == nil {
		t.Fatal("expected error starting calibration with fewer than the minimum evaluators")
	}
	if !kerrors.Is(err, kerrors.CodeInsufficientEvaluators) {
		t.Fatalf("expected CodeInsufficientEvaluators, got %v", err)
	}

	if _, getErr := store.GetHumanSession(context.Background(), "SESSION-1"); getErr == nil {
		t.Fatal("StartHumanCalibration must not create a session before the evaluator count check")
	}
}

func TestCreateVersion_ClonesScenariosIntoNewDraft(t *testing.T) {
	store := memory.New()
	svc := New(store, fixedClock{t: time.Now()}, &idgen.Sequence{IDs: []string{"SUITE-2", "SC-1-CLONE", "SC-2-CLONE"}})
	seedSuiteWithScenarios(t, store, svc, "SUITE-1", []domain.Scenario{
		{ScenarioID: "SC-1", SuiteID: "SUITE-1", SequenceOrder: 0, Kind: domain.ScenarioGolden, ScenarioHash: "h1"},
		{ScenarioID: "SC-2", SuiteID: "SUITE-1", SequenceOrder: 1, Kind: domain.ScenarioKill, ScenarioHash: "h2"},
	})

	v2, err := svc.CreateVersion(context.Background(), "SUITE-1")
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if v2.Version != 2 {
		t.Fatalf("Version = %d, want 2", v2.Version)
	}
	if v2.Status != domain.SuiteDraft {
		t.Fatalf("Status = %s, want DRAFT", v2.Status)
	}

	cloned, err := store.ListScenarios(context.Background(), v2.SuiteID)
	if err != nil {
		t.Fatalf("ListScenarios: %v", err)
	}
	if len(cloned) != 2 {
		t.Fatalf("expected 2 cloned scenarios, got %d", len(cloned))
	}
}

func TestDeprecate_ValidFromAnyStatus(t *testing.T) {
	store := memory.New()
	svc := New(store, fixedClock{t: time.Now()}, &idgen.Sequence{})
	store.CreateSuite(context.Background(), domain.Suite{SuiteID: "SUITE-1", Status: domain.SuiteGAApproved})

	deprecated, err := svc.Deprecate(context.Background(), "SUITE-1", domain.DeprecationSuperseded)
	if err != nil {
		t.Fatalf("Deprecate: %v", err)
	}
	if deprecated.Status != domain.SuiteDeprecated {
		t.Fatalf("Status = %s, want DEPRECATED", deprecated.Status)
	}
	if deprecated.DeprecatedReason != domain.DeprecationSuperseded {
		t.Fatalf("DeprecatedReason = %s, want SUPERSEDED", deprecated.DeprecatedReason)
	}
}

package suitegovernance

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/metrics"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage"
)

const (
	goldenPassThreshold       = 0.90
	killContainmentThreshold  = 0.95
	spearmanRhoThreshold      = 0.60
	minHumanEvaluators        = 2
)

// Scorer invokes the external scoring function once per scenario. The
// engine does not reason; it only drives deterministic iteration and
// aggregation over the scorer's outputs.
type Scorer interface {
	Score(ctx context.Context, scenario domain.Scenario) (outcome string, dimensionScores map[string]float64, crsWeighted float64, latencyMS int64, err error)
}

// Service orchestrates the suite lifecycle, system-validation runs, and
// human calibration over a storage.SuiteStore.
type Service struct {
	store storage.SuiteStore
	clock idgen.Clock
	ids   idgen.IDGenerator
}

func New(store storage.SuiteStore, clock idgen.Clock, ids idgen.IDGenerator) *Service {
	return &Service{store: store, clock: clock, ids: ids}
}

// Store exposes the underlying storage.SuiteStore for read paths (listing,
// lookups) that don't need any of the service's lifecycle logic.
func (s *Service) Store() storage.SuiteStore {
	return s.store
}

// Freeze computes the scenario manifest hash and marks the suite frozen,
// the precondition for running system validation.
func (s *Service) Freeze(ctx context.Context, suiteID string) (domain.Suite, error) {
	suite, err := s.store.GetSuite(ctx, suiteID)
	if err != nil {
		return domain.Suite{}, err
	}
	if err := CheckPrecondition(CommandFreeze, suite); err != nil {
		return domain.Suite{}, err
	}

	scenarios, err := s.store.ListScenarios(ctx, suiteID)
	if err != nil {
		return domain.Suite{}, err
	}
	manifestHash := scenarioManifestHash(scenarios)
	return s.store.FreezeSuite(ctx, suiteID, manifestHash, len(scenarios), s.clock.Now())
}

// RunSystemValidation iterates the suite's scenarios in sequence_order,
// scores each, aggregates golden pass rate / kill containment rate /
// Cohen's d, and promotes the suite to SYSTEM_VALIDATED if both gates
// pass.
func (s *Service) RunSystemValidation(ctx context.Context, suiteID, sivaVersion, codeCommitSHA, environment string, scorer Scorer) (domain.Run, error) {
	suite, err := s.store.GetSuite(ctx, suiteID)
	if err != nil {
		return domain.Run{}, err
	}
	if err := CheckPrecondition(CommandRunSystemValidation, suite); err != nil {
		return domain.Run{}, err
	}
	if !suite.IsFrozen {
		return domain.Run{}, kerrors.New(kerrors.CodeSuiteNotFrozen, "suite must be frozen before running system validation").
			WithDetails("suite_id", suiteID)
	}

	scenarios, err := s.store.ListScenarios(ctx, suiteID)
	if err != nil {
		return domain.Run{}, err
	}

	runNumber, err := s.store.NextRunNumber(ctx, suiteID)
	if err != nil {
		return domain.Run{}, err
	}
	startedAt := s.clock.Now()
	run, err := s.store.CreateRun(ctx, domain.Run{
		RunID:                s.ids.NewID(),
		SuiteID:              suiteID,
		RunNumber:            runNumber,
		ScenarioManifestHash: suite.ScenarioManifestHash,
		SIVAVersion:          sivaVersion,
		CodeCommitSHA:        codeCommitSHA,
		Environment:          environment,
		Status:               domain.RunRunning,
		StartedAt:            startedAt,
	})
	if err != nil {
		return domain.Run{}, err
	}

	results := make([]domain.RunResult, 0, len(scenarios))
	var goldenCRS, killCRS []float64
	var goldenTotal, goldenPasses, killTotal, killBlocks int

	for _, scenario := range scenarios {
		outcome, dims, crs, latencyMS, scoreErr := scorer.Score(ctx, scenario)
		if scoreErr != nil {
			if _, failErr := s.store.CompleteRun(ctx, run.RunID, domain.RunFailed, 0, 0, 0, s.clock.Now()); failErr != nil {
				return domain.Run{}, failErr
			}
			metrics.RecordSuiteRun(suite.SuiteKey, string(domain.RunFailed), time.Since(startedAt).Seconds())
			return domain.Run{}, scoreErr
		}

		results = append(results, domain.RunResult{
			RunID:           run.RunID,
			ScenarioID:      scenario.ScenarioID,
			SequenceOrder:   scenario.SequenceOrder,
			Outcome:         outcome,
			DimensionScores: dims,
			CRSWeighted:     crs,
			LatencyMS:       latencyMS,
			RecordedAt:      s.clock.Now(),
		})

		switch scenario.Kind {
		case domain.ScenarioGolden:
			goldenTotal++
			goldenCRS = append(goldenCRS, crs)
			if outcome == "PASS" {
				goldenPasses++
			}
		case domain.ScenarioKill:
			killTotal++
			killCRS = append(killCRS, crs)
			if outcome == "BLOCK" {
				killBlocks++
			}
		}
	}

	if err := s.store.AppendRunResults(ctx, results); err != nil {
		return domain.Run{}, err
	}

	goldenPassRate := rateOf(goldenPasses, goldenTotal)
	killContainmentRate := rateOf(killBlocks, killTotal)
	d := cohensD(goldenCRS, killCRS)

	completed, err := s.store.CompleteRun(ctx, run.RunID, domain.RunCompleted, goldenPassRate, killContainmentRate, d, s.clock.Now())
	if err != nil {
		return domain.Run{}, err
	}
	metrics.RecordSuiteRun(suite.SuiteKey, string(domain.RunCompleted), time.Since(startedAt).Seconds())

	if goldenPassRate >= goldenPassThreshold && killContainmentRate >= killContainmentThreshold {
		if _, err := s.store.UpdateSuiteStatus(ctx, suiteID, domain.SuiteSystemValidated); err != nil {
			return domain.Run{}, err
		}
	}

	return completed, nil
}

func rateOf(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

// StartHumanCalibration generates one invite per evaluator email, each
// carrying a 48-byte URL-safe token and a deterministically shuffled
// scenario queue.
func (s *Service) StartHumanCalibration(ctx context.Context, suiteID, runID string, evaluatorEmails []string, deadline time.Time) (domain.HumanSession, []domain.EvaluatorInvite, error) {
	if len(evaluatorEmails) < minHumanEvaluators {
		return domain.HumanSession{}, nil, kerrors.New(kerrors.CodeInsufficientEvaluators, "human calibration requires at least the minimum number of evaluators").
			WithDetails("min_human_evaluators", minHumanEvaluators).
			WithDetails("evaluator_count", len(evaluatorEmails))
	}

	suite, err := s.store.GetSuite(ctx, suiteID)
	if err != nil {
		return domain.HumanSession{}, nil, err
	}
	if err := CheckPrecondition(CommandStartHumanCalibration, suite); err != nil {
		return domain.HumanSession{}, nil, err
	}

	scenarios, err := s.store.ListScenarios(ctx, suiteID)
	if err != nil {
		return domain.HumanSession{}, nil, err
	}
	scenarioIDs := make([]string, len(scenarios))
	for i, sc := range scenarios {
		scenarioIDs[i] = sc.ScenarioID
	}

	session, err := s.store.CreateHumanSession(ctx, domain.HumanSession{
		SessionID:  s.ids.NewID(),
		SuiteID:    suiteID,
		RunID:      runID,
		DeadlineAt: deadline,
		Status:     domain.SessionInProgress,
		CreatedAt:  s.clock.Now(),
	})
	if err != nil {
		return domain.HumanSession{}, nil, err
	}

	invites := make([]domain.EvaluatorInvite, 0, len(evaluatorEmails))
	for i, email := range evaluatorEmails {
		token, err := generateToken()
		if err != nil {
			return domain.HumanSession{}, nil, err
		}
		invite, err := s.store.CreateInvite(ctx, domain.EvaluatorInvite{
			InviteID:       s.ids.NewID(),
			SessionID:      session.SessionID,
			EvaluatorIndex: i,
			EvaluatorEmail: email,
			Token:          token,
			ScenarioQueue:  ShuffleScenarios(scenarioIDs, i),
			Status:         domain.InvitePending,
			ExpiresAt:      deadline.Add(24 * time.Hour),
			CreatedAt:      s.clock.Now(),
		})
		if err != nil {
			return domain.HumanSession{}, nil, err
		}
		invites = append(invites, invite)
	}

	return session, invites, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RecordAccess marks an invite's first access, if not already recorded.
func (s *Service) RecordAccess(ctx context.Context, inviteID, userAgent, ip string) error {
	return s.store.RecordInviteFirstAccess(ctx, inviteID, userAgent, ip, s.clock.Now())
}

// SubmitHumanScore records one evaluator's per-scenario score and, if this
// was the invite's final scenario, completes the invite.
func (s *Service) SubmitHumanScore(ctx context.Context, inviteID, scenarioID string, dims domain.HumanScoreDimensions, wouldPursue domain.WouldPursue, confidence int) (domain.HumanScore, error) {
	score, err := s.store.RecordHumanScore(ctx, domain.HumanScore{
		InviteID:    inviteID,
		ScenarioID:  scenarioID,
		Dimensions:  dims,
		WouldPursue: wouldPursue,
		Confidence:  confidence,
		WeightedCRS: dims.WeightedCRS(),
		SubmittedAt: s.clock.Now(),
	})
	if err != nil {
		return domain.HumanScore{}, err
	}
	return score, nil
}

// CompleteInvite marks one evaluator's submissions complete, and, if every
// invite in the session is now complete and there are at least two
// evaluators, computes Spearman rho against machine scores and gates the
// session.
func (s *Service) CompleteInvite(ctx context.Context, sessionID, inviteID string, machineCRSByScenario map[string]float64) (domain.HumanSession, error) {
	if _, err := s.store.CompleteInvite(ctx, inviteID, s.clock.Now()); err != nil {
		return domain.HumanSession{}, err
	}

	invites, err := s.store.ListInvitesBySession(ctx, sessionID)
	if err != nil {
		return domain.HumanSession{}, err
	}
	if len(invites) < minHumanEvaluators {
		return s.store.GetHumanSession(ctx, sessionID)
	}
	for _, inv := range invites {
		if inv.Status != domain.InviteCompleted {
			return s.store.GetHumanSession(ctx, sessionID)
		}
	}

	scores, err := s.store.ListHumanScoresBySession(ctx, sessionID)
	if err != nil {
		return domain.HumanSession{}, err
	}
	rho, icc := correlateMachineVsHuman(machineCRSByScenario, scores)

	if rho < spearmanRhoThreshold {
		return s.store.GetHumanSession(ctx, sessionID)
	}

	session, err := s.store.CompleteHumanSession(ctx, sessionID, rho, icc, s.clock.Now())
	if err != nil {
		return domain.HumanSession{}, err
	}

	suite, err := s.store.GetSuite(ctx, session.SuiteID)
	if err != nil {
		return domain.HumanSession{}, err
	}
	if _, err := s.store.UpdateSuiteStatus(ctx, suite.SuiteID, domain.SuiteHumanValidated); err != nil {
		return domain.HumanSession{}, err
	}
	return session, nil
}

// correlateMachineVsHuman averages human weighted CRS per scenario across
// evaluators, then computes Spearman rho against the machine CRS for the
// same scenario set. ICC is approximated as the Spearman rho itself is
// not an ICC estimator; a true ICC needs per-rater variance decomposition
// the kernel does not otherwise need, so this reports the same pairing
// used for rho as a secondary, documented approximation.
func correlateMachineVsHuman(machineCRSByScenario map[string]float64, scores []domain.HumanScore) (rho, icc float64) {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, sc := range scores {
		sums[sc.ScenarioID] += sc.WeightedCRS
		counts[sc.ScenarioID]++
	}

	scenarioIDs := make([]string, 0, len(sums))
	for id := range sums {
		if _, ok := machineCRSByScenario[id]; ok {
			scenarioIDs = append(scenarioIDs, id)
		}
	}
	sort.Strings(scenarioIDs)

	machine := make([]float64, len(scenarioIDs))
	human := make([]float64, len(scenarioIDs))
	for i, id := range scenarioIDs {
		machine[i] = machineCRSByScenario[id]
		human[i] = sums[id] / float64(counts[id])
	}

	rho = spearmanRho(machine, human)
	return rho, rho
}

// ApproveForGA promotes a human-validated suite to GA_APPROVED.
func (s *Service) ApproveForGA(ctx context.Context, suiteID string) (domain.Suite, error) {
	suite, err := s.store.GetSuite(ctx, suiteID)
	if err != nil {
		return domain.Suite{}, err
	}
	if err := CheckPrecondition(CommandApproveForGA, suite); err != nil {
		return domain.Suite{}, err
	}
	return s.store.UpdateSuiteStatus(ctx, suiteID, domain.SuiteGAApproved)
}

// Deprecate is valid from any status.
func (s *Service) Deprecate(ctx context.Context, suiteID string, reason domain.DeprecationReason) (domain.Suite, error) {
	return s.store.DeprecateSuite(ctx, suiteID, reason)
}

// CreateVersion clones scenarios from sourceSuiteID into a new suite
// version under the same base_suite_key, starting in DRAFT.
func (s *Service) CreateVersion(ctx context.Context, sourceSuiteID string) (domain.Suite, error) {
	source, err := s.store.GetSuite(ctx, sourceSuiteID)
	if err != nil {
		return domain.Suite{}, err
	}
	versions, err := s.store.ListSuiteVersions(ctx, source.BaseSuiteKey)
	if err != nil {
		return domain.Suite{}, err
	}
	nextVersion := 1
	for _, v := range versions {
		if v.Version >= nextVersion {
			nextVersion = v.Version + 1
		}
	}

	newSuite, err := s.store.CreateSuite(ctx, domain.Suite{
		SuiteID:      s.ids.NewID(),
		SuiteKey:     source.SuiteKey,
		Version:      nextVersion,
		BaseSuiteKey: source.BaseSuiteKey,
		Status:       domain.SuiteDraft,
		CreatedAt:    s.clock.Now(),
	})
	if err != nil {
		return domain.Suite{}, err
	}

	scenarios, err := s.store.ListScenarios(ctx, sourceSuiteID)
	if err != nil {
		return domain.Suite{}, err
	}
	for _, sc := range scenarios {
		sc.ScenarioID = s.ids.NewID()
		sc.SuiteID = newSuite.SuiteID
		sc.CreatedAt = s.clock.Now()
		if _, err := s.store.AddScenario(ctx, sc); err != nil {
			return domain.Suite{}, err
		}
	}

	return newSuite, nil
}

func scenarioManifestHash(scenarios []domain.Scenario) string {
	sorted := make([]domain.Scenario, len(scenarios))
	copy(sorted, scenarios)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ScenarioID < sorted[j].ScenarioID })

	pairs := make([]string, len(sorted))
	for i, sc := range sorted {
		pairs[i] = sc.ScenarioID + ":" + sc.ScenarioHash
	}
	sum := sha256.Sum256([]byte(strings.Join(pairs, "|")))
	return hex.EncodeToString(sum[:])
}

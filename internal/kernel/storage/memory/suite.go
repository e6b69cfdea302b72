package memory

import (
	"context"
	"sort"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
)

func (s *Store) CreateSuite(_ context.Context, suite domain.Suite) (domain.Suite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suites[suite.SuiteID] = suite
	return suite, nil
}

func (s *Store) GetSuite(_ context.Context, suiteID string) (domain.Suite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	suite, ok := s.suites[suiteID]
	if !ok {
		return domain.Suite{}, errNotFound("suite", suiteID)
	}
	return suite, nil
}

func (s *Store) GetSuiteByKeyVersion(_ context.Context, suiteKey string, version int) (domain.Suite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, suite := range s.suites {
		if suite.SuiteKey == suiteKey && suite.Version == version {
			return suite, nil
		}
	}
	return domain.Suite{}, errNotFound("suite", suiteKey)
}

func (s *Store) ListSuiteVersions(_ context.Context, baseSuiteKey string) ([]domain.Suite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Suite
	for _, suite := range s.suites {
		if suite.BaseSuiteKey == baseSuiteKey {
			out = append(out, suite)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// ListAllSuites returns every suite row, ordered by base suite key then
// version, backing the GET suites command.
func (s *Store) ListAllSuites(_ context.Context) ([]domain.Suite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Suite, 0, len(s.suites))
	for _, suite := range s.suites {
		out = append(out, suite)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BaseSuiteKey != out[j].BaseSuiteKey {
			return out[i].BaseSuiteKey < out[j].BaseSuiteKey
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

func (s *Store) UpdateSuiteStatus(_ context.Context, suiteID string, status domain.SuiteStatus) (domain.Suite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	suite, ok := s.suites[suiteID]
	if !ok {
		return domain.Suite{}, errNotFound("suite", suiteID)
	}
	suite.Status = status
	s.suites[suiteID] = suite
	return suite, nil
}

func (s *Store) FreezeSuite(_ context.Context, suiteID, manifestHash string, scenarioCount int, frozenAt time.Time) (domain.Suite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	suite, ok := s.suites[suiteID]
	if !ok {
		return domain.Suite{}, errNotFound("suite", suiteID)
	}
	suite.IsFrozen = true
	suite.ScenarioManifestHash = manifestHash
	suite.ScenarioCount = scenarioCount
	suite.FrozenAt = &frozenAt
	s.suites[suiteID] = suite
	return suite, nil
}

func (s *Store) DeprecateSuite(_ context.Context, suiteID string, reason domain.DeprecationReason) (domain.Suite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	suite, ok := s.suites[suiteID]
	if !ok {
		return domain.Suite{}, errNotFound("suite", suiteID)
	}
	suite.Status = domain.SuiteDeprecated
	suite.DeprecatedReason = reason
	s.suites[suiteID] = suite
	return suite, nil
}

func (s *Store) AddScenario(_ context.Context, sc domain.Scenario) (domain.Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.scenarios[sc.SuiteID] {
		if existing.SequenceOrder == sc.SequenceOrder {
			return domain.Scenario{}, kerrors.New(kerrors.CodeDuplicateScenario, "scenario already exists at sequence order").
				WithDetails("suite_id", sc.SuiteID).
				WithDetails("sequence_order", sc.SequenceOrder)
		}
	}
	s.scenarios[sc.SuiteID] = append(s.scenarios[sc.SuiteID], sc)
	return sc, nil
}

func (s *Store) ListScenarios(_ context.Context, suiteID string) ([]domain.Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Scenario, len(s.scenarios[suiteID]))
	copy(out, s.scenarios[suiteID])
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceOrder < out[j].SequenceOrder })
	return out, nil
}

func (s *Store) ScenarioExists(_ context.Context, suiteID string, sequenceOrder int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.scenarios[suiteID] {
		if existing.SequenceOrder == sequenceOrder {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) NextRunNumber(_ context.Context, suiteID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suiteRunSeq[suiteID]++
	return s.suiteRunSeq[suiteID], nil
}

func (s *Store) CreateRun(_ context.Context, r domain.Run) (domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.RunID] = r
	return r, nil
}

func (s *Store) GetRun(_ context.Context, runID string) (domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return domain.Run{}, errNotFound("run", runID)
	}
	return r, nil
}

func (s *Store) CompleteRun(_ context.Context, runID string, status domain.RunStatus, goldenPassRate, killContainmentRate, cohensD float64, endedAt time.Time) (domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return domain.Run{}, errNotFound("run", runID)
	}
	r.Status = status
	r.GoldenPassRate = goldenPassRate
	r.KillContainmentRate = killContainmentRate
	r.CohensD = cohensD
	r.EndedAt = &endedAt
	s.runs[runID] = r
	return r, nil
}

func (s *Store) AppendRunResults(_ context.Context, results []domain.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(results) == 0 {
		return nil
	}
	runID := results[0].RunID
	s.runResults[runID] = append(s.runResults[runID], results...)
	return nil
}

func (s *Store) ListRunResults(_ context.Context, runID string) ([]domain.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RunResult, len(s.runResults[runID]))
	copy(out, s.runResults[runID])
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceOrder < out[j].SequenceOrder })
	return out, nil
}

func (s *Store) FailStaleRunning(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var failed []string
	for id, r := range s.runs {
		if r.Status == domain.RunRunning && r.StartedAt.Before(cutoff) {
			r.Status = domain.RunFailed
			now := nowUTC()
			r.EndedAt = &now
			s.runs[id] = r
			failed = append(failed, id)
		}
	}
	return failed, nil
}

func (s *Store) CreateHumanSession(_ context.Context, sess domain.HumanSession) (domain.HumanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.humanSessions[sess.SessionID] = sess
	return sess, nil
}

func (s *Store) GetHumanSession(_ context.Context, sessionID string) (domain.HumanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.humanSessions[sessionID]
	if !ok {
		return domain.HumanSession{}, errNotFound("human session", sessionID)
	}
	return sess, nil
}

func (s *Store) CompleteHumanSession(_ context.Context, sessionID string, rho, icc float64, completedAt time.Time) (domain.HumanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.humanSessions[sessionID]
	if !ok {
		return domain.HumanSession{}, errNotFound("human session", sessionID)
	}
	sess.Status = domain.SessionCompleted
	sess.SpearmanRho = &rho
	sess.ICC = &icc
	sess.CompletedAt = &completedAt
	s.humanSessions[sessionID] = sess
	return sess, nil
}

func (s *Store) CreateInvite(_ context.Context, inv domain.EvaluatorInvite) (domain.EvaluatorInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invitesByID[inv.InviteID] = inv
	s.invitesByToken[inv.Token] = inv.InviteID
	return inv, nil
}

func (s *Store) GetInviteByToken(_ context.Context, token string) (domain.EvaluatorInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.invitesByToken[token]
	if !ok {
		return domain.EvaluatorInvite{}, errNotFound("invite", token)
	}
	return s.invitesByID[id], nil
}

func (s *Store) ListInvitesBySession(_ context.Context, sessionID string) ([]domain.EvaluatorInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.EvaluatorInvite
	for _, inv := range s.invitesByID {
		if inv.SessionID == sessionID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EvaluatorIndex < out[j].EvaluatorIndex })
	return out, nil
}

func (s *Store) RecordInviteFirstAccess(_ context.Context, inviteID, userAgent, ip string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitesByID[inviteID]
	if !ok {
		return errNotFound("invite", inviteID)
	}
	if inv.FirstAccessedAt == nil {
		inv.FirstAccessedAt = &at
		inv.AccessUserAgent = userAgent
		inv.AccessIP = ip
		s.invitesByID[inviteID] = inv
	}
	return nil
}

func (s *Store) CompleteInvite(_ context.Context, inviteID string, at time.Time) (domain.EvaluatorInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitesByID[inviteID]
	if !ok {
		return domain.EvaluatorInvite{}, errNotFound("invite", inviteID)
	}
	inv.Status = domain.InviteCompleted
	inv.CompletedAt = &at
	s.invitesByID[inviteID] = inv
	return inv, nil
}

func (s *Store) RecordHumanScore(_ context.Context, sc domain.HumanScore) (domain.HumanScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.humanScores[sc.InviteID] = append(s.humanScores[sc.InviteID], sc)
	return sc, nil
}

func (s *Store) ListHumanScoresByInvite(_ context.Context, inviteID string) ([]domain.HumanScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.HumanScore, len(s.humanScores[inviteID]))
	copy(out, s.humanScores[inviteID])
	return out, nil
}

func (s *Store) ListHumanScoresBySession(_ context.Context, sessionID string) ([]domain.HumanScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.HumanScore
	for _, inv := range s.invitesByID {
		if inv.SessionID != sessionID {
			continue
		}
		out = append(out, s.humanScores[inv.InviteID]...)
	}
	return out, nil
}

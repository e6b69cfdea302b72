package memory

import (
	"context"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
)

func (s *Store) RecordViolation(_ context.Context, v domain.RuntimeGateViolation) (domain.RuntimeGateViolation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.violations = append(s.violations, v)
	return v, nil
}

func (s *Store) ListViolations(_ context.Context, limit int) ([]domain.RuntimeGateViolation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lastN(s.violations, limit), nil
}

func lastN(v []domain.RuntimeGateViolation, limit int) []domain.RuntimeGateViolation {
	if limit <= 0 || limit > len(v) {
		limit = len(v)
	}
	out := make([]domain.RuntimeGateViolation, limit)
	copy(out, v[len(v)-limit:])
	return out
}

func (s *Store) Initiate(_ context.Context, r domain.ReplayAttempt) (domain.ReplayAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replays[r.ReplayID] = r
	return r, nil
}

func (s *Store) Complete(_ context.Context, replayID string, status domain.ReplayStatus, drift *domain.DriftDetails) (domain.ReplayAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replays[replayID]
	if !ok {
		return domain.ReplayAttempt{}, errNotFound("replay", replayID)
	}
	if r.Status != domain.ReplayPending {
		return domain.ReplayAttempt{}, kerrors.New(kerrors.CodeInvalidStatus, "replay attempt already completed").
			WithDetails("replay_id", replayID).
			WithDetails("current_status", string(r.Status)).
			WithDetails("action_required", "initiate a new replay")
	}
	now := nowUTC()
	r.Status = status
	r.DriftDetails = drift
	r.CompletedAt = &now
	s.replays[replayID] = r
	return r, nil
}

func (s *Store) Get(_ context.Context, replayID string) (domain.ReplayAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replays[replayID]
	if !ok {
		return domain.ReplayAttempt{}, errNotFound("replay", replayID)
	}
	return r, nil
}

func (s *Store) History(_ context.Context, envelopeID string, limit int) ([]domain.ReplayAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ReplayAttempt
	for _, r := range s.replays {
		if r.EnvelopeID == envelopeID {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) FailStalePending(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var failed []string
	for id, r := range s.replays {
		if r.Status == domain.ReplayPending && r.InitiatedAt.Before(cutoff) {
			r.Status = domain.ReplayFailed
			now := nowUTC()
			r.CompletedAt = &now
			s.replays[id] = r
			failed = append(failed, id)
		}
	}
	return failed, nil
}

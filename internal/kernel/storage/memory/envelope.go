package memory

import (
	"context"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
)

func (s *Store) Seal(_ context.Context, e domain.Envelope) (domain.Envelope, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.envelopesByHash[e.SHA256Hash]; ok {
		return s.envelopesByID[existingID], false, nil
	}
	s.envelopesByID[e.EnvelopeID] = e
	s.envelopesByHash[e.SHA256Hash] = e.EnvelopeID
	return e, true, nil
}

func (s *Store) GetByID(_ context.Context, envelopeID string) (domain.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.envelopesByID[envelopeID]
	if !ok {
		return domain.Envelope{}, errNotFound("envelope", envelopeID)
	}
	return e, nil
}

func (s *Store) GetByHash(_ context.Context, sha256Hash string) (domain.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.envelopesByHash[sha256Hash]
	if !ok {
		return domain.Envelope{}, errNotFound("envelope", sha256Hash)
	}
	return s.envelopesByID[id], nil
}

func (s *Store) Revoke(_ context.Context, envelopeID, by string) (domain.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.envelopesByID[envelopeID]
	if !ok {
		return domain.Envelope{}, errNotFound("envelope", envelopeID)
	}
	if e.Status != domain.EnvelopeSealed {
		return domain.Envelope{}, kerrors.New(kerrors.CodeEnvelopeNotSealed, "envelope is not in SEALED state").
			WithDetails("envelope_id", envelopeID).
			WithDetails("current_status", string(e.Status))
	}
	now := nowUTC()
	e.Status = domain.EnvelopeRevoked
	e.RevokedAt = &now
	e.RevokedBy = by
	s.envelopesByID[envelopeID] = e
	return e, nil
}

func (s *Store) ExpireDue(_ context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []string
	for id, e := range s.envelopesByID {
		if e.Status == domain.EnvelopeSealed && e.ExpiresAt != nil && e.ExpiresAt.Before(now) {
			e.Status = domain.EnvelopeExpired
			s.envelopesByID[id] = e
			expired = append(expired, id)
		}
	}
	return expired, nil
}

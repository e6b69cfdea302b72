package memory

import (
	"context"
	"sort"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
)

func (s *Store) Get(_ context.Context, namespace, key string) (domain.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.configEntries[configKey(namespace, key)]
	if !ok || !e.IsActive {
		return domain.ConfigEntry{}, errNotFound("config entry", configKey(namespace, key))
	}
	return e, nil
}

func (s *Store) GetNamespace(_ context.Context, namespace string) ([]domain.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ConfigEntry
	for _, e := range s.configEntries {
		if e.Namespace == namespace && e.IsActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) GetMany(_ context.Context, pairs [][2]string) ([]domain.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ConfigEntry
	for _, p := range pairs {
		if e, ok := s.configEntries[configKey(p[0], p[1])]; ok && e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) Set(_ context.Context, e domain.ConfigEntry) (domain.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := configKey(e.Namespace, e.Key)
	if existing, ok := s.configEntries[k]; ok {
		e.Version = existing.Version + 1
	} else {
		e.Version = 1
	}
	e.IsActive = true
	e.UpdatedAt = nowUTC()
	s.configEntries[k] = e
	s.configHistory[k] = append(s.configHistory[k], e)
	return e, nil
}

func (s *Store) Delete(_ context.Context, namespace, key, updatedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := configKey(namespace, key)
	e, ok := s.configEntries[k]
	if !ok {
		return errNotFound("config entry", k)
	}
	e.IsActive = false
	e.UpdatedBy = updatedBy
	e.UpdatedAt = nowUTC()
	s.configEntries[k] = e
	return nil
}

func (s *Store) History(_ context.Context, namespace, key string) ([]domain.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := configKey(namespace, key)
	out := make([]domain.ConfigEntry, len(s.configHistory[k]))
	copy(out, s.configHistory[k])
	return out, nil
}

func (s *Store) Rollback(_ context.Context, namespace, key string, version int, updatedBy string) (domain.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := configKey(namespace, key)
	for _, historical := range s.configHistory[k] {
		if historical.Version == version {
			current := s.configEntries[k]
			next := historical
			next.Version = current.Version + 1
			next.IsActive = true
			next.UpdatedBy = updatedBy
			next.UpdatedAt = nowUTC()
			s.configEntries[k] = next
			s.configHistory[k] = append(s.configHistory[k], next)
			return next, nil
		}
	}
	return domain.ConfigEntry{}, kerrors.New(kerrors.CodeInvalidStatus, "no such config version to roll back to").
		WithDetails("namespace", namespace).
		WithDetails("key", key).
		WithDetails("version", version)
}

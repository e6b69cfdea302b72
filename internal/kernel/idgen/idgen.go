// Package idgen provides the kernel's Time & ID services: a monotonic
// wall clock source and a UUID v4 generator, both injected so tests can
// stub them rather than reaching for time.Now()/uuid.New() directly.
package idgen

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. Production code uses SystemClock;
// tests inject a fixed or stepped implementation.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now().
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator produces identifiers. Production code uses UUIDGenerator;
// tests inject a sequence stub for deterministic assertions.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator is the production IDGenerator, backed by google/uuid v4.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Sequence is a deterministic test IDGenerator that returns ids in order,
// cycling if exhausted.
type Sequence struct {
	IDs []string
	n   int
}

func (s *Sequence) NewID() string {
	if len(s.IDs) == 0 {
		return "seq-0"
	}
	id := s.IDs[s.n%len(s.IDs)]
	s.n++
	return id
}

package testutil

import (
	"fmt"
	"sync"
)

// FixedUUIDSource returns predetermined sequence identities for tests,
// enabling deterministic golden comparisons.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedUUIDSource struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedUUIDSource creates a source that returns ids in order.
// Generate panics once all ids are consumed - a test asking for more
// identities than it provisioned is a test bug.
func NewFixedUUIDSource(ids ...string) *FixedUUIDSource {
	return &FixedUUIDSource{ids: ids}
}

// Generate returns the next predetermined identity.
func (s *FixedUUIDSource) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.ids) {
		panic(fmt.Sprintf("FixedUUIDSource exhausted after %d ids", len(s.ids)))
	}
	id := s.ids[s.idx]
	s.idx++
	return id
}

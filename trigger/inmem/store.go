// Package inmem provides in-memory implementations of trigger.Store,
// trigger.ExecutionLogStore and trigger.Backend for testing and local
// development, with no persistence across process restarts. Modeled on
// runtime/agent/run/inmem package: thread-safe via
// sync.RWMutex, records defensively copied on read and write.
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/trigger"
)

// Store implements trigger.Store in memory.
type Store struct {
	mu sync.RWMutex
	triggers map[string]trigger.Trigger
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{triggers: make(map[string]trigger.Trigger)}
}

func (s *Store) Save(_ context.Context, t trigger.Trigger) (trigger.Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Parameters = cloneMetadata(t.Parameters)
	s.triggers[t.ID] = t
	return t, nil
}

func (s *Store) FindByID(_ context.Context, id string) (trigger.Trigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.triggers[id]
	if !ok {
		return trigger.Trigger{}, apperr.Errorf(apperr.NotFound, "trigger: no trigger %q", id)
	}
	t.Parameters = cloneMetadata(t.Parameters)
	return t, nil
}

func (s *Store) UpdateStatus(_ context.Context, id string, status trigger.Status, backendTaskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.triggers[id]
	if !ok {
		return apperr.Errorf(apperr.NotFound, "trigger: no trigger %q", id)
	}
	t.Status = status
	if backendTaskID != "" {
		t.BackendTaskID = backendTaskID
	}
	t.UpdatedAt = time.Now().UTC()
	s.triggers[id] = t
	return nil
}

func (s *Store) FindAll(_ context.Context) ([]trigger.Trigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trigger.Trigger, 0, len(s.triggers))
	for _, t := range s.triggers {
		t.Parameters = cloneMetadata(t.Parameters)
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) FindBySource(_ context.Context, sourceType, sourceID string) ([]trigger.Trigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []trigger.Trigger
	for _, t := range s.triggers {
		if t.SourceType == sourceType && t.SourceID == sourceID {
			t.Parameters = cloneMetadata(t.Parameters)
			out = append(out, t)
		}
	}
	return out, nil
}

// Reset clears all stored triggers. Test-only; not part of trigger.Store.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = make(map[string]trigger.Trigger)
}

func cloneMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

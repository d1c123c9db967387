package graph

import (
	"sync"

	"github.com/agentcore/runtime/state"
)

// InMemorySaver is a CheckpointSaver backed by a map, keyed by thread id. It
// keeps every checkpoint ever saved for a thread, enabling Load by specific
// checkpoint id in addition to Latest.
type InMemorySaver struct {
	mu sync.Mutex
	byKey map[string]state.Checkpoint
	order map[string][]string
}

// NewInMemorySaver constructs an empty InMemorySaver.
func NewInMemorySaver() *InMemorySaver {
	return &InMemorySaver{
		byKey: map[string]state.Checkpoint{},
		order: map[string][]string{},
	}
}

func (s *InMemorySaver) Save(cp state.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cp.ThreadID + "/" + cp.CheckpointID
	s.byKey[key] = cp
	s.order[cp.ThreadID] = append(s.order[cp.ThreadID], cp.CheckpointID)
	return nil
}

func (s *InMemorySaver) Load(threadID, checkpointID string) (state.Checkpoint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.byKey[threadID+"/"+checkpointID]
	return cp, ok, nil
}

func (s *InMemorySaver) Latest(threadID string) (state.Checkpoint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.order[threadID]
	if len(ids) == 0 {
		return state.Checkpoint{}, false, nil
	}
	last := ids[len(ids)-1]
	cp, ok := s.byKey[threadID+"/"+last]
	return cp, ok, nil
}

package state

import (
	"maps"
	"sync"

	"github.com/agentcore/runtime/apperr"
)

// MergeStrategy controls how a delta value for a given key is combined with
// the existing value already in state (: every write carries a merge
// strategy).
type MergeStrategy string

const (
	// MergeReplace overwrites the existing value outright.
	MergeReplace MergeStrategy = "replace"
	// MergeAppend concatenates the delta value onto the existing list.
	// Both the existing and delta values must be []any (or assignable
	// slices); Merge returns a Conflict error (see apperr) if either side
	// is incompatible.
	MergeAppend MergeStrategy = "append"
)

// Reserved state keys.
const (
	KeyMessages = "messages"
	KeyInput = "input"
	KeyJumpTo = "jump_to"
)

// JumpEnd is the reserved jump_to token that ends a graph run.
const JumpEnd = "END"

// KeyStrategies maps reserved keys to their fixed merge strategy. Keys not
// present here default to MergeReplace unless a Delta explicitly names a
// different strategy for that write.
var KeyStrategies = map[string]MergeStrategy{
	KeyMessages: MergeAppend,
	KeyInput: MergeReplace,
	KeyJumpTo: MergeReplace,
}

type (
	// Delta is a partial state change returned by a graph node or hook. Each
	// key carries its own merge strategy so the engine can combine deltas
	// from parallel siblings without ambiguity.
	Delta struct {
		Values map[string]any
		Strategies map[string]MergeStrategy
	}

	// OverAllState is the keyed, mergeable conversation state associated
	// with a thread_id. It is safe for concurrent reads; writes
	// (via Merge) are serialized by the caller — the graph engine
	// guarantees a single active merge per thread at a time, so OverAllState
	// itself only needs to protect against concurrent reads racing a
	// Merge.
	OverAllState struct {
		mu sync.RWMutex
		ThreadID string
		values map[string]any
	}
)

// NewDelta constructs an empty Delta ready for Set calls.
func NewDelta() *Delta {
	return &Delta{Values: map[string]any{}, Strategies: map[string]MergeStrategy{}}
}

// Set records a key/value pair in the delta using the reserved strategy for
// that key if one is registered in KeyStrategies, or MergeReplace otherwise.
func (d *Delta) Set(key string, value any) *Delta {
	strategy := MergeReplace
	if s, ok := KeyStrategies[key]; ok {
		strategy = s
	}
	return d.SetWithStrategy(key, value, strategy)
}

// SetWithStrategy records a key/value pair in the delta with an explicit
// merge strategy, overriding any reserved default.
func (d *Delta) SetWithStrategy(key string, value any, strategy MergeStrategy) *Delta {
	d.Values[key] = value
	d.Strategies[key] = strategy
	return d
}

// New constructs an empty OverAllState for the given thread.
func New(threadID string) *OverAllState {
	return &OverAllState{ThreadID: threadID, values: map[string]any{}}
}

// Get returns the value stored at key and whether it was present.
func (s *OverAllState) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Messages returns the current message list, or nil if none has been
// written yet.
func (s *OverAllState) Messages() []Message {
	v, ok := s.Get(KeyMessages)
	if !ok {
		return nil
	}
	msgs, _ := v.([]Message)
	return msgs
}

// Snapshot returns a shallow copy of the full state map, suitable for
// checkpointing or for handing a frozen view to a criterion's dependency
// bindings.
func (s *OverAllState) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Merge applies delta to the state, honoring each key's merge strategy.
// MergeAppend concatenates []Message or []any values; any other type pairing
// under MergeAppend is an error. Conflicting MergeReplace writers (e.g. two
// parallel siblings both replacing the same key) are resolved
// last-writer-wins, deterministic by iteration order of the caller-supplied
// deltas — callers merging multiple sibling deltas at once should call Merge
// once per delta in a stable (e.g. node-name-sorted) order.
func (s *OverAllState) Merge(delta *Delta) error {
	if delta == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range delta.Values {
		strategy := delta.Strategies[key]
		if strategy == "" {
			strategy = MergeReplace
		}
		if strategy == MergeReplace {
			s.values[key] = value
			continue
		}
		if err := s.appendLocked(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *OverAllState) appendLocked(key string, value any) error {
	existing, ok := s.values[key]
	if !ok {
		s.values[key] = value
		return nil
	}
	switch v := value.(type) {
	case []Message:
		cur, ok := existing.([]Message)
		if !ok {
			return mergeTypeError(key)
		}
		s.values[key] = append(append([]Message{}, cur...), v...)
		return nil
	case []any:
		cur, ok := existing.([]any)
		if !ok {
			return mergeTypeError(key)
		}
		s.values[key] = append(append([]any{}, cur...), v...)
		return nil
	default:
		return mergeTypeError(key)
	}
}

func mergeTypeError(key string) error {
	return apperr.Errorf(apperr.Conflict, "state: key %q cannot be merged with append strategy: incompatible value types", key)
}

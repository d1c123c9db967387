package eval

import (
	"sync"

	"github.com/agentcore/runtime/apperr"
)

// EvaluatorRegistry resolves a Criterion's EvaluatorRef to an Evaluator.
// Custom evaluators register by string id; a DefaultRef, when
// set, is used when a criterion's ref is missing from the registry.
type EvaluatorRegistry struct {
	mu sync.RWMutex
	evaluators map[string]Evaluator
	defaultRef string
}

// NewEvaluatorRegistry constructs an empty EvaluatorRegistry.
func NewEvaluatorRegistry() *EvaluatorRegistry {
	return &EvaluatorRegistry{evaluators: map[string]Evaluator{}}
}

// Register binds id to ev, overwriting any prior registration.
func (r *EvaluatorRegistry) Register(id string, ev Evaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluators[id] = ev
}

// SetDefault designates the evaluator id used when a criterion's
// EvaluatorRef is not registered.
func (r *EvaluatorRegistry) SetDefault(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultRef = id
}

// Resolve looks up ref, falling back to the registry's default when ref is
// unregistered. It returns an error (ERROR-worthy per Failure) when
// neither ref nor the default resolves.
func (r *EvaluatorRegistry) Resolve(ref string) (Evaluator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ev, ok := r.evaluators[ref]; ok {
		return ev, nil
	}
	if r.defaultRef != "" {
		if ev, ok := r.evaluators[r.defaultRef]; ok {
			return ev, nil
		}
	}
	return nil, apperr.Errorf(apperr.NotFound, "eval: no evaluator registered for ref %q and no usable default", ref)
}

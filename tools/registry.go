package tools

import (
	"sync"

	"github.com/agentcore/runtime/apperr"
)

// Handler is the runtime contract of a tool: a pure function from
// (args, context) to a result or error.
type Handler func(ctx *ExecutionContext, args map[string]any) (any, error)

// Registration pairs a Tool's declared metadata with its Handler.
type Registration struct {
	Tool Tool
	Handler Handler
}

// Registry resolves tools by name (or alias), globally unique.
type Registry struct {
	mu sync.RWMutex
	byKey map[string]*Registration
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byKey: map[string]*Registration{}}
}

// Register adds reg, keyed by its tool's Name and every declared
// Alias. Registering a name or alias already taken is an error.
func (r *Registry) Register(reg Registration) error {
	if reg.Tool.Name == "" {
		return apperr.New(apperr.InvalidInput, "tools: tool name is required")
	}
	if reg.Handler == nil {
		return apperr.Errorf(apperr.InvalidInput, "tools: %q requires a handler", reg.Tool.Name)
	}
	keys := append([]string{reg.Tool.Name}, reg.Tool.Aliases...)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		if _, exists := r.byKey[k]; exists {
			return apperr.Errorf(apperr.Conflict, "tools: name or alias %q is already registered", k)
		}
	}
	copied := reg
	for _, k := range keys {
		r.byKey[k] = &copied
	}
	return nil
}

// List returns every distinct registered Tool (once per tool, not once
// per alias), in no particular order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]bool{}
	var out []Tool
	for _, reg := range r.byKey {
		if seen[reg.Tool.Name] {
			continue
		}
		seen[reg.Tool.Name] = true
		out = append(out, reg.Tool)
	}
	return out
}

// Resolve looks up a tool by name or alias.
func (r *Registry) Resolve(name string) (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byKey[name]
	if !ok {
		return nil, apperr.Errorf(apperr.NotFound, "tools: %q is not registered", name)
	}
	return reg, nil
}

// Package hooks implements the Hook Pipeline: a positional,
// priority-ordered extension mechanism around the agent's
// BEFORE_AGENT/BEFORE_MODEL/AFTER_MODEL/AFTER_AGENT/TOOL_INTERCEPT
// boundaries, plus the Model Call Chain that wraps the raw model
// invocation in a composable interceptor chain.
//
// The pipeline is modeled on a fan-out-with-fail-fast message bus
// pattern, adapted from pure pub/sub into a
// positional pipeline where each subscriber (hook) returns a delta to merge
// rather than just observing an event.
package hooks

import (
	"context"
	"sort"
	"sync"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/state"
	"github.com/agentcore/runtime/telemetry"
)

// Position identifies where in the agent turn a hook runs.
type Position string

const (
	BeforeAgent Position = "BEFORE_AGENT"
	BeforeModel Position = "BEFORE_MODEL"
	AfterModel Position = "AFTER_MODEL"
	AfterAgent Position = "AFTER_AGENT"
	ToolIntercept Position = "TOOL_INTERCEPT"
)

// Phase scopes a hook to one of the two nested agents.
type Phase string

const (
	React Phase = "REACT"
	CodeAct Phase = "CODEACT"
)

// JumpTarget enumerates the only legal values a hook may write to
// state.KeyJumpTo.
type JumpTarget string

const (
	JumpModel JumpTarget = "model"
	JumpTool JumpTarget = "tool"
	JumpEnd JumpTarget = JumpTarget(state.JumpEnd)
)

// legalDestinations is the full universe a hook may declare against; it
// exists so Register can reject typos or destinations the engine does not
// understand, independent of any single hook's own declared subset.
var legalDestinations = map[JumpTarget]bool{
	JumpModel: true,
	JumpTool: true,
	JumpEnd: true,
}

// Hook is a single extension point registered with a Pipeline. Position and
// Phase determine when the engine invokes it; Priority determines order
// within a position (lower runs first); Destinations declares the full set
// of jump_to values the hook may write, validated at Register time and
// enforced again at Run time.
type Hook interface {
	Position() Position
	Phase() Phase
	Priority() int
	Destinations() []JumpTarget
	Run(ctx context.Context, st *state.OverAllState) (*state.Delta, error)
}

// FuncHook adapts a plain function plus static metadata into a Hook. Most
// hooks in practice are FuncHooks; custom Hook implementations exist for
// stateful hooks (e.g. ones holding a repository handle).
type FuncHook struct {
	position Position
	phase Phase
	priority int
	dest []JumpTarget
	fn func(ctx context.Context, st *state.OverAllState) (*state.Delta, error)
}

// NewFuncHook constructs a FuncHook.
func NewFuncHook(position Position, phase Phase, priority int, dest []JumpTarget, fn func(ctx context.Context, st *state.OverAllState) (*state.Delta, error)) *FuncHook {
	return &FuncHook{position: position, phase: phase, priority: priority, dest: dest, fn: fn}
}

func (h *FuncHook) Position() Position { return h.position }
func (h *FuncHook) Phase() Phase { return h.phase }
func (h *FuncHook) Priority() int { return h.priority }
func (h *FuncHook) Destinations() []JumpTarget { return h.dest }
func (h *FuncHook) Run(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
	return h.fn(ctx, st)
}

// Pipeline holds hooks grouped by Position, each group kept sorted by
// Priority. Register validates a hook's declared destinations against the
// fixed universe of legal jump_to values; Run additionally rejects a hook
// that sets a jump_to outside its own declared set, catching the
// "unreachable graph" class of bug Bus leaves to callers.
type Pipeline struct {
	mu sync.RWMutex
	byPos map[Position][]Hook
	logger telemetry.Logger
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithLogger attaches a logger used for hook-error diagnostics.
func WithLogger(l telemetry.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline constructs an empty Pipeline.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		byPos: map[Position][]Hook{},
		logger: telemetry.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register adds h to the pipeline, rejecting it if it declares an undeclared
// or unknown jump_to destination.
func (p *Pipeline) Register(h Hook) error {
	if h == nil {
		return apperr.New(apperr.InvalidInput, "hooks: hook is required")
	}
	for _, d := range h.Destinations() {
		if !legalDestinations[d] {
			return apperr.Errorf(apperr.InvalidInput, "hooks: hook declares unreachable destination %q", d)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	list := append(p.byPos[h.Position()], h)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Priority() < list[j].Priority() })
	p.byPos[h.Position()] = list
	return nil
}

// Run executes, in priority order, every hook registered at position whose
// Phase matches phase. Each hook's delta is merged into st before the next
// hook runs. Run stops and returns the first hook error (fail-fast, matching
// Bus.Publish semantics) or the first error from an
// undeclared jump_to. It returns the last jump_to value written, if any.
func (p *Pipeline) Run(ctx context.Context, position Position, phase Phase, st *state.OverAllState) (string, error) {
	p.mu.RLock()
	hooks := make([]Hook, len(p.byPos[position]))
	copy(hooks, p.byPos[position])
	p.mu.RUnlock()

	jumpTo := ""
	for _, h := range hooks {
		if h.Phase() != phase {
			continue
		}
		delta, err := h.Run(ctx, st)
		if err != nil {
			return "", apperr.Wrap(apperr.ExternalFailure, "hooks: hook at "+string(position)+" failed", err)
		}
		if delta == nil {
			continue
		}
		if v, ok := delta.Values[state.KeyJumpTo]; ok {
			if s, ok := v.(string); ok && s != "" {
				if !hookDeclares(h, JumpTarget(s)) {
					return "", apperr.Errorf(apperr.Conflict, "hooks: hook at %s set undeclared jump_to %q", position, s)
				}
				jumpTo = s
			}
		}
		if err := st.Merge(delta); err != nil {
			return "", err
		}
	}
	return jumpTo, nil
}

func hookDeclares(h Hook, target JumpTarget) bool {
	for _, d := range h.Destinations() {
		if d == target {
			return true
		}
	}
	return false
}

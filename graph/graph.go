// Package graph implements the Graph Engine & State Store: a compiled
// DAG of named nodes producing delta maps, executed
// layer by layer with parallel fan-out of ready siblings, checkpointing at
// every node boundary, and jump_to-driven edge control.
package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/state"
	"github.com/agentcore/runtime/telemetry"
)

// End is the reserved successor/jump_to name that terminates a run.
const End = state.JumpEnd

// Start is the reserved entry node name.
const Start = "START"

type (
	// NodeFunc is the unit of work compiled into a graph node. It receives
	// the current state and returns a delta to merge, or an error. A node
	// that wants to control which node runs next writes state.KeyJumpTo
	// into its delta.
	NodeFunc func(ctx context.Context, st *state.OverAllState) (*state.Delta, error)

	// Graph is a compiled DAG of named nodes. Construct with New, register
	// nodes with AddNode, wire unconditional edges with AddEdge, then call
	// Invoke.
	Graph struct {
		nodes map[string]NodeFunc
		edges map[string][]string
		maxConcurrency int64
		logger telemetry.Logger
		tracer telemetry.Tracer
	}

	// Option configures a Graph at construction time.
	Option func(*Graph)

	// InvokeConfig controls a single Invoke call.
	InvokeConfig struct {
		// ThreadID identifies the conversation thread for checkpointing.
		ThreadID string
		// Saver checkpoints state at every node-layer boundary when non-nil.
		Saver state.CheckpointSaver
		// ContinueOnNodeError, when true, records a failing node's error
		// into state instead of aborting the turn.
		// Errors are recorded under "<node>_error" via MergeReplace.
		ContinueOnNodeError bool
	}
)

// WithMaxConcurrency bounds how many ready nodes in a single layer execute
// in parallel. Zero or negative means unbounded.
func WithMaxConcurrency(n int) Option {
	return func(g *Graph) { g.maxConcurrency = int64(n) }
}

// WithLogger attaches a logger used for node-failure and jump diagnostics.
func WithLogger(l telemetry.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// WithTracer attaches a tracer used to span each node execution.
func WithTracer(t telemetry.Tracer) Option {
	return func(g *Graph) { g.tracer = t }
}

// New constructs an empty Graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes: map[string]NodeFunc{},
		edges: map[string][]string{},
		logger: telemetry.NewNoopLogger(),
		tracer: telemetry.NewNoopTracer(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode registers a named node. Registering the same name twice overwrites
// the prior registration.
func (g *Graph) AddNode(name string, fn NodeFunc) *Graph {
	g.nodes[name] = fn
	return g
}

// AddEdge wires an unconditional successor edge: when from finishes without
// setting jump_to, to becomes a candidate for the next layer (alongside any
// other edges also registered from "from", executed in parallel).
func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = append(g.edges[from], to)
	return g
}

// SetStart wires the graph's entry node as an unconditional edge from Start.
func (g *Graph) SetStart(name string) *Graph {
	return g.AddEdge(Start, name)
}

// Invoke runs the graph to completion starting from Start, applying
// checkpointing and jump_to control.
//
// Algorithm: the engine computes layers by following the edges registered
// via AddEdge from the current layer's node names. Within a layer, all
// ready nodes execute in parallel (bounded by WithMaxConcurrency); their
// deltas are merged into state in node-name-sorted order so MergeReplace
// conflicts are deterministic last-writer-wins. If any node in the layer
// sets jump_to, the next layer becomes exactly {jump_to} (or the run ends
// if jump_to == End), pruning the edges that would otherwise have fired.
func (g *Graph) Invoke(ctx context.Context, initial *state.OverAllState, cfg InvokeConfig) (*state.OverAllState, error) {
	st := initial
	layer := g.edges[Start]
	if len(layer) == 0 {
		return st, apperr.New(apperr.InvalidInput, "graph: no start edge registered; call SetStart")
	}

	for len(layer) > 0 {
		layer = dedupe(layer)
		if len(layer) == 1 && layer[0] == End {
			break
		}

		results, jumpTo, err := g.runLayer(ctx, st, layer, cfg)
		if err != nil {
			return st, err
		}

		for _, name := range sortedKeys(results) {
			if err := st.Merge(results[name]); err != nil {
				return st, err
			}
		}

		if cfg.Saver != nil {
			if err := cfg.Saver.Save(state.Checkpoint{
				ThreadID: cfg.ThreadID,
				StateBlob: st.Snapshot(),
				CheckpointID: uuid.NewString(),
			}); err != nil {
				return st, apperr.Wrap(apperr.ExternalFailure, "graph: checkpoint save failed", err)
			}
		}

		if jumpTo != "" {
			if jumpTo == End {
				break
			}
			layer = []string{jumpTo}
			continue
		}

		next := make([]string, 0)
		for _, name := range layer {
			next = append(next, g.edges[name]...)
		}
		layer = next
	}
	return st, nil
}

// runLayer executes every node in layer concurrently (bounded by
// maxConcurrency) and returns each node's delta keyed by node name, plus the
// jump_to value if any node in the layer requested one (first one found in
// node-name order, deterministic).
func (g *Graph) runLayer(ctx context.Context, st *state.OverAllState, layer []string, cfg InvokeConfig) (map[string]*state.Delta, string, error) {
	var sem *semaphore.Weighted
	if g.maxConcurrency > 0 {
		sem = semaphore.NewWeighted(g.maxConcurrency)
	}

	results := make(map[string]*state.Delta, len(layer))
	var mu sync.Mutex
	var wg sync.WaitGroup
	errs := make(map[string]error)

	for _, name := range layer {
		fn, ok := g.nodes[name]
		if !ok {
			return nil, "", apperr.Errorf(apperr.InvalidInput, "graph: edge references unregistered node %q", name)
		}
		wg.Add(1)
		go func(name string, fn NodeFunc) {
			defer wg.Done()
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					mu.Lock()
					errs[name] = err
					mu.Unlock()
					return
				}
				defer sem.Release(1)
			}
			spanCtx, span := g.tracer.Start(ctx, "graph.node."+name)
			defer span.End()
			delta, err := fn(spanCtx, st)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[name] = err
				if cfg.ContinueOnNodeError {
					d := state.NewDelta()
					d.Set(name+"_error", err.Error())
					results[name] = d
				}
				return
			}
			if delta == nil {
				delta = state.NewDelta()
			}
			results[name] = delta
		}(name, fn)
	}
	wg.Wait()

	if len(errs) > 0 && !cfg.ContinueOnNodeError {
		for _, name := range sortedErrKeys(errs) {
			return nil, "", apperr.Wrap(apperr.ExternalFailure, "graph: node "+name+" failed", errs[name])
		}
	}

	jumpTo := ""
	for _, name := range sortedKeys(results) {
		if v, ok := results[name].Values[state.KeyJumpTo]; ok {
			if s, ok := v.(string); ok && s != "" {
				jumpTo = s
				break
			}
		}
	}
	return results, jumpTo, nil
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func sortedKeys(m map[string]*state.Delta) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedErrKeys(m map[string]error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

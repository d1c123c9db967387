// Package agent wires the Graph Engine, Hook Pipeline, Evaluation Engine,
// Prompt Assembler, Experience Store/Fast-Intent Matcher and Tool
// Dispatcher into the single turn-execution entrypoint described by the
// agent execution core's system overview: a BEFORE_AGENT fast-intent check
// that can bypass the model entirely, otherwise evaluation -> prompt
// assembly -> BEFORE_MODEL hooks -> model call -> AFTER_MODEL hooks -> tool
// dispatch, looping back to the model while tool calls remain outstanding,
// finishing with AFTER_AGENT hooks.
//
// Structured as a thin orchestrator type that holds every collaborator
// by interface and exposes one Run-shaped entrypoint, generalized from a
// single linear call chain into a compiled graph.Graph so REACT's tool
// loop and CODEACT's nested phase share the same execution machinery.
package agent

import (
	"context"

	"github.com/google/uuid"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/eval"
	"github.com/agentcore/runtime/graph"
	"github.com/agentcore/runtime/hooks"
	"github.com/agentcore/runtime/prompt"
	"github.com/agentcore/runtime/state"
	"github.com/agentcore/runtime/telemetry"
	"github.com/agentcore/runtime/tools"
)

// Node names double as hook jump_to targets for "model" and "tool", so a
// BEFORE_AGENT/BEFORE_MODEL/AFTER_MODEL hook's declared JumpTarget lands on
// a real graph node without this package needing its own translation
// table (hooks.JumpModel == "model", hooks.JumpTool == "tool").
const (
	nodeBeforeAgent = "before_agent"
	nodeEvaluate = "evaluate"
	nodeAssemble = "assemble_prompt"
	nodeBeforeModel = "before_model_hooks"
	nodeModel = string(hooks.JumpModel)
	nodeAfterModel = "after_model_hooks"
	nodeTool = string(hooks.JumpTool)
	nodeAfterAgent = "after_agent_hooks"
)

// Non-reserved state keys private to this package's turn bookkeeping.
const (
	keyEvaluationResult = "agent.evaluation_result"
	keyPendingToolCalls = "agent.pending_tool_calls"
	keyToolIterations = "agent.tool_iterations"
	keyRunID = "agent.run_id"
)

// defaultMaxToolIterations bounds the REACT tool loop so a model that
// never stops requesting tool calls cannot run a turn forever.
const defaultMaxToolIterations = 25

// Runtime executes one phase's turn lifecycle (spec'd REACT or CODEACT
// nested agent) as a compiled graph.Graph.
type Runtime struct {
	phase hooks.Phase
	registry *tools.Registry
	dispatcher *tools.Dispatcher
	pipeline *hooks.Pipeline
	model hooks.ModelHandler
	suite *eval.Suite
	assembler *prompt.Assembler
	saver state.CheckpointSaver

	maxToolIterations int
	graphOpts []graph.Option

	logger telemetry.Logger
	tracer telemetry.Tracer
	metrics telemetry.Metrics

	g *graph.Graph
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithEvaluationSuite attaches the Evaluation Engine run ahead of prompt
// assembly, once per turn, unless a BEFORE_AGENT hook jumps past it. A
// Runtime built without one skips evaluation entirely.
func WithEvaluationSuite(s *eval.Suite) Option { return func(r *Runtime) { r.suite = s } }

// WithPromptAssembler attaches the Prompt Assembler, consulted once per
// turn after evaluation. The REACT tool loop re-enters at
// before_model_hooks and does not re-run it, and a BEFORE_AGENT jump
// skips it.
func WithPromptAssembler(a *prompt.Assembler) Option { return func(r *Runtime) { r.assembler = a } }

// WithCheckpointSaver enables per-layer checkpointing of the turn's state.
func WithCheckpointSaver(s state.CheckpointSaver) Option { return func(r *Runtime) { r.saver = s } }

// WithMaxToolIterations overrides the default REACT loop bound.
func WithMaxToolIterations(n int) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.maxToolIterations = n
		}
	}
}

// WithGraphOptions forwards options to the underlying graph.Graph (e.g.
// graph.WithMaxConcurrency).
func WithGraphOptions(opts ...graph.Option) Option {
	return func(r *Runtime) { r.graphOpts = append(r.graphOpts, opts...) }
}

// WithLogger attaches a logger shared by the graph, hooks, and tool calls
// this Runtime drives.
func WithLogger(l telemetry.Logger) Option { return func(r *Runtime) { r.logger = l } }

// WithTracer attaches a tracer shared the same way.
func WithTracer(t telemetry.Tracer) Option { return func(r *Runtime) { r.tracer = t } }

// WithMetrics attaches a metrics recorder shared the same way.
func WithMetrics(m telemetry.Metrics) Option { return func(r *Runtime) { r.metrics = m } }

// NewRuntime constructs a Runtime for phase, wiring registry/dispatcher
// (Tool Dispatcher), pipeline (Hook Pipeline, already populated with every
// hook this phase needs — callers register phase-scoped hooks, including
// any repository-backed stateful ones, before calling NewRuntime) and
// model (the composed Model Call Chain) into a compiled graph.
func NewRuntime(phase hooks.Phase, registry *tools.Registry, dispatcher *tools.Dispatcher, pipeline *hooks.Pipeline, model hooks.ModelHandler, opts ...Option) (*Runtime, error) {
	if registry == nil {
		return nil, apperr.New(apperr.InvalidInput, "agent: registry is required")
	}
	if dispatcher == nil {
		return nil, apperr.New(apperr.InvalidInput, "agent: dispatcher is required")
	}
	if pipeline == nil {
		return nil, apperr.New(apperr.InvalidInput, "agent: pipeline is required")
	}
	if model == nil {
		return nil, apperr.New(apperr.InvalidInput, "agent: model handler is required")
	}

	r := &Runtime{
		phase: phase,
		registry: registry,
		dispatcher: dispatcher,
		pipeline: pipeline,
		model: model,
		maxToolIterations: defaultMaxToolIterations,
		logger: telemetry.NewNoopLogger(),
		tracer: telemetry.NewNoopTracer(),
		metrics: telemetry.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.g = r.buildGraph()
	return r, nil
}

func (r *Runtime) buildGraph() *graph.Graph {
	opts := append([]graph.Option{
		graph.WithLogger(r.logger),
		graph.WithTracer(r.tracer),
	}, r.graphOpts...)
	g := graph.New(opts...)

	g.AddNode(nodeBeforeAgent, r.nodeBeforeAgent)
	g.AddNode(nodeEvaluate, r.nodeEvaluate)
	g.AddNode(nodeAssemble, r.nodeAssemble)
	g.AddNode(nodeBeforeModel, r.nodeBeforeModel)
	g.AddNode(nodeModel, r.nodeModel)
	g.AddNode(nodeAfterModel, r.nodeAfterModel)
	g.AddNode(nodeTool, r.nodeTool)
	g.AddNode(nodeAfterAgent, r.nodeAfterAgent)

	g.SetStart(nodeBeforeAgent)
	g.AddEdge(nodeBeforeAgent, nodeEvaluate)
	g.AddEdge(nodeEvaluate, nodeAssemble)
	g.AddEdge(nodeAssemble, nodeBeforeModel)
	g.AddEdge(nodeBeforeModel, nodeModel)
	g.AddEdge(nodeModel, nodeAfterModel)
	g.AddEdge(nodeAfterModel, nodeTool)
	g.AddEdge(nodeTool, nodeAfterAgent)

	return g
}

// TurnInput is the input to a single Invoke call: a user message entering
// thread ThreadID.
type TurnInput struct {
	ThreadID string
	UserText string
}

// Invoke runs one full turn: the Graph Engine drives the compiled graph
// from before_agent through after_agent (or an earlier exit via a
// fast-intent or hook-requested jump_to), returning the thread's resulting
// state.
func (r *Runtime) Invoke(ctx context.Context, in TurnInput) (*state.OverAllState, error) {
	if in.ThreadID == "" {
		return nil, apperr.New(apperr.InvalidInput, "agent: thread_id is required")
	}
	st := state.New(in.ThreadID)
	delta := state.NewDelta().
		Set(state.KeyInput, in.UserText).
		Set(state.KeyMessages, []state.Message{state.NewUserMessage(in.UserText)}).
		Set(keyRunID, uuid.NewString()).
		Set(keyToolIterations, 0)
	if err := st.Merge(delta); err != nil {
		return nil, err
	}
	return r.Resume(ctx, st)
}

// Resume drives an already-populated state (e.g. loaded from a
// CheckpointSaver, or handed off from a Trigger Scheduler firing on a
// fresh thread id under the re-entry rule) through the same graph.
func (r *Runtime) Resume(ctx context.Context, st *state.OverAllState) (*state.OverAllState, error) {
	cfg := graph.InvokeConfig{ThreadID: st.ThreadID, Saver: r.saver}
	return r.g.Invoke(ctx, st, cfg)
}

// Registry exposes the Runtime's Tool Dispatcher registry, e.g. so a
// CodeGen Sub-Agent's ToolCatalog can share the same registered tool set.
func (r *Runtime) Registry() *tools.Registry { return r.registry }

// Dispatcher exposes the Runtime's Tool Dispatcher, e.g. so a Trigger
// Scheduler can be constructed against the same dispatch path a live turn
// uses.
func (r *Runtime) Dispatcher() *tools.Dispatcher { return r.dispatcher }

func jumpDelta(jumpTo string) *state.Delta {
	if jumpTo == "" {
		return nil
	}
	return state.NewDelta().Set(state.KeyJumpTo, jumpTo)
}

func runIDFrom(st *state.OverAllState) string {
	if v, ok := st.Get(keyRunID); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func toolIterationsFrom(st *state.OverAllState) int {
	if v, ok := st.Get(keyToolIterations); ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

func pendingToolCallsFrom(st *state.OverAllState) []state.ToolCall {
	v, ok := st.Get(keyPendingToolCalls)
	if !ok {
		return nil
	}
	calls, _ := v.([]state.ToolCall)
	return calls
}

func evaluationResultFrom(st *state.OverAllState) *eval.EvaluationResult {
	v, ok := st.Get(keyEvaluationResult)
	if !ok {
		return nil
	}
	res, _ := v.(*eval.EvaluationResult)
	return res
}

// toolDefinitions projects the Tool Dispatcher's registered tools into the
// model-facing shape the Model Call Chain's request carries.
func toolDefinitions(ts []tools.Tool) []hooks.ToolDefinition {
	defs := make([]hooks.ToolDefinition, 0, len(ts))
	for _, t := range ts {
		defs = append(defs, hooks.ToolDefinition{
			Name: t.Name,
			Description: t.Description,
			InputSchema: t.ParameterTree,
		})
	}
	return defs
}

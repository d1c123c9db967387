package agent

import (
	"context"

	"github.com/google/uuid"

	"github.com/agentcore/runtime/experience"
	"github.com/agentcore/runtime/hooks"
	"github.com/agentcore/runtime/state"
	"github.com/agentcore/runtime/telemetry"
)

// fastIntentHook is the BEFORE_AGENT stateful hook that lets a
// high-confidence Experience short-circuit a turn: it queries the
// Experience Store for candidates, runs the Fast-Intent Matcher, and on a
// match either injects a recorded reply verbatim (jumping straight to END,
// so the turn makes no model call) or replays a recorded REACT plan
// (jumping straight to the tool node). The plan path skips only the model
// call that would have chosen those tools: once the plan's tool results
// are in, the tool node loops back to before_model_hooks and the model is
// called as in any other REACT iteration.
// Grounded on the same stateful-hook pattern as repository's learning
// trace hook: a custom hooks.Hook implementation holding repository/store
// handles, per hooks.Hook's own doc comment.
type fastIntentHook struct {
	phase hooks.Phase
	store experience.Store
	matcher *experience.FastIntentMatcher
	query experience.Query
	qctx experience.QueryContext
	logger telemetry.Logger
}

// NewFastIntentHook constructs the fast-intent bypass hook for phase.
// query scopes the candidate set pulled from store on every turn (e.g.
// Query{Scopes: experience.DefaultScopePriority()}); qctx carries the
// caller identity passed through to store.Query.
func NewFastIntentHook(phase hooks.Phase, store experience.Store, matcher *experience.FastIntentMatcher, query experience.Query, qctx experience.QueryContext, logger telemetry.Logger) hooks.Hook {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &fastIntentHook{phase: phase, store: store, matcher: matcher, query: query, qctx: qctx, logger: logger}
}

func (h *fastIntentHook) Position() hooks.Position { return hooks.BeforeAgent }
func (h *fastIntentHook) Phase() hooks.Phase { return h.phase }
func (h *fastIntentHook) Priority() int { return 0 }
func (h *fastIntentHook) Destinations() []hooks.JumpTarget {
	return []hooks.JumpTarget{hooks.JumpTool, hooks.JumpEnd}
}

func (h *fastIntentHook) Run(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
	userInput, _ := st.Get(state.KeyInput)
	text, _ := userInput.(string)

	candidates, err := h.store.Query(ctx, h.query, h.qctx)
	if err != nil {
		h.logger.Warn(ctx, "fast-intent candidate query failed; falling through to model", "error", err)
		return nil, nil
	}

	fictx := experience.FastIntentContext{UserInput: text, Messages: st.Messages(), State: st}
	exp, ok := h.matcher.Match(fictx, candidates)
	if !ok {
		return nil, nil
	}

	d := state.NewDelta()
	if exp.Artifact != nil && exp.Artifact.React != nil && len(exp.Artifact.React.Plan.ToolCalls) > 0 {
		toolCalls := make([]state.ToolCall, 0, len(exp.Artifact.React.Plan.ToolCalls))
		for _, planned := range exp.Artifact.React.Plan.ToolCalls {
			toolCalls = append(toolCalls, state.ToolCall{ID: uuid.NewString(), Name: planned.Name, Args: planned.Args})
		}
		d.Set(state.KeyMessages, []state.Message{state.NewAssistantMessage(exp.Artifact.React.AssistantText, toolCalls...)})
		d.Set(keyPendingToolCalls, toolCalls)
		d.Set(state.KeyJumpTo, string(hooks.JumpTool))
		return d, nil
	}

	reply := exp.Content
	if exp.Artifact != nil && exp.Artifact.React != nil && exp.Artifact.React.AssistantText != "" {
		reply = exp.Artifact.React.AssistantText
	}
	d.Set(state.KeyMessages, []state.Message{state.NewAssistantMessage(reply)})
	d.Set(state.KeyJumpTo, string(hooks.JumpEnd))
	return d, nil
}

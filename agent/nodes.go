package agent

import (
	"context"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/hooks"
	"github.com/agentcore/runtime/state"
	"github.com/agentcore/runtime/tools"
)

func (r *Runtime) nodeBeforeAgent(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
	jumpTo, err := r.pipeline.Run(ctx, hooks.BeforeAgent, r.phase, st)
	if err != nil {
		return nil, err
	}
	return jumpDelta(jumpTo), nil
}

// nodeEvaluate runs the Evaluation Engine over the turn's input context.
// A Runtime built without WithEvaluationSuite skips this entirely: the
// Evaluation Engine is an optional extension point, not every deployment
// needs guardrail/criterion scoring on every turn.
func (r *Runtime) nodeEvaluate(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
	if r.suite == nil {
		return nil, nil
	}
	input, _ := st.Get(state.KeyInput)
	inputContext := map[string]any{
		state.KeyInput: input,
		"messages": st.Messages(),
	}
	result, err := r.suite.Run(ctx, inputContext, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.ExternalFailure, "agent: evaluation suite run failed", err)
	}
	return state.NewDelta().Set(keyEvaluationResult, result), nil
}

func (r *Runtime) nodeAssemble(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
	if r.assembler == nil {
		return nil, nil
	}
	return r.assembler.Assemble(ctx, r.phase, evaluationResultFrom(st), st)
}

func (r *Runtime) nodeBeforeModel(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
	jumpTo, err := r.pipeline.Run(ctx, hooks.BeforeModel, r.phase, st)
	if err != nil {
		return nil, err
	}
	return jumpDelta(jumpTo), nil
}

// nodeModel performs the model call: it assembles a ModelRequest from the
// thread's current transcript and the Tool Dispatcher's registered tools,
// invokes the Model Call Chain, appends the assistant's reply, and stashes
// any requested tool calls for the tool node.
func (r *Runtime) nodeModel(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
	req := &hooks.ModelRequest{
		Messages: st.Messages(),
		Tools: toolDefinitions(r.registry.List()),
	}
	resp, err := r.model(ctx, req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ExternalFailure, "agent: model call failed", err)
	}

	toolCalls := resp.ToolCalls
	if len(toolCalls) == 0 {
		toolCalls = resp.Message.ToolCalls
	}

	d := state.NewDelta()
	d.Set(state.KeyMessages, []state.Message{resp.Message})
	d.Set(keyPendingToolCalls, toolCalls)
	return d, nil
}

func (r *Runtime) nodeAfterModel(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
	jumpTo, err := r.pipeline.Run(ctx, hooks.AfterModel, r.phase, st)
	if err != nil {
		return nil, err
	}
	return jumpDelta(jumpTo), nil
}

// nodeTool dispatches every pending tool call through the Tool Dispatcher,
// running a TOOL_INTERCEPT hook pass ahead of each call so a registered
// hook can veto the remaining calls (jump_to END) without aborting the
// whole pipeline's error path. While calls were dispatched and the loop
// guard has budget left, it jumps back to before_model_hooks to give the
// model another turn with the fresh tool results appended (spec's REACT
// loop); once the model stops requesting tools (or the guard trips) it
// falls through the default edge into after_agent_hooks.
func (r *Runtime) nodeTool(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
	calls := pendingToolCallsFrom(st)
	if len(calls) == 0 {
		return nil, nil
	}

	runID := runIDFrom(st)
	responses := make([]state.Message, 0, len(calls))

	for _, tc := range calls {
		jumpTo, err := r.pipeline.Run(ctx, hooks.ToolIntercept, r.phase, st)
		if err != nil {
			return nil, err
		}
		if jumpTo == string(hooks.JumpEnd) {
			d := state.NewDelta()
			d.Set(state.KeyMessages, responses)
			d.Set(keyPendingToolCalls, []state.ToolCall{})
			d.Set(state.KeyJumpTo, jumpTo)
			return d, nil
		}

		ec := &tools.ExecutionContext{Context: ctx, ThreadID: st.ThreadID, RunID: runID, Dispatcher: r.dispatcher}
		result, err := r.dispatcher.Invoke(ec, tc.Name, tc.Args)
		if err != nil {
			responses = append(responses, state.NewToolResponse(tc.ID, tc.Name, err.Error(), true))
			continue
		}
		responses = append(responses, state.NewToolResponse(tc.ID, tc.Name, result, false))
	}

	d := state.NewDelta()
	d.Set(state.KeyMessages, responses)
	d.Set(keyPendingToolCalls, []state.ToolCall{})

	iterations := toolIterationsFrom(st) + 1
	d.Set(keyToolIterations, iterations)
	if iterations < r.maxToolIterations {
		d.Set(state.KeyJumpTo, nodeBeforeModel)
	}
	return d, nil
}

func (r *Runtime) nodeAfterAgent(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
	jumpTo, err := r.pipeline.Run(ctx, hooks.AfterAgent, r.phase, st)
	if err != nil {
		return nil, err
	}
	return jumpDelta(jumpTo), nil
}

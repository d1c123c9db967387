package agent

import (
	"context"

	"github.com/agentcore/runtime/hooks"
	"github.com/agentcore/runtime/state"
	"github.com/agentcore/runtime/tools"
)

// echoModel is a deterministic hooks.ModelHandler for tests: it replies
// with a fixed text and, on its first call within a thread, optionally
// requests one tool call; subsequent calls (once the tool's ToolResponse
// is in the transcript) reply plainly so the REACT loop terminates.
func echoModel(reply string, firstCallToolCall *state.ToolCall) hooks.ModelHandler {
	return func(_ context.Context, req *hooks.ModelRequest) (*hooks.ModelResponse, error) {
		if firstCallToolCall != nil && !transcriptHasToolResponse(req.Messages, firstCallToolCall.ID) {
			msg := state.NewAssistantMessage(reply, *firstCallToolCall)
			return &hooks.ModelResponse{Message: msg, ToolCalls: []state.ToolCall{*firstCallToolCall}}, nil
		}
		return &hooks.ModelResponse{Message: state.NewAssistantMessage(reply)}, nil
	}
}

func transcriptHasToolResponse(messages []state.Message, toolCallID string) bool {
	for _, m := range messages {
		if m.Role == state.RoleToolResponse && m.ToolCallID == toolCallID {
			return true
		}
	}
	return false
}

func newTestRegistry(regs ...tools.Registration) *tools.Registry {
	reg := tools.NewRegistry()
	for _, r := range regs {
		if err := reg.Register(r); err != nil {
			panic(err)
		}
	}
	return reg
}

func echoToolHandler(name string) tools.Handler {
	return func(_ *tools.ExecutionContext, args map[string]any) (any, error) {
		return map[string]any{"tool": name, "args": args}, nil
	}
}

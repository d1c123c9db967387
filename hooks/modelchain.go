package hooks

import (
	"context"

	"github.com/agentcore/runtime/state"
)

// ToolDefinition describes a tool made visible to the model for a single
// call. It is intentionally a plain string-named projection of the tool
// registry's richer metadata, matching 
// model.ToolDefinition split between the model-facing definition and the
// dispatcher's own tools.Tool record, which it resolves by name or alias.
type ToolDefinition struct {
	Name string
	Description string
	InputSchema any
}

// ModelRequest is the input to a single model invocation, built by
// BEFORE_MODEL hooks appending to (never replacing) the transcript.
type ModelRequest struct {
	Messages []state.Message
	Tools []ToolDefinition
}

// ModelResponse is the result of a model invocation: the assistant message
// plus any tool calls it requested.
type ModelResponse struct {
	Message state.Message
	ToolCalls []state.ToolCall
}

// ModelHandler performs (or simulates) a single model invocation.
type ModelHandler func(ctx context.Context, req *ModelRequest) (*ModelResponse, error)

// ModelInterceptor wraps a ModelHandler to observe or substitute the
// request/response. Composition follows 
// `func(next model.Client) model.Client` decorator idiom
// (features/model/middleware), generalized from model.Client to the plain
// ModelHandler function type used here.
type ModelInterceptor func(next ModelHandler) ModelHandler

// ModelChain composes ModelInterceptors into a single ModelHandler.
type ModelChain struct {
	interceptors []ModelInterceptor
}

// NewModelChain constructs a ModelChain. Interceptors are applied in the
// order given: the first interceptor is outermost and sees the request
// before any other, and sees the response after every other has returned.
func NewModelChain(interceptors ...ModelInterceptor) *ModelChain {
	return &ModelChain{interceptors: interceptors}
}

// Then composes the chain around final, returning a single ModelHandler
// that runs every interceptor in order before reaching final.
func (c *ModelChain) Then(final ModelHandler) ModelHandler {
	h := final
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		h = c.interceptors[i](h)
	}
	return h
}

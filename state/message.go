// Package state defines the conversation state store shared by every node
// and hook in the agent execution core: the keyed, mergeable OverAllState
// and the Message tagged variant exchanged between the model and tools.
package state

// Role distinguishes the four Message variants. A Message is always exactly
// one of these; callers switch on Role before reading the variant-specific
// fields.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser Role = "user"
	RoleAssistant Role = "assistant"
	RoleToolResponse Role = "tool_response"
)

type (
	// Message is a tagged variant over the four conversation message kinds:
	// System, User, Assistant (with tool calls), and
	// ToolResponse. Only the fields relevant to Role are populated; callers
	// must switch on Role before reading Text/ToolCalls or
	// ToolCallID/Name/Payload.
	Message struct {
		Role Role

		// Text holds the message body for System, User, and Assistant
		// messages.
		Text string

		// ToolCalls holds the tool invocations requested by an Assistant
		// message. Empty for every other Role.
		ToolCalls []ToolCall

		// ToolCallID correlates a ToolResponse message back to the
		// ToolCall.ID that produced it (invariant I1: every ToolCall.ID
		// appears in exactly one Assistant message and exactly one
		// ToolResponse in a given thread).
		ToolCallID string

		// Name is the tool name for a ToolResponse message.
		Name string

		// Payload is the tool result (or tagged error payload, see apperr)
		// for a ToolResponse message.
		Payload any

		// IsError marks a ToolResponse payload as a tool failure the model
		// should see as an error string and may retry against.
		IsError bool
	}

	// ToolCall is a single tool invocation requested by an Assistant
	// message. ID must be unique within the thread.
	ToolCall struct {
		ID string
		Name string
		Args map[string]any
	}
)

// NewSystemMessage constructs a System message.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Text: text}
}

// NewUserMessage constructs a User message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// NewAssistantMessage constructs an Assistant message, optionally carrying
// tool calls.
func NewAssistantMessage(text string, toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Text: text, ToolCalls: toolCalls}
}

// NewToolResponse constructs a ToolResponse message correlated to toolCallID.
func NewToolResponse(toolCallID, name string, payload any, isError bool) Message {
	return Message{
		Role: RoleToolResponse,
		ToolCallID: toolCallID,
		Name: name,
		Payload: payload,
		IsError: isError,
	}
}

package tools

import (
	"context"

	"github.com/agentcore/runtime/apperr"
)

// CodeGenerator is the CodeGen Sub-Agent SPI the write_code/
// write_condition_code built-ins delegate to. Defined
// here, not imported from the codegen package, so tools never depends
// on codegen — codegen.SubAgent satisfies this interface structurally.
type CodeGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// GenerationRequest is the write_code / write_condition_code payload
// forwarded to a CodeGenerator.
type GenerationRequest struct {
	ThreadID string
	FunctionName string
	Requirement string
	Parameters []string
	// Conditional selects the condition-code-generator preset: the
	// generated function must return a boolean.
	Conditional bool
}

// GeneratedFunctionStore holds the source generated for each function
// name within a conversation, so a later execute_code call for the
// same thread can find it.
type GeneratedFunctionStore interface {
	Put(threadID, functionName, source string)
	Get(threadID, functionName string) (string, bool)
}

// inmemFunctionStore is the default in-process GeneratedFunctionStore.
type inmemFunctionStore struct {
	byThread map[string]map[string]string
}

// NewInMemoryFunctionStore constructs a GeneratedFunctionStore backed by
// a plain map, suitable for a single-process deployment or tests.
func NewInMemoryFunctionStore() GeneratedFunctionStore {
	return &inmemFunctionStore{byThread: map[string]map[string]string{}}
}

func (s *inmemFunctionStore) Put(threadID, functionName, source string) {
	fns, ok := s.byThread[threadID]
	if !ok {
		fns = map[string]string{}
		s.byThread[threadID] = fns
	}
	fns[functionName] = source
}

func (s *inmemFunctionStore) Get(threadID, functionName string) (string, bool) {
	fns, ok := s.byThread[threadID]
	if !ok {
		return "", false
	}
	src, ok := fns[functionName]
	return src, ok
}

// SearchRequest is the payload forwarded to a SearchProvider by the
// search built-in.
type SearchRequest struct {
	Query string
	TopK int
}

// SearchResult is a single hit returned by a SearchProvider.
type SearchResult struct {
	Title string
	Snippet string
	URL string
}

// SearchProvider is the search SPI named in 
// ("SearchProvider.search(request)").
type SearchProvider interface {
	Search(ctx context.Context, req SearchRequest) ([]SearchResult, error)
}

// ReplyPayload is the message the reply built-in hands to a
// ReplyChannel.
type ReplyPayload struct {
	ThreadID string
	Text string
}

// ReplyChannel is the reply SPI named in 
// ("ReplyChannel.send(payload)").
type ReplyChannel interface {
	Send(ctx context.Context, payload ReplyPayload) error
}

// NotificationPayload is the message the notification built-in hands to
// a Notifier.
type NotificationPayload struct {
	ThreadID string
	Message string
}

// Notifier is the thin SPI the notification built-in adapts ("search,
// reply, notification, subscribe_trigger are thin
// adapters over their respective SPIs").
type Notifier interface {
	Notify(ctx context.Context, payload NotificationPayload) error
}

// SubscribeTriggerRequest is the subscribe_trigger built-in's payload.
type SubscribeTriggerRequest struct {
	ThreadID string
	Name string
	Mode string
	Schedule string
	ActionTool string
	ActionArgs map[string]any
	ConditionFn string
}

// TriggerRegistrar is the thin SPI the subscribe_trigger built-in
// adapts over (backed by trigger.Scheduler at wiring time). Defined
// here rather than imported from the trigger package to avoid a tools
// <-> trigger import cycle (trigger fires actions back through the
// Dispatcher).
type TriggerRegistrar interface {
	Subscribe(ctx context.Context, req SubscribeTriggerRequest) (triggerID string, err error)
}

// NewWriteCodeHandler builds the write_code built-in: it forwards
// {requirement, function_name, parameters[]} to gen, stores the
// resulting source under the calling thread's generated-functions list,
// and returns {function_name, source}.
func NewWriteCodeHandler(gen CodeGenerator, store GeneratedFunctionStore) Handler {
	return newCodeWritingHandler(gen, store, false)
}

// NewWriteConditionCodeHandler builds the write_condition_code
// built-in, the condition-returning variant of write_code.
func NewWriteConditionCodeHandler(gen CodeGenerator, store GeneratedFunctionStore) Handler {
	return newCodeWritingHandler(gen, store, true)
}

func newCodeWritingHandler(gen CodeGenerator, store GeneratedFunctionStore, conditional bool) Handler {
	return func(ec *ExecutionContext, args map[string]any) (any, error) {
		req, err := parseGenerationRequest(args, conditional)
		if err != nil {
			return nil, err
		}
		req.ThreadID = ec.ThreadID
		source, err := gen.Generate(ec.Context, req)
		if err != nil {
			return nil, apperr.Wrap(apperr.ExternalFailure, "tools: code generation failed", err)
		}
		store.Put(ec.ThreadID, req.FunctionName, source)
		return map[string]any{
			"function_name": req.FunctionName,
			"source": source,
		}, nil
	}
}

func parseGenerationRequest(args map[string]any, conditional bool) (GenerationRequest, error) {
	functionName, _ := args["function_name"].(string)
	if functionName == "" {
		return GenerationRequest{}, apperr.New(apperr.InvalidInput, "tools: function_name is required")
	}
	requirement, _ := args["requirement"].(string)
	var params []string
	if raw, ok := args["parameters"].([]any); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				params = append(params, s)
			}
		}
	}
	return GenerationRequest{
		FunctionName: functionName,
		Requirement: requirement,
		Parameters: params,
		Conditional: conditional,
	}, nil
}

// NewExecuteCodeHandler builds the execute_code built-in: it looks up
// the source previously registered under function_name for the calling
// thread and submits it to sandbox, bounded by limits.
func NewExecuteCodeHandler(store GeneratedFunctionStore, sandbox Sandbox, limits Limits) Handler {
	return func(ec *ExecutionContext, args map[string]any) (any, error) {
		functionName, _ := args["function_name"].(string)
		if functionName == "" {
			return nil, apperr.New(apperr.InvalidInput, "tools: function_name is required")
		}
		callArgs, _ := args["args"].(map[string]any)

		source, ok := store.Get(ec.ThreadID, functionName)
		if !ok {
			return nil, apperr.Errorf(apperr.NotFound, "tools: no generated function %q registered for this conversation", functionName)
		}
		return sandbox.Execute(ec.Context, source, functionName, callArgs, limits)
	}
}

// NewSearchHandler builds the search built-in, a thin adapter over a
// SearchProvider.
func NewSearchHandler(provider SearchProvider) Handler {
	return func(ec *ExecutionContext, args map[string]any) (any, error) {
		query, _ := args["query"].(string)
		topK := 0
		if v, ok := args["top_k"].(float64); ok {
			topK = int(v)
		}
		results, err := provider.Search(ec.Context, SearchRequest{Query: query, TopK: topK})
		if err != nil {
			return nil, apperr.Wrap(apperr.ExternalFailure, "tools: search failed", err)
		}
		return results, nil
	}
}

// NewReplyHandler builds the reply built-in, a thin adapter over a
// ReplyChannel.
func NewReplyHandler(channel ReplyChannel) Handler {
	return func(ec *ExecutionContext, args map[string]any) (any, error) {
		text, _ := args["text"].(string)
		if err := channel.Send(ec.Context, ReplyPayload{ThreadID: ec.ThreadID, Text: text}); err != nil {
			return nil, apperr.Wrap(apperr.ExternalFailure, "tools: reply failed", err)
		}
		return map[string]any{"sent": true}, nil
	}
}

// NewNotificationHandler builds the notification built-in, a thin
// adapter over a Notifier.
func NewNotificationHandler(notifier Notifier) Handler {
	return func(ec *ExecutionContext, args map[string]any) (any, error) {
		message, _ := args["message"].(string)
		if err := notifier.Notify(ec.Context, NotificationPayload{ThreadID: ec.ThreadID, Message: message}); err != nil {
			return nil, apperr.Wrap(apperr.ExternalFailure, "tools: notification failed", err)
		}
		return map[string]any{"sent": true}, nil
	}
}

// NewSubscribeTriggerHandler builds the subscribe_trigger built-in, a
// thin adapter over a TriggerRegistrar.
func NewSubscribeTriggerHandler(registrar TriggerRegistrar) Handler {
	return func(ec *ExecutionContext, args map[string]any) (any, error) {
		name, _ := args["name"].(string)
		mode, _ := args["mode"].(string)
		schedule, _ := args["schedule"].(string)
		actionTool, _ := args["action_tool"].(string)
		actionArgs, _ := args["action_args"].(map[string]any)
		conditionFn, _ := args["condition_fn"].(string)

		id, err := registrar.Subscribe(ec.Context, SubscribeTriggerRequest{
			ThreadID: ec.ThreadID,
			Name: name,
			Mode: mode,
			Schedule: schedule,
			ActionTool: actionTool,
			ActionArgs: actionArgs,
			ConditionFn: conditionFn,
		})
		if err != nil {
			return nil, apperr.Wrap(apperr.ExternalFailure, "tools: subscribe_trigger failed", err)
		}
		return map[string]any{"trigger_id": id}, nil
	}
}

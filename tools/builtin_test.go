package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/apperr"
)

type fakeCodeGenerator struct {
	lastReq GenerationRequest
	source string
	err error
}

func (g *fakeCodeGenerator) Generate(_ context.Context, req GenerationRequest) (string, error) {
	g.lastReq = req
	if g.err != nil {
		return "", g.err
	}
	return g.source, nil
}

func TestWriteCodeHandlerStoresGeneratedSourceUnderThread(t *testing.T) {
	gen := &fakeCodeGenerator{source: "def calc_xm(base, exponent):\n return base ** exponent\n"}
	store := NewInMemoryFunctionStore()
	handler := NewWriteCodeHandler(gen, store)

	ec := &ExecutionContext{Context: context.Background(), ThreadID: "thread-1"}
	result, err := handler(ec, map[string]any{
		"requirement": "computes the xm coefficient",
		"function_name": "calc_xm",
		"parameters": []any{"base", "exponent"},
	})
	require.NoError(t, err)
	assert.Equal(t, "calc_xm", result.(map[string]any)["function_name"])
	assert.False(t, gen.lastReq.Conditional)

	src, ok := store.Get("thread-1", "calc_xm")
	require.True(t, ok)
	assert.Equal(t, gen.source, src)
}

func TestWriteConditionCodeHandlerSetsConditionalFlag(t *testing.T) {
	gen := &fakeCodeGenerator{source: "def is_ready():\n return True\n"}
	handler := NewWriteConditionCodeHandler(gen, NewInMemoryFunctionStore())

	ec := &ExecutionContext{Context: context.Background(), ThreadID: "thread-1"}
	_, err := handler(ec, map[string]any{"function_name": "is_ready"})
	require.NoError(t, err)
	assert.True(t, gen.lastReq.Conditional)
}

func TestWriteCodeHandlerRequiresFunctionName(t *testing.T) {
	handler := NewWriteCodeHandler(&fakeCodeGenerator{}, NewInMemoryFunctionStore())
	ec := &ExecutionContext{Context: context.Background(), ThreadID: "thread-1"}
	_, err := handler(ec, map[string]any{})
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
}

type fakeSandbox struct {
	gotSource, gotFunction string
	gotArgs map[string]any
	result any
	err error
}

func (s *fakeSandbox) Execute(_ context.Context, source, functionName string, args map[string]any, _ Limits) (any, error) {
	s.gotSource, s.gotFunction, s.gotArgs = source, functionName, args
	return s.result, s.err
}

func TestExecuteCodeHandlerSubmitsRegisteredSourceToSandbox(t *testing.T) {
	store := NewInMemoryFunctionStore()
	store.Put("thread-1", "calc_xm", "def calc_xm(base, exponent):\n return base ** exponent\n")
	sandbox := &fakeSandbox{result: 8.0}
	handler := NewExecuteCodeHandler(store, sandbox, Limits{})

	ec := &ExecutionContext{Context: context.Background(), ThreadID: "thread-1"}
	result, err := handler(ec, map[string]any{
		"function_name": "calc_xm",
		"args": map[string]any{"base": 2.0, "exponent": 3.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 8.0, result)
	assert.Equal(t, "calc_xm", sandbox.gotFunction)
}

func TestExecuteCodeHandlerUnknownFunctionReturnsNotFound(t *testing.T) {
	handler := NewExecuteCodeHandler(NewInMemoryFunctionStore(), &fakeSandbox{}, Limits{})
	ec := &ExecutionContext{Context: context.Background(), ThreadID: "thread-1"}
	_, err := handler(ec, map[string]any{"function_name": "missing"})
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

type fakeSearchProvider struct {
	req SearchRequest
	results []SearchResult
	err error
}

func (p *fakeSearchProvider) Search(_ context.Context, req SearchRequest) ([]SearchResult, error) {
	p.req = req
	return p.results, p.err
}

func TestSearchHandlerAdaptsToSearchProvider(t *testing.T) {
	provider := &fakeSearchProvider{results: []SearchResult{{Title: "hit"}}}
	handler := NewSearchHandler(provider)

	ec := &ExecutionContext{Context: context.Background()}
	result, err := handler(ec, map[string]any{"query": "deploy", "top_k": 5.0})
	require.NoError(t, err)
	assert.Equal(t, "deploy", provider.req.Query)
	assert.Equal(t, 5, provider.req.TopK)
	assert.Len(t, result.([]SearchResult), 1)
}

type fakeReplyChannel struct {
	payload ReplyPayload
	err error
}

func (c *fakeReplyChannel) Send(_ context.Context, payload ReplyPayload) error {
	c.payload = payload
	return c.err
}

func TestReplyHandlerSendsOnChannel(t *testing.T) {
	channel := &fakeReplyChannel{}
	handler := NewReplyHandler(channel)

	ec := &ExecutionContext{Context: context.Background(), ThreadID: "thread-9"}
	_, err := handler(ec, map[string]any{"text": "done"})
	require.NoError(t, err)
	assert.Equal(t, "thread-9", channel.payload.ThreadID)
	assert.Equal(t, "done", channel.payload.Text)
}

func TestReplyHandlerPropagatesChannelError(t *testing.T) {
	channel := &fakeReplyChannel{err: errors.New("channel down")}
	handler := NewReplyHandler(channel)
	ec := &ExecutionContext{Context: context.Background()}
	_, err := handler(ec, map[string]any{"text": "done"})
	require.Error(t, err)
	assert.Equal(t, apperr.ExternalFailure, apperr.KindOf(err))
}

type fakeTriggerRegistrar struct {
	req SubscribeTriggerRequest
	id string
}

func (r *fakeTriggerRegistrar) Subscribe(_ context.Context, req SubscribeTriggerRequest) (string, error) {
	r.req = req
	return r.id, nil
}

func TestSubscribeTriggerHandlerAdaptsToRegistrar(t *testing.T) {
	registrar := &fakeTriggerRegistrar{id: "trig-1"}
	handler := NewSubscribeTriggerHandler(registrar)

	ec := &ExecutionContext{Context: context.Background(), ThreadID: "thread-1"}
	result, err := handler(ec, map[string]any{
		"name": "daily-report",
		"mode": "CRON",
		"schedule": "0 9 * * *",
		"action_tool": "reply",
	})
	require.NoError(t, err)
	assert.Equal(t, "trig-1", result.(map[string]any)["trigger_id"])
	assert.Equal(t, "thread-1", registrar.req.ThreadID)
	assert.Equal(t, "daily-report", registrar.req.Name)
}

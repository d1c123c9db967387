package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/apperr"
)

type recordingObserver struct {
	calls []struct {
		tool string
		value any
	}
}

func (o *recordingObserver) Observe(tool string, value any) {
	o.calls = append(o.calls, struct {
		tool string
		value any
	}{tool, value})
}

func newExecutionContext(d *Dispatcher) *ExecutionContext {
	return &ExecutionContext{Context: context.Background(), ThreadID: "t1", Dispatcher: d}
}

func TestDispatcherInvokeSuccessFeedsSchemaObserver(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Registration{
		Tool: Tool{
			Name: "add",
			ParameterTree: []Parameter{
				{Name: "a", Required: true, Shape: Shape{Kind: KindPrimitive, Primitive: PrimitiveNumber}},
				{Name: "b", Required: true, Shape: Shape{Kind: KindPrimitive, Primitive: PrimitiveNumber}},
			},
		},
		Handler: func(ec *ExecutionContext, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	}))

	obs := &recordingObserver{}
	d := NewDispatcher(reg, WithSchemaObserver(obs))

	result, err := d.Invoke(newExecutionContext(d), "add", map[string]any{"a": 1.0, "b": 2.0})
	require.NoError(t, err)
	assert.Equal(t, 3.0, result)
	require.Len(t, obs.calls, 1)
	assert.Equal(t, "add", obs.calls[0].tool)
}

func TestDispatcherInvokeUnknownToolReturnsNotFound(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	_, err := d.Invoke(newExecutionContext(d), "missing", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestDispatcherInvokeValidationFailureNeverCallsHandler(t *testing.T) {
	reg := NewRegistry()
	called := false
	require.NoError(t, reg.Register(Registration{
		Tool: Tool{
			Name: "strict",
			ParameterTree: []Parameter{
				{Name: "n", Required: true, Shape: Shape{Kind: KindPrimitive, Primitive: PrimitiveNumber}},
			},
		},
		Handler: func(*ExecutionContext, map[string]any) (any, error) {
			called = true
			return nil, nil
		},
	}))

	d := NewDispatcher(reg)
	_, err := d.Invoke(newExecutionContext(d), "strict", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
	assert.False(t, called)
}

func TestDispatcherInvokeHandlerErrorIsWrapped(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Registration{
		Tool: Tool{Name: "fails"},
		Handler: func(*ExecutionContext, map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	}))

	d := NewDispatcher(reg)
	_, err := d.Invoke(newExecutionContext(d), "fails", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestDispatcherInvokePropagatesThreadIDToHandler(t *testing.T) {
	reg := NewRegistry()
	var seenThread string
	require.NoError(t, reg.Register(Registration{
		Tool: Tool{Name: "whoami"},
		Handler: func(ec *ExecutionContext, _ map[string]any) (any, error) {
			seenThread = ec.ThreadID
			return nil, nil
		},
	}))

	d := NewDispatcher(reg)
	ec := newExecutionContext(d)
	ec.ThreadID = "thread-42"
	_, err := d.Invoke(ec, "whoami", nil)
	require.NoError(t, err)
	assert.Equal(t, "thread-42", seenThread)
}

func TestDispatcherRateLimitBlocksUntilContextCancelled(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Registration{
		Tool: Tool{Name: "slow_allowance"},
		Handler: func(*ExecutionContext, map[string]any) (any, error) {
			return "ok", nil
		},
	}))

	// burst of 1 means the second call within the same instant has to
	// wait for the next token; a near-zero rate never produces one.
	d := NewDispatcher(reg, WithRateLimit(0.0001, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ec := &ExecutionContext{Context: ctx, ThreadID: "t1", Dispatcher: d}

	_, err := d.Invoke(ec, "slow_allowance", nil)
	require.NoError(t, err)

	_, err = d.Invoke(ec, "slow_allowance", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.Cancelled, apperr.KindOf(err))
}

func TestDispatcherRateLimitDisabledByNonPositiveRate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Registration{
		Tool: Tool{Name: "unbounded"},
		Handler: func(*ExecutionContext, map[string]any) (any, error) {
			return "ok", nil
		},
	}))

	d := NewDispatcher(reg, WithRateLimit(0, 1))
	ec := newExecutionContext(d)
	for i := 0; i < 5; i++ {
		_, err := d.Invoke(ec, "unbounded", nil)
		require.NoError(t, err)
	}
}

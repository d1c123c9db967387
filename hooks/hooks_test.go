package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/state"
)

func TestRegisterRejectsUnknownDestination(t *testing.T) {
	p := NewPipeline()
	h := NewFuncHook(BeforeModel, React, 0, []JumpTarget{"bogus"}, func(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
		return state.NewDelta(), nil
	})
	err := p.Register(h)
	assert.Error(t, err)
}

func TestRunOrdersByPriority(t *testing.T) {
	p := NewPipeline()
	var order []string
	record := func(name string, priority int) *FuncHook {
		return NewFuncHook(BeforeModel, React, priority, nil, func(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
			order = append(order, name)
			return state.NewDelta(), nil
		})
	}
	require.NoError(t, p.Register(record("second", 10)))
	require.NoError(t, p.Register(record("first", 1)))

	st := state.New("t1")
	_, err := p.Run(context.Background(), BeforeModel, React, st)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRunSkipsOtherPhases(t *testing.T) {
	p := NewPipeline()
	ran := false
	h := NewFuncHook(BeforeModel, CodeAct, 0, nil, func(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
		ran = true
		return state.NewDelta(), nil
	})
	require.NoError(t, p.Register(h))

	st := state.New("t1")
	_, err := p.Run(context.Background(), BeforeModel, React, st)
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestRunRejectsUndeclaredJumpTo(t *testing.T) {
	p := NewPipeline()
	h := NewFuncHook(AfterModel, React, 0, []JumpTarget{JumpModel}, func(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
		return state.NewDelta().Set(state.KeyJumpTo, string(JumpTool)), nil
	})
	require.NoError(t, p.Register(h))

	st := state.New("t1")
	_, err := p.Run(context.Background(), AfterModel, React, st)
	assert.Error(t, err)
}

func TestRunReturnsDeclaredJumpTo(t *testing.T) {
	p := NewPipeline()
	h := NewFuncHook(AfterModel, React, 0, []JumpTarget{JumpTool}, func(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
		return state.NewDelta().Set(state.KeyJumpTo, string(JumpTool)), nil
	})
	require.NoError(t, p.Register(h))

	st := state.New("t1")
	jumpTo, err := p.Run(context.Background(), AfterModel, React, st)
	require.NoError(t, err)
	assert.Equal(t, string(JumpTool), jumpTo)
}

func TestRunFailsFastOnFirstError(t *testing.T) {
	p := NewPipeline()
	var ranSecond bool
	require.NoError(t, p.Register(NewFuncHook(BeforeModel, React, 0, nil, func(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
		return nil, assert.AnError
	})))
	require.NoError(t, p.Register(NewFuncHook(BeforeModel, React, 1, nil, func(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
		ranSecond = true
		return state.NewDelta(), nil
	})))

	st := state.New("t1")
	_, err := p.Run(context.Background(), BeforeModel, React, st)
	assert.Error(t, err)
	assert.False(t, ranSecond)
}

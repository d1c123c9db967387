package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/eval"
	"github.com/agentcore/runtime/hooks"
	"github.com/agentcore/runtime/state"
)

func systemTextContributor(sentinel, text string, priority int) *FuncContributor {
	return NewFuncContributor(hooks.React, priority, sentinel, nil,
		func(ctx context.Context, result *eval.EvaluationResult, st *state.OverAllState) (Contribution, error) {
			return Contribution{SystemTextToAppend: text}, nil
		})
}

func TestAssembleAppendsSystemTextWithBlankLineSeparator(t *testing.T) {
	a := NewAssembler()
	require.NoError(t, a.Register(systemTextContributor("first", "be concise", 0)))
	require.NoError(t, a.Register(systemTextContributor("second", "cite sources", 1)))

	st := state.New("t1")
	require.NoError(t, st.Merge(state.NewDelta().Set(state.KeyMessages, []state.Message{state.NewSystemMessage("base instructions")})))

	delta, err := a.Assemble(context.Background(), hooks.React, nil, st)
	require.NoError(t, err)
	require.NoError(t, st.Merge(delta))

	msgs := st.Messages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "base instructions\n\nbe concise\n\ncite sources", msgs[0].Text)
}

func TestAssembleCreatesSystemMessageWhenNoneExists(t *testing.T) {
	a := NewAssembler()
	require.NoError(t, a.Register(systemTextContributor("only", "hello", 0)))

	st := state.New("t1")
	delta, err := a.Assemble(context.Background(), hooks.React, nil, st)
	require.NoError(t, err)
	require.NoError(t, st.Merge(delta))

	msgs := st.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, state.RoleSystem, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Text)
}

func TestAssembleInjectsMessagePairWithSentinel(t *testing.T) {
	a := NewAssembler()
	c := NewFuncContributor(hooks.React, 0, "recall", nil,
		func(ctx context.Context, result *eval.EvaluationResult, st *state.OverAllState) (Contribution, error) {
			return Contribution{MessageText: "relevant experience: X"}, nil
		})
	require.NoError(t, a.Register(c))

	st := state.New("t1")
	delta, err := a.Assemble(context.Background(), hooks.React, nil, st)
	require.NoError(t, err)
	require.NoError(t, st.Merge(delta))

	msgs := st.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, state.RoleAssistant, msgs[0].Role)
	assert.Equal(t, state.RoleToolResponse, msgs[1].Role)
	assert.Equal(t, "recall", msgs[1].Name)
	assert.Equal(t, "relevant experience: X", msgs[1].Payload)
}

func TestAssembleIsIdempotentWhenSentinelAlreadyPresent(t *testing.T) {
	a := NewAssembler()
	ran := false
	c := NewFuncContributor(hooks.React, 0, "recall", nil,
		func(ctx context.Context, result *eval.EvaluationResult, st *state.OverAllState) (Contribution, error) {
			ran = true
			return Contribution{MessageText: "should not run twice"}, nil
		})
	require.NoError(t, a.Register(c))

	st := state.New("t1")
	require.NoError(t, st.Merge(state.NewDelta().Set(state.KeyMessages, []state.Message{
		state.NewToolResponse("prior-id", "recall", "already injected", false),
	})))

	delta, err := a.Assemble(context.Background(), hooks.React, nil, st)
	require.NoError(t, err)
	require.NoError(t, st.Merge(delta))

	assert.False(t, ran)
	assert.Len(t, st.Messages(), 1)
}

func TestAssembleSkipsWhenGuardDeclines(t *testing.T) {
	a := NewAssembler()
	c := NewFuncContributor(hooks.React, 0, "guarded", func(result *eval.EvaluationResult, st *state.OverAllState) bool {
		return false
	}, func(ctx context.Context, result *eval.EvaluationResult, st *state.OverAllState) (Contribution, error) {
		t.Fatal("should not be called when guard declines")
		return Contribution{}, nil
	})
	require.NoError(t, a.Register(c))

	st := state.New("t1")
	_, err := a.Assemble(context.Background(), hooks.React, nil, st)
	require.NoError(t, err)
}

func TestAssembleSkipsOtherPhases(t *testing.T) {
	a := NewAssembler()
	ran := false
	c := NewFuncContributor(hooks.CodeAct, 0, "codeact-only", nil,
		func(ctx context.Context, result *eval.EvaluationResult, st *state.OverAllState) (Contribution, error) {
			ran = true
			return Contribution{}, nil
		})
	require.NoError(t, a.Register(c))

	st := state.New("t1")
	_, err := a.Assemble(context.Background(), hooks.React, nil, st)
	require.NoError(t, err)
	assert.False(t, ran)
}

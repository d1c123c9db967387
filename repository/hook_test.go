package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/hooks"
	"github.com/agentcore/runtime/state"
)

type fakeExtractor struct {
	rec LearningRecord
	ok bool
	err error
}

func (f fakeExtractor) Extract(context.Context, LearningContext) (LearningRecord, bool, error) {
	return f.rec, f.ok, f.err
}

type fakeLearningRepo struct {
	persisted []LearningRecord
	err error
}

func (f *fakeLearningRepo) Persist(_ context.Context, rec LearningRecord) error {
	if f.err != nil {
		return f.err
	}
	f.persisted = append(f.persisted, rec)
	return nil
}

func stateWithAssistantMessage(threadID string, msg state.Message) *state.OverAllState {
	st := state.New(threadID)
	delta := state.NewDelta().Set(state.KeyMessages, []state.Message{msg})
	_ = st.Merge(delta)
	return st
}

func TestLearningHookPersistsWhenExtractorFindsSomething(t *testing.T) {
	repo := &fakeLearningRepo{}
	h := NewLearningTraceHook(hooks.React, 10, fakeExtractor{
		rec: LearningRecord{Summary: "did a thing"},
		ok: true,
	}, repo, nil)

	st := stateWithAssistantMessage("t1", state.NewAssistantMessage("ok", state.ToolCall{ID: "c1", Name: "search"}))
	delta, err := h.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Nil(t, delta)

	require.Len(t, repo.persisted, 1)
	assert.Equal(t, "did a thing", repo.persisted[0].Summary)
	assert.Equal(t, "t1", repo.persisted[0].ThreadID)
	assert.NotEmpty(t, repo.persisted[0].ID)
	assert.False(t, repo.persisted[0].CreatedAt.IsZero())
}

func TestLearningHookSkipsPersistWhenExtractorDeclines(t *testing.T) {
	repo := &fakeLearningRepo{}
	h := NewLearningTraceHook(hooks.React, 10, fakeExtractor{ok: false}, repo, nil)

	st := stateWithAssistantMessage("t1", state.NewAssistantMessage("just chat"))
	_, err := h.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Empty(t, repo.persisted)
}

func TestLearningHookIgnoresExtractorErrorWithoutFailingTurn(t *testing.T) {
	repo := &fakeLearningRepo{}
	h := NewLearningTraceHook(hooks.React, 10, fakeExtractor{err: errors.New("boom")}, repo, nil)

	st := stateWithAssistantMessage("t1", state.NewAssistantMessage("ok"))
	_, err := h.Run(context.Background(), st)
	assert.NoError(t, err)
	assert.Empty(t, repo.persisted)
}

func TestLearningHookIgnoresRepositoryErrorWithoutFailingTurn(t *testing.T) {
	repo := &fakeLearningRepo{err: errors.New("persist failed")}
	h := NewLearningTraceHook(hooks.React, 10, fakeExtractor{rec: LearningRecord{Summary: "x"}, ok: true}, repo, nil)

	st := stateWithAssistantMessage("t1", state.NewAssistantMessage("ok"))
	_, err := h.Run(context.Background(), st)
	assert.NoError(t, err)
}

func TestLearningHookNoOpWhenNoAssistantMessageYet(t *testing.T) {
	repo := &fakeLearningRepo{}
	h := NewLearningTraceHook(hooks.React, 10, fakeExtractor{ok: true, rec: LearningRecord{Summary: "x"}}, repo, nil)

	st := state.New("t1")
	_, err := h.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Empty(t, repo.persisted)
}

func TestLearningHookDeclaresNoJumpDestinations(t *testing.T) {
	h := NewLearningTraceHook(hooks.React, 10, fakeExtractor{}, &fakeLearningRepo{}, nil)
	assert.Equal(t, hooks.AfterModel, h.Position())
	assert.Equal(t, hooks.React, h.Phase())
	assert.Empty(t, h.Destinations())
}

func TestLearningHookRegistersOnPipeline(t *testing.T) {
	p := hooks.NewPipeline()
	h := NewLearningTraceHook(hooks.CodeAct, 5, fakeExtractor{ok: true, rec: LearningRecord{Summary: "x"}}, &fakeLearningRepo{}, nil)
	require.NoError(t, p.Register(h))

	st := stateWithAssistantMessage("t1", state.NewAssistantMessage("ok"))
	jumpTo, err := p.Run(context.Background(), hooks.AfterModel, hooks.CodeAct, st)
	require.NoError(t, err)
	assert.Empty(t, jumpTo)
}

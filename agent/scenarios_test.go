package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/codegen"
	"github.com/agentcore/runtime/eval"
	"github.com/agentcore/runtime/experience"
	"github.com/agentcore/runtime/experience/inmem"
	"github.com/agentcore/runtime/hooks"
	"github.com/agentcore/runtime/state"
	"github.com/agentcore/runtime/tools"
	"github.com/agentcore/runtime/trigger"
	trigmem "github.com/agentcore/runtime/trigger/inmem"
)

func panicModel(context.Context, *hooks.ModelRequest) (*hooks.ModelResponse, error) {
	panic("model should not have been called for this scenario")
}

// Scenario 1: a fast-intent match bypasses the model entirely and answers
// straight from a recorded Experience.
func TestScenarioQueryIntentBypassesModel(t *testing.T) {
	store := inmem.New()
	exp, err := store.Create(context.Background(), experience.Experience{
		Type: experience.Common,
		Scope: experience.ScopeGlobal,
		Content: "the answer is 42",
		FastIntent: &experience.FastIntentConfig{
			Enabled: true,
			Priority: 10,
			MatchExpression: experience.MatchExpression{
				Type: experience.ConditionMessagePrefix,
				Value: "what is the answer",
			},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, exp.ID)

	pipeline := hooks.NewPipeline()
	require.NoError(t, pipeline.Register(NewFastIntentHook(
		hooks.React, store, experience.NewFastIntentMatcher(), experience.Query{}, experience.QueryContext{}, nil,
	)))

	registry := newTestRegistry()
	dispatcher := tools.NewDispatcher(registry)
	rt, err := NewRuntime(hooks.React, registry, dispatcher, pipeline, hooks.ModelHandler(panicModel))
	require.NoError(t, err)

	final, err := rt.Invoke(context.Background(), TurnInput{ThreadID: "t1", UserText: "what is the answer to everything?"})
	require.NoError(t, err)

	messages := final.Messages()
	require.NotEmpty(t, messages)
	last := messages[len(messages)-1]
	assert.Equal(t, state.RoleAssistant, last.Role)
	assert.Equal(t, "the answer is 42", last.Text)
}

// Scenario 2: criteria compile into dependency levels and a dependent
// criterion sees its dependency's resolved value.
func TestScenarioCriterionDAGLevels(t *testing.T) {
	evaluators := eval.NewEvaluatorRegistry()
	evaluators.Register("base", eval.RuleBasedFunc(func(_ context.Context, ec eval.CriterionExecutionContext) (eval.CriterionResult, error) {
		return eval.CriterionResult{Status: eval.Success, Value: true}, nil
	}))
	evaluators.Register("derived", eval.RuleBasedFunc(func(_ context.Context, ec eval.CriterionExecutionContext) (eval.CriterionResult, error) {
		base, ok := ec.DependencyResults["base"]
		if !ok || base.Value != true {
			return eval.CriterionResult{Status: eval.Error, Reason: "base not satisfied"}, nil
		}
		return eval.CriterionResult{Status: eval.Success, Value: "derived-ok"}, nil
	}))
	suite := eval.NewSuite(eval.WithEvaluators(evaluators))
	suite.AddCriterion(eval.Criterion{Name: "base", EvaluatorRef: "base"})
	suite.AddCriterion(eval.Criterion{Name: "derived", EvaluatorRef: "derived", DependsOn: []string{"base"}})

	pipeline := hooks.NewPipeline()
	registry := newTestRegistry()
	dispatcher := tools.NewDispatcher(registry)
	rt, err := NewRuntime(hooks.React, registry, dispatcher, pipeline, echoModel("ok", nil), WithEvaluationSuite(suite))
	require.NoError(t, err)

	final, err := rt.Invoke(context.Background(), TurnInput{ThreadID: "t2", UserText: "go"})
	require.NoError(t, err)

	result := evaluationResultFrom(final)
	require.NotNil(t, result)
	assert.Equal(t, eval.Success, result.CriteriaResults["base"].Status)
	assert.Equal(t, "derived-ok", result.CriteriaResults["derived"].Value)
}

// Scenario 3: a criterion conditional on a prior criterion's value is
// skipped when the condition is unmet, emitting its default value.
func TestScenarioConditionalSkip(t *testing.T) {
	evaluators := eval.NewEvaluatorRegistry()
	evaluators.Register("gate", eval.RuleBasedFunc(func(_ context.Context, ec eval.CriterionExecutionContext) (eval.CriterionResult, error) {
		return eval.CriterionResult{Status: eval.Success, Value: false}, nil
	}))
	evaluators.Register("gated", eval.RuleBasedFunc(func(_ context.Context, ec eval.CriterionExecutionContext) (eval.CriterionResult, error) {
		return eval.CriterionResult{Status: eval.Success, Value: "should not run"}, nil
	}))
	suite := eval.NewSuite(eval.WithEvaluators(evaluators))
	suite.AddCriterion(eval.Criterion{Name: "gate", EvaluatorRef: "gate"})
	suite.AddCriterion(eval.Criterion{
		Name: "gated", EvaluatorRef: "gated", DependsOn: []string{"gate"},
		Conditional: &eval.ConditionalExecution{DependsOnCriterion: "gate", Mode: eval.IsTrue, SkipReason: "input fuzzy"},
		DefaultValue: "skipped-default",
	})

	pipeline := hooks.NewPipeline()
	registry := newTestRegistry()
	dispatcher := tools.NewDispatcher(registry)
	rt, err := NewRuntime(hooks.React, registry, dispatcher, pipeline, echoModel("ok", nil), WithEvaluationSuite(suite))
	require.NoError(t, err)

	final, err := rt.Invoke(context.Background(), TurnInput{ThreadID: "t3", UserText: "go"})
	require.NoError(t, err)

	result := evaluationResultFrom(final)
	require.NotNil(t, result)
	assert.Equal(t, eval.Skipped, result.CriteriaResults["gated"].Status)
	assert.Equal(t, "skipped-default", result.CriteriaResults["gated"].Value)
	assert.Equal(t, "input fuzzy", result.CriteriaResults["gated"].Reason)
}

// Scenario 4: a batched criterion aggregates its per-batch results with
// ANY_TRUE.
func TestScenarioBatchingAggregation(t *testing.T) {
	evaluators := eval.NewEvaluatorRegistry()
	evaluators.Register("contains_flag", eval.RuleBasedFunc(func(_ context.Context, ec eval.CriterionExecutionContext) (eval.CriterionResult, error) {
		batch, _ := ec.ExtraBindings["item"].([]any)
		flagged := false
		if len(batch) > 0 {
			v, _ := batch[0].(string)
			flagged = v == "flagged"
		}
		return eval.CriterionResult{Status: eval.Success, Value: flagged}, nil
	}))
	suite := eval.NewSuite(eval.WithEvaluators(evaluators))
	suite.AddCriterion(eval.Criterion{
		Name: "any_flagged", EvaluatorRef: "contains_flag",
		AggregationStrategy: eval.AnyTrue,
		Batching: &eval.BatchingConfig{
			Enabled: true, SourcePath: "context.input.items", BatchSize: 1, BatchBindingKey: "item",
		},
	})

	pipeline := hooks.NewPipeline()
	registry := newTestRegistry()
	dispatcher := tools.NewDispatcher(registry)
	rt, err := NewRuntime(hooks.React, registry, dispatcher, pipeline, echoModel("ok", nil), WithEvaluationSuite(suite))
	require.NoError(t, err)

	// nodeEvaluate builds inputContext as {"input": ..., "messages": ...};
	// drive it directly to supply the items collection the batching
	// source_path resolves against.
	st := state.New("t4")
	require.NoError(t, st.Merge(state.NewDelta().Set(state.KeyInput, map[string]any{"items": []any{"plain", "flagged", "plain"}})))
	delta, err := rt.nodeEvaluate(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, st.Merge(delta))

	result := evaluationResultFrom(st)
	require.NotNil(t, result)
	assert.Equal(t, eval.Success, result.CriteriaResults["any_flagged"].Status)
	assert.Equal(t, true, result.CriteriaResults["any_flagged"].Value)
	assert.Contains(t, result.CriteriaResults["any_flagged"].Reason, "At least one batch")
}

// Scenario 5: a tool's observed return values enrich the Schema Registry's
// inferred shape for that tool.
func TestScenarioObservedSchemaEnrichment(t *testing.T) {
	registry := newTestRegistry(tools.Registration{
		Tool: tools.Tool{Name: "lookup_user"},
		Handler: echoToolHandler("lookup_user"),
	})
	schemas := codegen.NewSchemaRegistry()
	dispatcher := tools.NewDispatcher(registry, tools.WithSchemaObserver(schemas))
	pipeline := hooks.NewPipeline()

	call := state.ToolCall{ID: "c1", Name: "lookup_user", Args: map[string]any{"id": "u1"}}
	rt, err := NewRuntime(hooks.React, registry, dispatcher, pipeline, echoModel("ok", &call))
	require.NoError(t, err)

	_, err = rt.Invoke(context.Background(), TurnInput{ThreadID: "t5", UserText: "look up u1"})
	require.NoError(t, err)

	shape, ok := schemas.ShapeFor("lookup_user")
	require.True(t, ok)
	assert.Equal(t, tools.KindObject, shape.Kind)
	_, hasArgsField := shape.Fields["args"]
	assert.True(t, hasArgsField)
}

// Scenario 6: a trigger's full lifecycle — subscribe, pause, resume,
// unsubscribe (cancel) — drives the same Tool Dispatcher a live turn uses.
func TestScenarioTriggerLifecycle(t *testing.T) {
	registry := newTestRegistry(tools.Registration{
		Tool: tools.Tool{Name: "send_digest"},
		Handler: echoToolHandler("send_digest"),
	})
	dispatcher := tools.NewDispatcher(registry)
	pipeline := hooks.NewPipeline()
	rt, err := NewRuntime(hooks.React, registry, dispatcher, pipeline, echoModel("ok", nil))
	require.NoError(t, err)

	store := trigmem.NewStore()
	logStore := trigmem.NewLogStore()
	backend := trigmem.New()
	scheduler := trigger.NewScheduler(store, logStore, backend, rt.Dispatcher())

	created, err := scheduler.CreateTrigger(context.Background(), trigger.SubscribeRequest{
		Name: "daily-digest", Mode: trigger.ModeOneTime, ExecuteFunction: "send_digest",
		ScheduleValue: time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Equal(t, trigger.StatusActive, created.Status)
	assert.NotEmpty(t, created.BackendTaskID)

	require.NoError(t, scheduler.Pause(context.Background(), created.ID))
	paused, err := store.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, trigger.StatusPaused, paused.Status)

	require.NoError(t, scheduler.Resume(context.Background(), created.ID))
	resumed, err := store.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, trigger.StatusActive, resumed.Status)

	require.NoError(t, scheduler.Cancel(context.Background(), created.ID))
	canceled, err := store.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, trigger.StatusCanceled, canceled.Status)
}

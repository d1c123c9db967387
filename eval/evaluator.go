package eval

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/agentcore/runtime/hooks"
	"github.com/agentcore/runtime/state"
)

// Evaluator produces a CriterionResult for a single execution context. It is
// invoked once per batch when batching is enabled, or once for the whole
// criterion otherwise.
type Evaluator interface {
	Evaluate(ctx context.Context, ec CriterionExecutionContext) (CriterionResult, error)
}

// RuleBasedFunc adapts a host-supplied pure function into an Evaluator,
// matching the RULE_BASED evaluator kind.
type RuleBasedFunc func(ctx context.Context, ec CriterionExecutionContext) (CriterionResult, error)

// Evaluate calls f.
func (f RuleBasedFunc) Evaluate(ctx context.Context, ec CriterionExecutionContext) (CriterionResult, error) {
	return f(ctx, ec)
}

// Describe reports a human-readable label, generalized from a
// descriptive-metadata convention used for tool metadata into one that
// also fits evaluator metadata for telemetry/UI surfaces.
type Describable interface {
	Describe() string
}

// LLMEvaluator implements the LLM_BASED evaluator kind: it assembles a
// single-turn prompt from the criterion's metadata and bindings, invokes a
// model handler, and parses the reply according to the criterion's
// ResultType.
type LLMEvaluator struct {
	handler hooks.ModelHandler
	label string
}

// NewLLMEvaluator constructs an LLMEvaluator that issues its prompt through
// handler (typically hooks.ModelChain.Then(...) wired to the model call
// chain).
func NewLLMEvaluator(handler hooks.ModelHandler, label string) *LLMEvaluator {
	if label == "" {
		label = "llm_based"
	}
	return &LLMEvaluator{handler: handler, label: label}
}

// Describe returns the evaluator's label.
func (e *LLMEvaluator) Describe() string { return e.label }

// Evaluate builds a prompt from ec and the criterion's CustomPrompt,
// WorkingMechanism, and FewShots, invokes the model, and parses the reply
// per ec.Criterion.ResultType.
func (e *LLMEvaluator) Evaluate(ctx context.Context, ec CriterionExecutionContext) (CriterionResult, error) {
	prompt := buildPrompt(ec)
	resp, err := e.handler(ctx, &hooks.ModelRequest{
		Messages: []state.Message{state.NewUserMessage(prompt)},
	})
	if err != nil {
		return CriterionResult{Status: Error, Reason: err.Error()}, nil
	}
	value, err := parseResult(resp.Message.Text, ec.Criterion.ResultType)
	if err != nil {
		return CriterionResult{Status: Error, Reason: err.Error(), RawResponse: resp.Message.Text}, nil
	}
	return CriterionResult{Status: Success, Value: value, RawResponse: resp.Message.Text}, nil
}

func buildPrompt(ec CriterionExecutionContext) string {
	var b strings.Builder
	c := ec.Criterion
	if c.WorkingMechanism != "" {
		b.WriteString(c.WorkingMechanism)
		b.WriteString("\n\n")
	}
	if c.CustomPrompt != "" {
		b.WriteString(c.CustomPrompt)
		b.WriteString("\n\n")
	} else {
		b.WriteString("Evaluate criterion \"")
		b.WriteString(c.Name)
		b.WriteString("\" and respond per the requested result type.\n\n")
	}
	for _, shot := range c.FewShots {
		b.WriteString("Example: ")
		b.WriteString(shot)
		b.WriteString("\n")
	}
	if len(ec.ExtraBindings) > 0 {
		if encoded, err := json.Marshal(ec.ExtraBindings); err == nil {
			b.WriteString("Bindings: ")
			b.Write(encoded)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func parseResult(reply string, rt ResultType) (any, error) {
	reply = strings.TrimSpace(reply)
	switch rt {
	case Boolean:
		return strconv.ParseBool(strings.ToLower(reply))
	case Score:
		return strconv.ParseFloat(reply, 64)
	case JSON:
		var v any
		if err := json.Unmarshal([]byte(reply), &v); err != nil {
			return nil, err
		}
		return v, nil
	case Enum, Text:
		return reply, nil
	default:
		return reply, nil
	}
}

// Package prompt implements the Prompt Assembler:
// an ordered chain of PromptContributors that turn evaluation outputs into
// concrete, additive changes to the model request's system text and
// transcript, idempotently (a contributor's sentinel is scanned for before
// it is allowed to re-inject).
package prompt

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/eval"
	"github.com/agentcore/runtime/hooks"
	"github.com/agentcore/runtime/state"
	"github.com/agentcore/runtime/telemetry"
)

// Contribution is what a Contributor hands back to the Assembler: optional
// text to append to the system prompt, and/or optional text to inject as a
// synthetic Assistant/ToolResponse message pair.
type Contribution struct {
	SystemTextToAppend string
	MessageText string
}

// Contributor is a single prompt-assembly extension point, grounded on the
// teacher's reminder.Reminder/Engine lifecycle (priority-tiered guidance
// injected into prompts, de-duplicated per run) generalized from a fixed
// reminder catalog into an open contributor interface driven by evaluation
// results.
type Contributor interface {
	Phase() hooks.Phase
	Priority() int
	// Sentinel is the stable identifier scanned for in existing
	// ToolResponse messages to make injection idempotent.
	Sentinel() string
	ShouldContribute(result *eval.EvaluationResult, st *state.OverAllState) bool
	Contribute(ctx context.Context, result *eval.EvaluationResult, st *state.OverAllState) (Contribution, error)
}

// FuncContributor adapts a plain function plus static metadata into a
// Contributor.
type FuncContributor struct {
	phase hooks.Phase
	priority int
	sentinel string
	guard func(result *eval.EvaluationResult, st *state.OverAllState) bool
	fn func(ctx context.Context, result *eval.EvaluationResult, st *state.OverAllState) (Contribution, error)
}

// NewFuncContributor constructs a FuncContributor.
func NewFuncContributor(
	phase hooks.Phase,
	priority int,
	sentinel string,
	guard func(result *eval.EvaluationResult, st *state.OverAllState) bool,
	fn func(ctx context.Context, result *eval.EvaluationResult, st *state.OverAllState) (Contribution, error),
) *FuncContributor {
	return &FuncContributor{phase: phase, priority: priority, sentinel: sentinel, guard: guard, fn: fn}
}

func (c *FuncContributor) Phase() hooks.Phase { return c.phase }
func (c *FuncContributor) Priority() int { return c.priority }
func (c *FuncContributor) Sentinel() string { return c.sentinel }
func (c *FuncContributor) ShouldContribute(result *eval.EvaluationResult, st *state.OverAllState) bool {
	if c.guard == nil {
		return true
	}
	return c.guard(result, st)
}
func (c *FuncContributor) Contribute(ctx context.Context, result *eval.EvaluationResult, st *state.OverAllState) (Contribution, error) {
	return c.fn(ctx, result, st)
}

// Assembler composes registered Contributors, in priority order, into a
// single state.Delta that a BEFORE_MODEL hook can merge.
type Assembler struct {
	mu sync.RWMutex
	byPhase map[hooks.Phase][]Contributor
	logger telemetry.Logger
}

// Option configures an Assembler at construction time.
type Option func(*Assembler)

// WithLogger attaches a logger used for contributor-failure diagnostics.
func WithLogger(l telemetry.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// NewAssembler constructs an empty Assembler.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{byPhase: map[hooks.Phase][]Contributor{}, logger: telemetry.NewNoopLogger()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register adds c to the assembler, keeping its phase's contributors
// sorted by priority.
func (a *Assembler) Register(c Contributor) error {
	if c == nil {
		return apperr.New(apperr.InvalidInput, "prompt: contributor is required")
	}
	if c.Sentinel() == "" {
		return apperr.New(apperr.InvalidInput, "prompt: contributor must declare a non-empty sentinel")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	list := append(a.byPhase[c.Phase()], c)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Priority() < list[j].Priority() })
	a.byPhase[c.Phase()] = list
	return nil
}

// Assemble runs every registered contributor for phase, in priority order,
// and returns a state.Delta that replaces state.KeyMessages with the
// updated transcript: the existing system message (created at index 0 if
// none exists) with every contributed SystemTextToAppend appended after a
// blank line, plus one synthetic Assistant/ToolResponse pair per
// MessageText contribution. Contributors whose sentinel already appears in
// the transcript are skipped (idempotency).
func (a *Assembler) Assemble(ctx context.Context, phase hooks.Phase, result *eval.EvaluationResult, st *state.OverAllState) (*state.Delta, error) {
	a.mu.RLock()
	contributors := make([]Contributor, len(a.byPhase[phase]))
	copy(contributors, a.byPhase[phase])
	a.mu.RUnlock()

	messages := append([]state.Message{}, st.Messages()...)
	injected := injectedSentinels(messages)

	systemIdx := -1
	for i, m := range messages {
		if m.Role == state.RoleSystem {
			systemIdx = i
			break
		}
	}
	systemText := ""
	if systemIdx >= 0 {
		systemText = messages[systemIdx].Text
	}

	var newPairs []state.Message
	for _, c := range contributors {
		if injected[c.Sentinel()] {
			continue
		}
		if !c.ShouldContribute(result, st) {
			continue
		}
		contribution, err := c.Contribute(ctx, result, st)
		if err != nil {
			return nil, apperr.Wrap(apperr.ExternalFailure, "prompt: contributor failed", err)
		}
		if text := strings.TrimSpace(contribution.SystemTextToAppend); text != "" {
			if systemText == "" {
				systemText = text
			} else {
				systemText = systemText + "\n\n" + text
			}
		}
		if contribution.MessageText != "" {
			id := uuid.NewString()
			newPairs = append(newPairs,
				state.NewAssistantMessage("", state.ToolCall{ID: id, Name: c.Sentinel()}),
				state.NewToolResponse(id, c.Sentinel(), contribution.MessageText, false),
			)
		}
	}

	if systemIdx >= 0 {
		messages[systemIdx].Text = systemText
	} else if systemText != "" {
		messages = append([]state.Message{state.NewSystemMessage(systemText)}, messages...)
	}
	messages = append(messages, newPairs...)

	return state.NewDelta().SetWithStrategy(state.KeyMessages, messages, state.MergeReplace), nil
}

func injectedSentinels(messages []state.Message) map[string]bool {
	out := map[string]bool{}
	for _, m := range messages {
		if m.Role == state.RoleToolResponse && m.Name != "" {
			out[m.Name] = true
		}
	}
	return out
}

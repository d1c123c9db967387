package experience

import (
	"regexp"
	"strings"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/state"
)

// ConditionType enumerates the leaf predicate kinds a match_expression
// can name.
type ConditionType string

const (
	ConditionMessagePrefix ConditionType = "message_prefix"
	ConditionMessageRegex ConditionType = "message_regex"
	ConditionToolArgEquals ConditionType = "tool_arg_equals"
	ConditionMetadataEquals ConditionType = "metadata_equals"
	ConditionStateEquals ConditionType = "state_equals"
	conditionAllOf ConditionType = "all_of"
	conditionAnyOf ConditionType = "any_of"
	conditionNot ConditionType = "not"
)

// MatchExpression is a node in the boolean predicate tree evaluated
// against a FastIntentContext. Exactly one of the leaf fields (Type +
// its companion fields) or one of the combinators (All/Any/Negate) is
// populated, selected by Type.
type MatchExpression struct {
	Type ConditionType

	// Value is the prefix/pattern/equality operand for the leaf
	// predicates that take exactly one (message_prefix, message_regex).
	Value string

	// Key/Equals are the operand pair for tool_arg_equals,
	// metadata_equals, and state_equals.
	Key string
	Equals any

	// All holds the child expressions for all_of.
	All []MatchExpression
	// Any holds the child expressions for any_of.
	Any []MatchExpression
	// Negate holds the single child expression for not.
	Negate *MatchExpression
}

// FastIntentContext is the input the Fast-Intent Matcher evaluates a
// MatchExpression against.
type FastIntentContext struct {
	UserInput string
	Messages []state.Message
	Metadata map[string]any
	State *state.OverAllState
}

// Matches evaluates e against ctx, returning true iff the predicate
// tree is satisfied.
func (e MatchExpression) Matches(ctx FastIntentContext) bool {
	switch e.Type {
	case ConditionMessagePrefix:
		return strings.HasPrefix(ctx.UserInput, e.Value)
	case ConditionMessageRegex:
		re, err := regexp.Compile(e.Value)
		if err != nil {
			return false
		}
		return re.MatchString(ctx.UserInput)
	case ConditionToolArgEquals:
		return matchesToolArg(ctx.Messages, e.Key, e.Equals)
	case ConditionMetadataEquals:
		v, ok := ctx.Metadata[e.Key]
		return ok && equalValue(v, e.Equals)
	case ConditionStateEquals:
		if ctx.State == nil {
			return false
		}
		v, ok := ctx.State.Get(e.Key)
		return ok && equalValue(v, e.Equals)
	case conditionAllOf:
		for _, child := range e.All {
			if !child.Matches(ctx) {
				return false
			}
		}
		return true
	case conditionAnyOf:
		for _, child := range e.Any {
			if child.Matches(ctx) {
				return true
			}
		}
		return false
	case conditionNot:
		if e.Negate == nil {
			return false
		}
		return !e.Negate.Matches(ctx)
	default:
		return false
	}
}

// matchesToolArg reports whether any tool call across ctx's messages
// carries an argument named key equal to want. tool_arg_equals looks
// across the whole transcript rather than a single message because the
// matcher runs BEFORE_AGENT, ahead of the turn's own tool calls.
func matchesToolArg(messages []state.Message, key string, want any) bool {
	for _, m := range messages {
		if m.Role != state.RoleAssistant {
			continue
		}
		for _, tc := range m.ToolCalls {
			if v, ok := tc.Args[key]; ok && equalValue(v, want) {
				return true
			}
		}
	}
	return false
}

func equalValue(a, b any) bool {
	return a == b
}

// FastIntentMatcher selects the highest-priority experience whose
// fast_intent_config is enabled and whose match_expression is satisfied
// against the current turn.
type FastIntentMatcher struct {
	// AllowedTools is the fast_intent_allowed_tools safety allow-list. If
	// non-empty, Match silently rejects any candidate whose planned tool
	// calls name a tool outside this set.
	AllowedTools []string
}

// NewFastIntentMatcher constructs a FastIntentMatcher with the given
// allow-list. An empty allowList disables the safety check.
func NewFastIntentMatcher(allowList ...string) *FastIntentMatcher {
	return &FastIntentMatcher{AllowedTools: allowList}
}

// Match selects the best candidate from experiences: enabled,
// match_expression true, then highest priority wins; ties broken by the
// first candidate encountered in experiences' order. Returns ok=false if
// no candidate qualifies, including when the highest-priority winner
// fails the allow-list safety check — that case falls silently through
// to the model rather than retrying the next-best candidate.
func (m *FastIntentMatcher) Match(ictx FastIntentContext, experiences []Experience) (Experience, bool) {
	var (
		best Experience
		bestSet bool
	)
	for _, exp := range experiences {
		if exp.FastIntent == nil || !exp.FastIntent.Enabled {
			continue
		}
		if !exp.FastIntent.MatchExpression.Matches(ictx) {
			continue
		}
		if !bestSet || exp.FastIntent.Priority > best.FastIntent.Priority {
			best, bestSet = exp, true
		}
	}
	if !bestSet {
		return Experience{}, false
	}
	if !m.toolsAllowed(best) {
		return Experience{}, false
	}
	return best, true
}

func (m *FastIntentMatcher) toolsAllowed(exp Experience) bool {
	if len(m.AllowedTools) == 0 {
		return true
	}
	if exp.Artifact == nil || exp.Artifact.React == nil {
		return true
	}
	allowed := make(map[string]bool, len(m.AllowedTools))
	for _, t := range m.AllowedTools {
		allowed[t] = true
	}
	for _, tc := range exp.Artifact.React.Plan.ToolCalls {
		if !allowed[tc.Name] {
			return false
		}
	}
	return true
}

// errUnknownConditionType is returned by validators that reject a
// MatchExpression with an unrecognized Type (used by Store
// implementations validating a FastIntentConfig before persisting it).
func errUnknownConditionType(t ConditionType) error {
	return apperr.Errorf(apperr.InvalidInput, "experience: unknown match condition type %q", t)
}

// Validate recursively checks that e only names known condition types
// and that combinators carry the children they require.
func (e MatchExpression) Validate() error {
	switch e.Type {
	case ConditionMessagePrefix, ConditionMessageRegex, ConditionToolArgEquals, ConditionMetadataEquals, ConditionStateEquals:
		return nil
	case conditionAllOf:
		for _, c := range e.All {
			if err := c.Validate(); err != nil {
				return err
			}
		}
		return nil
	case conditionAnyOf:
		for _, c := range e.Any {
			if err := c.Validate(); err != nil {
				return err
			}
		}
		return nil
	case conditionNot:
		if e.Negate == nil {
			return apperr.New(apperr.InvalidInput, "experience: not requires a negated child expression")
		}
		return e.Negate.Validate()
	default:
		return errUnknownConditionType(e.Type)
	}
}

// Package experience defines the Experience record, the Store query
// contract, and the Fast-Intent Matcher: a
// queryable catalog of prior learnings (common guidance, code snippets,
// react plans) that the agent runtime can recall into a turn, and a
// predicate matcher that lets a high-confidence experience answer a turn
// with a recorded reply (no model call) or replay a recorded REACT plan
// in place of the model call that would have chosen those tools.
package experience

import "time"

// Type distinguishes the three experience kinds.
type Type string

const (
	Common Type = "COMMON"
	Code Type = "CODE"
	React Type = "REACT"
)

// Scope bounds who an experience applies to. A query's scope set is
// matched against owner_id/project_id equality where applicable (see
// Store.Query).
type Scope string

const (
	ScopeUser Scope = "USER"
	ScopeTeam Scope = "TEAM"
	ScopeProject Scope = "PROJECT"
	ScopeGlobal Scope = "GLOBAL"
)

// OrderBy selects the tie-break / sort field used when Text relevance
// ranking is not in play (or to break ties within it).
type OrderBy string

const (
	OrderCreatedAt OrderBy = "CREATED_AT"
	OrderUpdatedAt OrderBy = "UPDATED_AT"
	OrderScore OrderBy = "SCORE"
)

type (
	// CodeArtifact is the artifact variant attached to a CODE experience:
	// a reusable function the CodeGen sub-agent (or a direct tool call)
	// can splice in verbatim.
	CodeArtifact struct {
		Language string
		FunctionName string
		Parameters []string
		Code string
		Description string
	}

	// ReactArtifact is the artifact variant attached to a REACT
	// experience: a pre-recorded assistant turn the Fast-Intent Matcher
	// can replay, skipping a model call.
	ReactArtifact struct {
		AssistantText string
		Plan Plan
	}

	// Plan is the recorded tool_calls payload of a ReactArtifact.
	Plan struct {
		ToolCalls []PlannedToolCall
	}

	// PlannedToolCall is a single recorded tool invocation within a Plan.
	PlannedToolCall struct {
		Name string
		Args map[string]any
	}

	// FastIntentConfig governs whether and how an experience can be
	// selected by the Fast-Intent Matcher without invoking the model.
	FastIntentConfig struct {
		Enabled bool
		Priority int
		MatchExpression MatchExpression
	}

	// Metadata carries free-form provenance about how an experience was
	// produced.
	Metadata struct {
		Confidence float64
		Source string
		Version int
		Extra map[string]any
	}

	// Experience is a learned/recorded reusable piece of conversation
	// behavior (a code snippet, a react plan, a free-text note). Exactly one of
	// CodeArtifact/ReactArtifact is populated when Artifact is non-nil;
	// callers switch on which field of Artifact is non-nil (Go has no
	// sum type, so Artifact is a pointer-pair struct with at most one
	// side set).
	Experience struct {
		ID string
		Type Type
		Scope Scope
		OwnerID string
		ProjectID string
		Title string
		Content string
		Language string
		Tags []string
		CreatedAt time.Time
		UpdatedAt time.Time
		Metadata Metadata

		Artifact *Artifact

		FastIntent *FastIntentConfig
	}

	// Artifact wraps the two mutually-exclusive artifact variants,
	// CodeArtifact and ReactArtifact.
	Artifact struct {
		Code *CodeArtifact
		React *ReactArtifact
	}

	// Query is the input to Store.Query.
	Query struct {
		Type Type
		Scopes []Scope
		Tags []string
		Text string
		Language string
		OwnerID string
		ProjectID string
		OrderBy OrderBy
		Limit int
	}

	// QueryContext carries the caller identity a Query is evaluated
	// against, independent of the Query's own OwnerID/ProjectID filters
	// (e.g. for audit logging by implementations that need it).
	QueryContext struct {
		RequestedBy string
	}
)

// DefaultScopePriority is the scope fallback order used when a Query
// leaves Scopes unset: USER+PROJECT, USER, TEAM+PROJECT, TEAM,
// PROJECT, GLOBAL. The
// "+PROJECT" qualifier is not representable by Scope alone; see
// experience/inmem's defaultScopeSteps for the concrete fallback used by
// Store.Query.
func DefaultScopePriority() []Scope {
	return []Scope{ScopeUser, ScopeUser, ScopeTeam, ScopeTeam, ScopeProject, ScopeGlobal}
}

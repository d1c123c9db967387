// Package durable defines a pluggable workflow-backend abstraction for
// running registered workflows and activities on a durable engine (e.g.
// Temporal). Package graph does not use it: graph.Graph executes its
// nodes in process.
package durable

import (
	"context"
	"time"
)

type (
	// Backend abstracts workflow registration and execution on a durable
	// engine. Callers register their own workflows and activities;
	// nothing in this module compiles a graph.Graph onto a Backend.
	Backend interface {
		RegisterWorkflow(ctx context.Context, def WorkflowDefinition) error
		RegisterActivity(ctx context.Context, def ActivityDefinition) error
		StartWorkflow(ctx context.Context, req WorkflowStartRequest) (WorkflowHandle, error)
	}

	// WorkflowDefinition binds a workflow handler to a logical name and
	// default task queue.
	WorkflowDefinition struct {
		Name string
		TaskQueue string
		Handler WorkflowFunc
	}

	// WorkflowFunc is the durable entry point. Implementations must be
	// deterministic: same inputs and activity results must always produce
	// the same execution sequence.
	WorkflowFunc func(ctx WorkflowContext, input any) (any, error)

	// WorkflowContext exposes backend operations to a workflow handler.
	WorkflowContext interface {
		Context() context.Context
		WorkflowID() string
		RunID() string
		ExecuteActivity(ctx context.Context, req ActivityRequest, result any) error
		Now() time.Time
	}

	// ActivityDefinition registers an activity handler invoked from a
	// workflow. Activities may perform side effects (I/O, tool calls); the
	// node functions they wrap must not.
	ActivityDefinition struct {
		Name string
		Handler ActivityFunc
		Options ActivityOptions
	}

	// ActivityFunc executes one graph node's work outside the deterministic
	// workflow sandbox.
	ActivityFunc func(ctx context.Context, input any) (any, error)

	// ActivityOptions configures retry/timeout behavior for an activity.
	ActivityOptions struct {
		RetryPolicy RetryPolicy
		Timeout time.Duration
	}

	// RetryPolicy defines retry semantics shared by workflows and
	// activities. Zero-valued fields mean the backend uses its defaults.
	RetryPolicy struct {
		MaxAttempts int
		InitialInterval time.Duration
		BackoffCoefficient float64
	}

	// WorkflowStartRequest describes how to launch a workflow execution.
	WorkflowStartRequest struct {
		ID string
		Workflow string
		TaskQueue string
		Input any
		Memo map[string]any
	}

	// ActivityRequest contains the info needed to schedule an activity from
	// a workflow.
	ActivityRequest struct {
		Name string
		Input any
		Timeout time.Duration
	}

	// WorkflowHandle allows callers to interact with a running workflow.
	WorkflowHandle interface {
		Wait(ctx context.Context, result any) error
		Cancel(ctx context.Context) error
	}
)

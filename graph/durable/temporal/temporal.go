// Package temporal adapts durable.Backend onto the Temporal Go SDK:
// registered workflows and activities run on Temporal workers, one lazily
// started worker per task queue.
package temporal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/agentcore/runtime/graph/durable"
	"github.com/agentcore/runtime/telemetry"
)

// Options configures the Temporal adapter.
type Options struct {
	// Client is a pre-configured Temporal client. Required.
	Client client.Client
	// TaskQueue is the default queue, used when a WorkflowDefinition
	// omits one; every ActivityDefinition is registered on it.
	TaskQueue string
	// Logger receives worker lifecycle diagnostics. Defaults to a noop
	// logger.
	Logger telemetry.Logger
}

// Backend implements durable.Backend on top of a Temporal client and a
// lazily started worker pool (one worker per unique task queue, matching
// per-queue worker strategy).
type Backend struct {
	client client.Client
	taskQueue string
	logger telemetry.Logger

	mu sync.Mutex
	workers map[string]worker.Worker
	started map[string]bool
}

// New constructs a Backend. Client and TaskQueue in opts are required.
func New(opts Options) (*Backend, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("temporal: Client is required")
	}
	if opts.TaskQueue == "" {
		return nil, fmt.Errorf("temporal: TaskQueue is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Backend{
		client: opts.Client,
		taskQueue: opts.TaskQueue,
		logger: logger,
		workers: map[string]worker.Worker{},
		started: map[string]bool{},
	}, nil
}

func (b *Backend) workerFor(queue string) worker.Worker {
	if queue == "" {
		queue = b.taskQueue
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.workers[queue]
	if !ok {
		w = worker.New(b.client, queue, worker.Options{})
		b.workers[queue] = w
	}
	return w
}

func (b *Backend) ensureStarted(queue string) error {
	if queue == "" {
		queue = b.taskQueue
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started[queue] {
		return nil
	}
	w := b.workers[queue]
	if w == nil {
		return fmt.Errorf("temporal: no worker registered for queue %q", queue)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("temporal: start worker on queue %q: %w", queue, err)
	}
	b.started[queue] = true
	return nil
}

// RegisterWorkflow registers def with the worker for its task queue,
// wrapping durable.WorkflowFunc in a Temporal-deterministic workflow.Context
// adapter.
func (b *Backend) RegisterWorkflow(_ context.Context, def durable.WorkflowDefinition) error {
	queue := def.TaskQueue
	w := b.workerFor(queue)
	w.RegisterWorkflowWithOptions(
		func(ctx workflow.Context, input any) (any, error) {
			wctx := &workflowContext{ctx: ctx}
			return def.Handler(wctx, input)
		},
		workflow.RegisterOptions{Name: def.Name},
	)
	return nil
}

// RegisterActivity registers def's handler with the worker for the
// adapter's default task queue.
func (b *Backend) RegisterActivity(_ context.Context, def durable.ActivityDefinition) error {
	w := b.workerFor(b.taskQueue)
	w.RegisterActivityWithOptions(
		func(ctx context.Context, input any) (any, error) {
			return def.Handler(ctx, input)
		},
		activity.RegisterOptions{Name: def.Name},
	)
	return nil
}

// StartWorkflow starts req on the adapter's client, auto-starting the
// worker for the request's task queue if it has not been started yet.
func (b *Backend) StartWorkflow(ctx context.Context, req durable.WorkflowStartRequest) (durable.WorkflowHandle, error) {
	queue := req.TaskQueue
	if queue == "" {
		queue = b.taskQueue
	}
	if err := b.ensureStarted(queue); err != nil {
		return nil, err
	}
	run, err := b.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID: req.ID,
		TaskQueue: queue,
		Memo: req.Memo,
	}, req.Workflow, req.Input)
	if err != nil {
		return nil, fmt.Errorf("temporal: start workflow %q: %w", req.Workflow, err)
	}
	return &handle{client: b.client, run: run}, nil
}

type handle struct {
	client client.Client
	run client.WorkflowRun
}

func (h *handle) Wait(ctx context.Context, result any) error {
	return h.run.Get(ctx, result)
}

func (h *handle) Cancel(ctx context.Context) error {
	return h.client.CancelWorkflow(ctx, h.run.GetID(), h.run.GetRunID())
}

type workflowContext struct {
	ctx workflow.Context
}

func (w *workflowContext) Context() context.Context { return context.Background() }

func (w *workflowContext) WorkflowID() string {
	return workflow.GetInfo(w.ctx).WorkflowExecution.ID
}

func (w *workflowContext) RunID() string {
	return workflow.GetInfo(w.ctx).WorkflowExecution.RunID
}

func (w *workflowContext) ExecuteActivity(_ context.Context, req durable.ActivityRequest, result any) error {
	ctx := w.ctx
	if req.Timeout > 0 {
		ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{StartToCloseTimeout: req.Timeout})
	}
	return workflow.ExecuteActivity(ctx, req.Name, req.Input).Get(ctx, result)
}

func (w *workflowContext) Now() time.Time {
	return workflow.Now(w.ctx)
}

// Package temporal adapts trigger.Backend onto the Temporal Go SDK's
// Schedule client: CRON and FIXED_RATE triggers map to real Temporal
// Schedules, ONE_TIME and FIXED_DELAY triggers map to a single delayed
// workflow start. Structured the same way as the other Temporal
// integration (graph/durable/temporal): Options/Backend/New, one
// worker per task queue, lazily started, generalizing a general
// client/worker wiring convention to a Schedule-specific surface.
// Cancel recognizes go.temporal.io/api's
// serviceerror.NotFound so deleting an already-gone schedule (e.g. one
// removed out of band) still satisfies Backend.Cancel's idempotence
// contract instead of surfacing a server-side error.
package temporal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/agentcore/runtime/telemetry"
	"github.com/agentcore/runtime/trigger"
)

const (
	workflowName = "agentcore_trigger_fire"
	activityName = "agentcore_trigger_fire_activity"
)

// Options configures the Temporal trigger Backend.
type Options struct {
	// Client is a pre-configured Temporal client. Required.
	Client client.Client
	// TaskQueue is the queue the adapter's worker listens on. Required.
	TaskQueue string
	// Logger receives worker and firing diagnostics. Defaults to a noop
	// logger.
	Logger telemetry.Logger
}

// Backend implements trigger.Backend on a Temporal client, a Schedule
// client derived from it, and a single worker registered with one
// workflow/activity pair used to re-enter the calling process's
// FireFunc for every trigger this Backend arms.
type Backend struct {
	client client.Client
	schedule client.ScheduleClient
	queue string
	logger telemetry.Logger

	w worker.Worker
	startMu sync.Mutex
	started bool

	mu sync.Mutex
	fireFns map[string]trigger.FireFunc
	handles map[string]scheduleOrWorkflowHandle
}

type scheduleOrWorkflowHandle struct {
	schedule client.ScheduleHandle // non-nil for CRON/FIXED_RATE
	cancel context.CancelFunc // non-nil for ONE_TIME/FIXED_DELAY's delay goroutine
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

	b := &Backend{
		client: opts.Client,
		schedule: opts.Client.ScheduleClient(),
		queue: opts.TaskQueue,
		logger: logger,
		fireFns: map[string]trigger.FireFunc{},
		handles: map[string]scheduleOrWorkflowHandle{},
	}

	b.w = worker.New(opts.Client, opts.TaskQueue, worker.Options{})
	b.w.RegisterWorkflowWithOptions(b.fireWorkflow, workflow.RegisterOptions{Name: workflowName})
	b.w.RegisterActivityWithOptions(b.fireActivity, activity.RegisterOptions{Name: activityName})

	return b, nil
}

func (b *Backend) ensureStarted() error {
	b.startMu.Lock()
	defer b.startMu.Unlock()
	if b.started {
		return nil
	}
	if err := b.w.Start(); err != nil {
		return fmt.Errorf("temporal: start worker on queue %q: %w", b.queue, err)
	}
	b.started = true
	return nil
}

// fireWorkflow is the Temporal workflow every Schedule/delayed start
// invokes. It just hands off to an activity so the actual call back
// into the process's FireFunc runs with normal (non-deterministic) Go
// semantics.
func (b *Backend) fireWorkflow(ctx workflow.Context, triggerID string) error {
	actx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{StartToCloseTimeout: time.Minute})
	return workflow.ExecuteActivity(actx, activityName, triggerID).Get(actx, nil)
}

func (b *Backend) fireActivity(ctx context.Context, triggerID string) error {
	b.mu.Lock()
	fn, ok := b.fireFns[triggerID]
	b.mu.Unlock()
	if !ok {
		b.logger.Error(ctx, "temporal: no FireFunc registered for trigger", "trigger_id", triggerID)
		return nil
	}
	fn(ctx, triggerID, time.Now().UTC().Format(time.RFC3339Nano))
	return nil
}

// Schedule arms t. CRON and FIXED_RATE triggers become a real Temporal
// Schedule (spec interval/calendar); ONE_TIME and FIXED_DELAY triggers
// become a single delayed workflow start, since Temporal Schedules
// model recurring actions, not one-shots.
func (b *Backend) Schedule(ctx context.Context, t trigger.Trigger, fire trigger.FireFunc) (string, error) {
	if err := b.ensureStarted(); err != nil {
		return "", err
	}
	b.mu.Lock()
	b.fireFns[t.ID] = fire
	b.mu.Unlock()

	switch t.Mode {
	case trigger.ModeCron:
		return b.scheduleCron(ctx, t)
	case trigger.ModeFixedRate:
		return b.scheduleInterval(ctx, t)
	case trigger.ModeOneTime:
		when, err := time.Parse(time.RFC3339, t.ScheduleValue)
		if err != nil {
			return "", fmt.Errorf("temporal: invalid ONE_TIME schedule_value: %w", err)
		}
		return b.scheduleDelayed(ctx, t, time.Until(when))
	case trigger.ModeFixedDelay:
		d, err := time.ParseDuration(t.ScheduleValue)
		if err != nil {
			return "", fmt.Errorf("temporal: invalid FIXED_DELAY schedule_value: %w", err)
		}
		return b.scheduleDelayed(ctx, t, d)
	default:
		return "", fmt.Errorf("temporal: unknown schedule_mode %q", t.Mode)
	}
}

func (b *Backend) scheduleCron(ctx context.Context, t trigger.Trigger) (string, error) {
	taskID := "sched-" + t.ID
	handle, err := b.schedule.Create(ctx, client.ScheduleOptions{
		ID: taskID,
		Spec: client.ScheduleSpec{CronExpressions: []string{t.ScheduleValue}},
		Action: &client.ScheduleWorkflowAction{
			ID: "wf-" + taskID,
			Workflow: workflowName,
			Args: []any{t.ID},
			TaskQueue: b.queue,
		},
	})
	if err != nil {
		return "", fmt.Errorf("temporal: create cron schedule: %w", err)
	}
	b.mu.Lock()
	b.handles[taskID] = scheduleOrWorkflowHandle{schedule: handle}
	b.mu.Unlock()
	return taskID, nil
}

func (b *Backend) scheduleInterval(ctx context.Context, t trigger.Trigger) (string, error) {
	d, err := time.ParseDuration(t.ScheduleValue)
	if err != nil {
		return "", fmt.Errorf("temporal: invalid FIXED_RATE schedule_value: %w", err)
	}
	taskID := "sched-" + t.ID
	handle, err := b.schedule.Create(ctx, client.ScheduleOptions{
		ID: taskID,
		Spec: client.ScheduleSpec{Intervals: []client.ScheduleIntervalSpec{{Every: d}}},
		Action: &client.ScheduleWorkflowAction{
			ID: "wf-" + taskID,
			Workflow: workflowName,
			Args: []any{t.ID},
			TaskQueue: b.queue,
		},
	})
	if err != nil {
		return "", fmt.Errorf("temporal: create interval schedule: %w", err)
	}
	b.mu.Lock()
	b.handles[taskID] = scheduleOrWorkflowHandle{schedule: handle}
	b.mu.Unlock()
	return taskID, nil
}

// scheduleDelayed starts a single workflow run after delay, run in a
// goroutine so Schedule itself returns immediately.
func (b *Backend) scheduleDelayed(ctx context.Context, t trigger.Trigger, delay time.Duration) (string, error) {
	taskID := "delayed-" + t.ID
	runCtx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	b.handles[taskID] = scheduleOrWorkflowHandle{cancel: cancel}
	b.mu.Unlock()

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-runCtx.Done():
			return
		case <-timer.C:
		}
		_, err := b.client.ExecuteWorkflow(runCtx, client.StartWorkflowOptions{
			ID: "wf-" + taskID,
			TaskQueue: b.queue,
		}, workflowName, t.ID)
		if err != nil {
			b.logger.Error(runCtx, "temporal: failed to start delayed workflow", "trigger_id", t.ID, "error", err)
		}
	}()
	return taskID, nil
}

func (b *Backend) Cancel(ctx context.Context, backendTaskID string) error {
	b.mu.Lock()
	h, ok := b.handles[backendTaskID]
	delete(b.handles, backendTaskID)
	b.mu.Unlock()
	if !ok {
		return nil
	}
	if h.schedule != nil {
		if err := h.schedule.Delete(ctx); err != nil {
			var notFound *serviceerror.NotFound
			if errors.As(err, &notFound) {
				return nil
			}
			return err
		}
		return nil
	}
	if h.cancel != nil {
		h.cancel()
	}
	return nil
}

func (b *Backend) IsRunning(_ context.Context, backendTaskID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.handles[backendTaskID]
	return ok, nil
}

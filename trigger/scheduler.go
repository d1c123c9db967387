package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/telemetry"
	"github.com/agentcore/runtime/tools"
)

// Scheduler subscribes, pauses, resumes and cancels Triggers, and
// drives each firing's ExecutionRecord through its lifecycle
//. It implements tools.TriggerRegistrar so the
// subscribe_trigger built-in can wire directly into it.
type Scheduler struct {
	store Store
	log ExecutionLogStore
	backend Backend
	dispatch *tools.Dispatcher
	logger telemetry.Logger
	metrics telemetry.Metrics
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithLogger(l telemetry.Logger) Option { return func(s *Scheduler) { s.logger = l } }
func WithMetrics(m telemetry.Metrics) Option { return func(s *Scheduler) { s.metrics = m } }

// NewScheduler constructs a Scheduler. dispatch is the Tool Dispatcher
// condition/action functions re-enter on a fresh thread id.
func NewScheduler(store Store, log ExecutionLogStore, backend Backend, dispatch *tools.Dispatcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		store: store,
		log: log,
		backend: backend,
		dispatch: dispatch,
		logger: telemetry.NewNoopLogger(),
		metrics: telemetry.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubscribeRequest describes a new Trigger (mirrors
// tools.SubscribeTriggerRequest, the subscribe_trigger built-in's
// argument shape).
type SubscribeRequest struct {
	Name string
	Mode Mode
	ScheduleValue string
	ExecuteFunction string
	ConditionFn string
	Parameters map[string]any
	SourceType string
	SourceID string
}

// CreateTrigger persists a new Trigger in PENDING_ACTIVATE, arms it on
// the backend, and advances it to ACTIVE.
func (s *Scheduler) CreateTrigger(ctx context.Context, req SubscribeRequest) (Trigger, error) {
	if req.ExecuteFunction == "" {
		return Trigger{}, apperr.New(apperr.InvalidInput, "trigger: execute_function is required")
	}
	now := time.Now().UTC()
	t := Trigger{
		ID: uuid.NewString(),
		Name: req.Name,
		Mode: req.Mode,
		ScheduleValue: req.ScheduleValue,
		ExecuteFunction: req.ExecuteFunction,
		ConditionFn: req.ConditionFn,
		Parameters: req.Parameters,
		SourceType: req.SourceType,
		SourceID: req.SourceID,
		Status: StatusPendingActivate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t, err := s.store.Save(ctx, t)
	if err != nil {
		return Trigger{}, err
	}

	backendTaskID, err := s.backend.Schedule(ctx, t, s.fire)
	if err != nil {
		return Trigger{}, apperr.Wrap(apperr.DependencyFailed, "trigger: failed to arm backend", err)
	}
	if err := ValidateTransition(t.Status, StatusActive); err != nil {
		return Trigger{}, err
	}
	if err := s.store.UpdateStatus(ctx, t.ID, StatusActive, backendTaskID); err != nil {
		return Trigger{}, err
	}
	t.Status = StatusActive
	t.BackendTaskID = backendTaskID
	return t, nil
}

// Subscribe adapts Scheduler to tools.TriggerRegistrar so the
// subscribe_trigger built-in handler can depend on the narrow
// interface rather than the concrete Scheduler type.
func (s *Scheduler) Subscribe(ctx context.Context, req tools.SubscribeTriggerRequest) (string, error) {
	t, err := s.CreateTrigger(ctx, SubscribeRequest{
		Name: req.Name,
		Mode: Mode(req.Mode),
		ScheduleValue: req.Schedule,
		ExecuteFunction: req.ActionTool,
		ConditionFn: req.ConditionFn,
		Parameters: req.ActionArgs,
		SourceType: "conversation",
		SourceID: req.ThreadID,
	})
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

// Pause disarms the backend task and moves t to PAUSED.
func (s *Scheduler) Pause(ctx context.Context, triggerID string) error {
	t, err := s.store.FindByID(ctx, triggerID)
	if err != nil {
		return err
	}
	if err := ValidateTransition(t.Status, StatusPaused); err != nil {
		return err
	}
	if err := s.backend.Cancel(ctx, t.BackendTaskID); err != nil {
		return apperr.Wrap(apperr.DependencyFailed, "trigger: failed to disarm backend task", err)
	}
	return s.store.UpdateStatus(ctx, t.ID, StatusPaused, "")
}

// Resume re-arms t from its original schedule_value and moves it back
// to ACTIVE.
func (s *Scheduler) Resume(ctx context.Context, triggerID string) error {
	t, err := s.store.FindByID(ctx, triggerID)
	if err != nil {
		return err
	}
	if err := ValidateTransition(t.Status, StatusActive); err != nil {
		return err
	}
	backendTaskID, err := s.backend.Schedule(ctx, t, s.fire)
	if err != nil {
		return apperr.Wrap(apperr.DependencyFailed, "trigger: failed to re-arm backend", err)
	}
	return s.store.UpdateStatus(ctx, t.ID, StatusActive, backendTaskID)
}

// Cancel disarms the backend task (if any) and moves t to the terminal
// CANCELED status.
func (s *Scheduler) Cancel(ctx context.Context, triggerID string) error {
	t, err := s.store.FindByID(ctx, triggerID)
	if err != nil {
		return err
	}
	if err := ValidateTransition(t.Status, StatusCanceled); err != nil {
		return err
	}
	if t.BackendTaskID != "" {
		if err := s.backend.Cancel(ctx, t.BackendTaskID); err != nil {
			return apperr.Wrap(apperr.DependencyFailed, "trigger: failed to disarm backend task", err)
		}
	}
	return s.store.UpdateStatus(ctx, t.ID, StatusCanceled, "")
}

// fire is the Backend's FireFunc callback: it creates the PENDING
// execution record, runs the optional condition function gate, invokes
// the action function through the Tool Dispatcher on a fresh thread id,
// and records the terminal outcome.
func (s *Scheduler) fire(ctx context.Context, triggerID string, scheduledTime string) {
	t, err := s.store.FindByID(ctx, triggerID)
	if err != nil {
		s.logger.Error(ctx, "trigger: fire lookup failed", "trigger_id", triggerID, "error", err)
		return
	}
	if t.Status != StatusActive {
		// Paused or canceled between arming and firing; skip silently.
		return
	}

	scheduled, _ := time.Parse(time.RFC3339Nano, scheduledTime)
	rec := ExecutionRecord{
		ExecutionID: uuid.NewString(),
		TriggerID: triggerID,
		ThreadID: uuid.NewString(),
		ScheduledTime: scheduled,
		Status: ExecutionPending,
	}
	rec, err = s.log.Save(ctx, rec)
	if err != nil {
		s.logger.Error(ctx, "trigger: failed to persist execution record", "trigger_id", triggerID, "error", err)
		return
	}

	if err := s.log.UpdateStatus(ctx, rec.ExecutionID, ExecutionRunning, "", ""); err != nil {
		s.logger.Error(ctx, "trigger: failed to mark execution running", "execution_id", rec.ExecutionID, "error", err)
	}

	status, errMsg, summary := s.run(ctx, t, rec.ThreadID)

	if err := s.log.UpdateStatus(ctx, rec.ExecutionID, status, errMsg, summary); err != nil {
		s.logger.Error(ctx, "trigger: failed to record execution outcome", "execution_id", rec.ExecutionID, "error", err)
	}
	s.metrics.IncCounter("trigger.fire", 1, "trigger_id", triggerID, "status", string(status))

	if t.Mode == ModeFixedDelay && status != ExecutionTimeout {
		if backendTaskID, err := s.backend.Schedule(ctx, t, s.fire); err == nil {
			_ = s.store.UpdateStatus(ctx, t.ID, StatusActive, backendTaskID)
		} else {
			s.logger.Error(ctx, "trigger: failed to re-arm FIXED_DELAY trigger", "trigger_id", t.ID, "error", err)
		}
	}
}

// run evaluates the optional condition function then the action
// function via the Tool Dispatcher and returns the terminal execution
// status, error message and output summary.
func (s *Scheduler) run(ctx context.Context, t Trigger, threadID string) (ExecutionStatus, string, string) {
	ec := &tools.ExecutionContext{Context: ctx, ThreadID: threadID, RunID: t.ID, Dispatcher: s.dispatch}

	if t.ConditionFn != "" {
		result, err := s.dispatch.Invoke(ec, "execute_code", map[string]any{
			"function_name": t.ConditionFn,
			"args": t.Parameters,
		})
		if err != nil {
			return ExecutionFailed, err.Error(), ""
		}
		proceed, _ := result.(bool)
		if m, ok := result.(map[string]any); ok {
			if v, ok := m["result"].(bool); ok {
				proceed = v
			}
		}
		if !proceed {
			return ExecutionSuccess, "", "condition function returned false; action skipped"
		}
	}

	result, err := s.dispatch.Invoke(ec, t.ExecuteFunction, t.Parameters)
	if err != nil {
		if apperr.KindOf(err) == apperr.Timeout {
			return ExecutionTimeout, err.Error(), ""
		}
		return ExecutionFailed, err.Error(), ""
	}
	return ExecutionSuccess, "", fmt.Sprintf("%v", result)
}

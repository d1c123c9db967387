package trigger

import "context"

// FireFunc is invoked by a Backend when a scheduled occurrence comes
// due. trigger/inmem passes the occurrence's nominal time as
// scheduledTime; trigger/temporal passes the wall clock time at which
// its fire activity runs.
type FireFunc func(ctx context.Context, triggerID string, scheduledTime string)

// Backend arms and disarms the actual timer/scheduling mechanism behind
// a Trigger (the ExecutionBackend SPI of ). Implementations:
// trigger/inmem (timer-based, default) and trigger/temporal (Temporal
// Schedules, supplemental).
type Backend interface {
	// Schedule arms the next occurrence for t and returns an opaque
	// backend task id the Scheduler stores on the Trigger record.
	Schedule(ctx context.Context, t Trigger, fire FireFunc) (backendTaskID string, err error)

	// Cancel disarms the backend task. Idempotent.
	Cancel(ctx context.Context, backendTaskID string) error

	// IsRunning reports whether backendTaskID still has a pending or
	// recurring occurrence armed.
	IsRunning(ctx context.Context, backendTaskID string) (bool, error)
}

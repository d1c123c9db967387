package trigger

import "context"

// Store persists Trigger records (the TriggerRepository SPI of ).
type Store interface {
	Save(ctx context.Context, t Trigger) (Trigger, error)
	FindByID(ctx context.Context, id string) (Trigger, error)
	UpdateStatus(ctx context.Context, id string, status Status, backendTaskID string) error
	FindAll(ctx context.Context) ([]Trigger, error)
	FindBySource(ctx context.Context, sourceType, sourceID string) ([]Trigger, error)
}

// ExecutionLogStore persists ExecutionRecord entries (the
// TriggerExecutionLogRepository SPI of ).
type ExecutionLogStore interface {
	Save(ctx context.Context, r ExecutionRecord) (ExecutionRecord, error)
	UpdateStatus(ctx context.Context, executionID string, status ExecutionStatus, errMsg, outputSummary string) error
	ListByTrigger(ctx context.Context, triggerID string) ([]ExecutionRecord, error)
}

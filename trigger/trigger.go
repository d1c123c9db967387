// Package trigger implements the Trigger Scheduler: persisted trigger
// definitions that re-invoke the agent (or a named function) on schedule
// or event, with an execution log tracking each firing's lifecycle.
package trigger

import (
	"time"

	"github.com/agentcore/runtime/apperr"
)

// Mode selects how a Trigger's schedule_value is interpreted.
type Mode string

const (
	ModeCron Mode = "CRON"
	ModeFixedDelay Mode = "FIXED_DELAY"
	ModeFixedRate Mode = "FIXED_RATE"
	ModeOneTime Mode = "ONE_TIME"
)

// Status is a Trigger's lifecycle state. Transitions form the graph
// PENDING_ACTIVATE -> ACTIVE <-> PAUSED -> CANCELED; CANCELED is
// terminal.
type Status string

const (
	StatusPendingActivate Status = "PENDING_ACTIVATE"
	StatusActive Status = "ACTIVE"
	StatusPaused Status = "PAUSED"
	StatusCanceled Status = "CANCELED"
)

// legalTransitions enumerates I3's allowed Status graph.
var legalTransitions = map[Status]map[Status]bool{
	StatusPendingActivate: {StatusActive: true},
	StatusActive: {StatusPaused: true, StatusCanceled: true},
	StatusPaused: {StatusActive: true, StatusCanceled: true},
	StatusCanceled: {},
}

// ValidateTransition reports an error if moving from -> to is not in
// the legal Status graph.
func ValidateTransition(from, to Status) error {
	if from == to {
		return nil
	}
	if legalTransitions[from][to] {
		return nil
	}
	return apperr.Errorf(apperr.Conflict, "trigger: illegal status transition %s -> %s", from, to)
}

// Trigger is the persisted directive record.
type Trigger struct {
	ID string
	Name string
	Mode Mode
	ScheduleValue string
	ExecuteFunction string
	ConditionFn string
	Parameters map[string]any
	SourceType string
	SourceID string
	Status Status
	BackendTaskID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExecutionStatus is a single firing's lifecycle state.
type ExecutionStatus string

const (
	ExecutionPending ExecutionStatus = "PENDING"
	ExecutionRunning ExecutionStatus = "RUNNING"
	ExecutionSuccess ExecutionStatus = "SUCCESS"
	ExecutionFailed ExecutionStatus = "FAILED"
	ExecutionTimeout ExecutionStatus = "TIMEOUT"
	ExecutionCanceled ExecutionStatus = "CANCELED"
)

// ExecutionRecord logs one firing of a Trigger.
type ExecutionRecord struct {
	ExecutionID string
	TriggerID string
	ThreadID string
	ScheduledTime time.Time
	StartTime time.Time
	EndTime time.Time
	Status ExecutionStatus
	ErrorMessage string
	OutputSummary string
	RetryCount int
}

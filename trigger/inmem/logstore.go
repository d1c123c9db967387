package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/trigger"
)

// LogStore implements trigger.ExecutionLogStore in memory.
type LogStore struct {
	mu sync.RWMutex
	records map[string]trigger.ExecutionRecord
	byTrig map[string][]string
}

// NewLogStore constructs an empty LogStore.
func NewLogStore() *LogStore {
	return &LogStore{
		records: make(map[string]trigger.ExecutionRecord),
		byTrig: make(map[string][]string),
	}
}

func (s *LogStore) Save(_ context.Context, r trigger.ExecutionRecord) (trigger.ExecutionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ExecutionID] = r
	s.byTrig[r.TriggerID] = append(s.byTrig[r.TriggerID], r.ExecutionID)
	return r, nil
}

func (s *LogStore) UpdateStatus(_ context.Context, executionID string, status trigger.ExecutionStatus, errMsg, outputSummary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[executionID]
	if !ok {
		return apperr.Errorf(apperr.NotFound, "trigger: no execution record %q", executionID)
	}
	r.Status = status
	r.ErrorMessage = errMsg
	r.OutputSummary = outputSummary
	if status == trigger.ExecutionRunning && r.StartTime.IsZero() {
		r.StartTime = time.Now().UTC()
	}
	if status == trigger.ExecutionSuccess || status == trigger.ExecutionFailed ||
		status == trigger.ExecutionTimeout || status == trigger.ExecutionCanceled {
		r.EndTime = time.Now().UTC()
	}
	s.records[executionID] = r
	return nil
}

func (s *LogStore) ListByTrigger(_ context.Context, triggerID string) ([]trigger.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byTrig[triggerID]
	out := make([]trigger.ExecutionRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id])
	}
	return out, nil
}

// Reset clears all stored records. Test-only.
func (s *LogStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]trigger.ExecutionRecord)
	s.byTrig = make(map[string][]string)
}

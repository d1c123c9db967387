// Package inmem provides the default in-process repository.LearningRepository
// for tests and single-process deployments, mirroring the mutex-guarded
// map plus defensive-copy idiom of trigger/inmem's Store.
package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/agentcore/runtime/repository"
)

// LearningRepository is a mutex-guarded, process-local
// repository.LearningRepository.
type LearningRepository struct {
	mu sync.RWMutex
	records map[string]repository.LearningRecord
}

// New constructs an empty LearningRepository.
func New() *LearningRepository {
	return &LearningRepository{records: map[string]repository.LearningRecord{}}
}

// Persist stores rec, keyed by rec.ID, overwriting any prior record with
// the same ID.
func (r *LearningRepository) Persist(_ context.Context, rec repository.LearningRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = cloneRecord(rec)
	return nil
}

// Get returns the record stored under id, if any.
func (r *LearningRepository) Get(id string) (repository.LearningRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok
}

// ListByThread returns every record for threadID, oldest first.
func (r *LearningRepository) ListByThread(threadID string) []repository.LearningRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []repository.LearningRecord
	for _, rec := range r.records {
		if rec.ThreadID == threadID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Reset clears every stored record. Test-only helper, not part of
// repository.LearningRepository.
func (r *LearningRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = map[string]repository.LearningRecord{}
}

func cloneRecord(rec repository.LearningRecord) repository.LearningRecord {
	if rec.Tags != nil {
		tags := make([]string, len(rec.Tags))
		copy(tags, rec.Tags)
		rec.Tags = tags
	}
	if rec.Metadata != nil {
		meta := make(map[string]any, len(rec.Metadata))
		for k, v := range rec.Metadata {
			meta[k] = v
		}
		rec.Metadata = meta
	}
	return rec
}

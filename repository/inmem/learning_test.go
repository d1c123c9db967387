package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/repository"
)

func fixedTime(offsetMinutes int) time.Time {
	return time.Date(2026, 1, 1, 0, offsetMinutes, 0, 0, time.UTC)
}

func TestLearningRepositoryPersistAndGet(t *testing.T) {
	repo := New()
	rec := repository.LearningRecord{ID: "r1", ThreadID: "t1", Summary: "turn invoked: search", Tags: []string{"search"}}
	require.NoError(t, repo.Persist(context.Background(), rec))

	got, ok := repo.Get("r1")
	require.True(t, ok)
	assert.Equal(t, "turn invoked: search", got.Summary)
}

func TestLearningRepositoryGetMissingReturnsFalse(t *testing.T) {
	repo := New()
	_, ok := repo.Get("missing")
	assert.False(t, ok)
}

func TestLearningRepositoryListByThreadOrdersOldestFirst(t *testing.T) {
	repo := New()
	older := repository.LearningRecord{ID: "r1", ThreadID: "t1"}
	newer := repository.LearningRecord{ID: "r2", ThreadID: "t1"}
	older.CreatedAt = fixedTime(1)
	newer.CreatedAt = fixedTime(2)

	require.NoError(t, repo.Persist(context.Background(), newer))
	require.NoError(t, repo.Persist(context.Background(), older))

	out := repo.ListByThread("t1")
	require.Len(t, out, 2)
	assert.Equal(t, "r1", out[0].ID)
	assert.Equal(t, "r2", out[1].ID)
}

func TestLearningRepositoryListByThreadExcludesOtherThreads(t *testing.T) {
	repo := New()
	require.NoError(t, repo.Persist(context.Background(), repository.LearningRecord{ID: "r1", ThreadID: "t1"}))
	require.NoError(t, repo.Persist(context.Background(), repository.LearningRecord{ID: "r2", ThreadID: "t2"}))

	out := repo.ListByThread("t1")
	require.Len(t, out, 1)
	assert.Equal(t, "r1", out[0].ID)
}

func TestLearningRepositoryResetClearsRecords(t *testing.T) {
	repo := New()
	require.NoError(t, repo.Persist(context.Background(), repository.LearningRecord{ID: "r1", ThreadID: "t1"}))
	repo.Reset()
	_, ok := repo.Get("r1")
	assert.False(t, ok)
}

func TestLearningRepositoryPersistDefensivelyCopiesMutableFields(t *testing.T) {
	repo := New()
	tags := []string{"a"}
	rec := repository.LearningRecord{ID: "r1", ThreadID: "t1", Tags: tags, Metadata: map[string]any{"k": "v"}}
	require.NoError(t, repo.Persist(context.Background(), rec))

	tags[0] = "mutated"
	got, ok := repo.Get("r1")
	require.True(t, ok)
	assert.Equal(t, "a", got.Tags[0])
}

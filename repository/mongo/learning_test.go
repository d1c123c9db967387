package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/repository"
)

type fakeClient struct {
	inserted []learningDocument
}

func (f *fakeClient) Insert(_ context.Context, doc learningDocument) error {
	f.inserted = append(f.inserted, doc)
	return nil
}

func TestRepositoryPersistInsertsDocument(t *testing.T) {
	client := &fakeClient{}
	repo, err := NewRepository(client)
	require.NoError(t, err)

	rec := repository.LearningRecord{
		ID: "rec-1",
		ThreadID: "t1",
		Summary: "turn invoked: search",
		Tags: []string{"search"},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Persist(context.Background(), rec))

	require.Len(t, client.inserted, 1)
	assert.Equal(t, "rec-1", client.inserted[0].ID)
	assert.Equal(t, "t1", client.inserted[0].ThreadID)
	assert.Equal(t, []string{"search"}, client.inserted[0].Tags)
}

func TestNewRepositoryRejectsNilClient(t *testing.T) {
	_, err := NewRepository(nil)
	assert.Error(t, err)
}

package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/agentcore/runtime/experience"
)

type fakeClient struct {
	docs map[string]experienceDocument
}

func newFakeClient() *fakeClient {
	return &fakeClient{docs: map[string]experienceDocument{}}
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) Insert(_ context.Context, doc experienceDocument) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeClient) FindByID(_ context.Context, id string) (experienceDocument, bool, error) {
	doc, ok := f.docs[id]
	return doc, ok, nil
}

func (f *fakeClient) Replace(_ context.Context, id string, doc experienceDocument) (bool, error) {
	if _, ok := f.docs[id]; !ok {
		return false, nil
	}
	f.docs[id] = doc
	return true, nil
}

func (f *fakeClient) DeleteByID(_ context.Context, id string) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeClient) Find(_ context.Context, filter bson.M) ([]experienceDocument, error) {
	var out []experienceDocument
	for _, doc := range f.docs {
		if matchesFilter(doc, filter) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// matchesFilter is a tiny equality-only filter evaluator standing in for
// Mongo's query engine in tests (the real engine is exercised by
// buildFilter's field selection, not by this fake).
func matchesFilter(doc experienceDocument, filter bson.M) bool {
	for k, v := range filter {
		switch k {
		case "scope":
			if doc.Scope != v {
				return false
			}
		case "type":
			if doc.Type != v {
				return false
			}
		case "language":
			if doc.Language != v {
				return false
			}
		case "owner_id":
			if doc.OwnerID != v {
				return false
			}
		case "project_id":
			if doc.ProjectID != v {
				return false
			}
		case "tags":
			want := v.(bson.M)["$all"].([]string)
			set := map[string]bool{}
			for _, t := range doc.Tags {
				set[t] = true
			}
			for _, t := range want {
				if !set[t] {
					return false
				}
			}
		}
	}
	return true
}

func TestRepositoryCreateGetUpdateDelete(t *testing.T) {
	repo, err := NewRepository(newFakeClient())
	require.NoError(t, err)

	created, err := repo.Create(context.Background(), experience.Experience{
		Scope: experience.ScopeGlobal, Content: "be careful with retries",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "be careful with retries", got.Content)

	got.Content = "updated"
	updated, err := repo.Update(context.Background(), got)
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Content)

	require.NoError(t, repo.Delete(context.Background(), created.ID))
	_, err = repo.Get(context.Background(), created.ID)
	assert.Error(t, err)
}

func TestRepositoryQueryScopeFallback(t *testing.T) {
	client := newFakeClient()
	repo, err := NewRepository(client)
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), experience.Experience{Scope: experience.ScopeGlobal, Content: "global"})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), experience.Experience{Scope: experience.ScopeUser, OwnerID: "u1", Content: "user-only"})
	require.NoError(t, err)

	out, err := repo.Query(context.Background(), experience.Query{OwnerID: "u1"}, experience.QueryContext{})
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "user-only", out[0].Content)
}

func TestRepositoryQueryExplicitScope(t *testing.T) {
	client := newFakeClient()
	repo, err := NewRepository(client)
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), experience.Experience{Scope: experience.ScopeTeam, Content: "team"})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), experience.Experience{Scope: experience.ScopeGlobal, Content: "global"})
	require.NoError(t, err)

	out, err := repo.Query(context.Background(), experience.Query{Scopes: []experience.Scope{experience.ScopeGlobal}}, experience.QueryContext{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "global", out[0].Content)
}

func TestRepositoryRoundTripsArtifactAndFastIntent(t *testing.T) {
	repo, err := NewRepository(newFakeClient())
	require.NoError(t, err)

	exp := experience.Experience{
		Scope: experience.ScopeGlobal,
		Type: experience.React,
		Artifact: &experience.Artifact{
			React: &experience.ReactArtifact{
				AssistantText: "done",
				Plan: experience.Plan{ToolCalls: []experience.PlannedToolCall{{Name: "search", Args: map[string]any{"q": "x"}}}},
			},
		},
		FastIntent: &experience.FastIntentConfig{Enabled: true, Priority: 3},
	}
	created, err := repo.Create(context.Background(), exp)
	require.NoError(t, err)

	got, err := repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Artifact)
	require.NotNil(t, got.Artifact.React)
	assert.Equal(t, "done", got.Artifact.React.AssistantText)
	assert.Equal(t, "search", got.Artifact.React.Plan.ToolCalls[0].Name)
	require.NotNil(t, got.FastIntent)
	assert.True(t, got.FastIntent.Enabled)
	assert.Equal(t, 3, got.FastIntent.Priority)
}

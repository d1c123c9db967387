// Package mongo wires the experience.Store interface to the MongoDB
// client, grounded on features/memory/mongo/store.go
// delegating-wrapper pattern.
package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/experience"
)

// Repository implements experience.Store by delegating to a Mongo
// Client, ranking query results with experience.Rank once Mongo has
// narrowed the candidate set to the requested scope(s).
type Repository struct {
	client Client
	maxRelevanceTextLength int
}

// Option configures a Repository at construction time.
type Option func(*Repository)

// WithMaxRelevanceTextLength overrides the default relevance-ranking
// input cap (see experience/inmem.DefaultMaxRelevanceTextLength).
func WithMaxRelevanceTextLength(n int) Option {
	return func(r *Repository) {
		if n > 0 {
			r.maxRelevanceTextLength = n
		}
	}
}

const defaultMaxRelevanceTextLength = 4096

// NewRepository builds a Mongo-backed experience.Store using the
// provided client.
func NewRepository(client Client, opts ...Option) (*Repository, error) {
	if client == nil {
		return nil, apperr.New(apperr.InvalidInput, "experience/mongo: client is required")
	}
	r := &Repository{client: client, maxRelevanceTextLength: defaultMaxRelevanceTextLength}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewRepositoryFromOptions is a helper that instantiates the underlying
// client using the given Options.
func NewRepositoryFromOptions(opts Options) (*Repository, error) {
	client, err := New(opts)
	if err != nil {
		return nil, err
	}
	return NewRepository(client)
}

// Create assigns exp an ID if it has none and inserts it.
func (r *Repository) Create(ctx context.Context, exp experience.Experience) (experience.Experience, error) {
	if exp.ID == "" {
		exp.ID = newID()
	}
	if err := r.client.Insert(ctx, toDocument(exp)); err != nil {
		return experience.Experience{}, apperr.Wrap(apperr.ExternalFailure, "experience/mongo: insert failed", err)
	}
	return exp, nil
}

// Get returns the experience stored under id.
func (r *Repository) Get(ctx context.Context, id string) (experience.Experience, error) {
	doc, ok, err := r.client.FindByID(ctx, id)
	if err != nil {
		return experience.Experience{}, apperr.Wrap(apperr.ExternalFailure, "experience/mongo: find failed", err)
	}
	if !ok {
		return experience.Experience{}, apperr.Errorf(apperr.NotFound, "experience: %q not found", id)
	}
	return fromDocument(doc), nil
}

// Update replaces the stored experience with the same ID.
func (r *Repository) Update(ctx context.Context, exp experience.Experience) (experience.Experience, error) {
	if exp.ID == "" {
		return experience.Experience{}, apperr.New(apperr.InvalidInput, "experience/mongo: update requires an id")
	}
	matched, err := r.client.Replace(ctx, exp.ID, toDocument(exp))
	if err != nil {
		return experience.Experience{}, apperr.Wrap(apperr.ExternalFailure, "experience/mongo: replace failed", err)
	}
	if !matched {
		return experience.Experience{}, apperr.Errorf(apperr.NotFound, "experience: %q not found", exp.ID)
	}
	return exp, nil
}

// Delete removes the experience stored under id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.client.DeleteByID(ctx, id); err != nil {
		return apperr.Wrap(apperr.ExternalFailure, "experience/mongo: delete failed", err)
	}
	return nil
}

// Query implements scope-fallback + text-relevance ranking. Mongo
// narrows each scope step's candidate set
// via an indexed filter on (type, scope, owner_id, project_id); ranking
// (text relevance or order_by) runs in Go via experience.Rank, shared
// with experience/inmem so both Store implementations rank identically.
func (r *Repository) Query(ctx context.Context, q experience.Query, _ experience.QueryContext) ([]experience.Experience, error) {
	var candidates []experience.Experience
	seen := map[string]bool{}

	appendUnique := func(docs []experienceDocument) {
		for _, doc := range docs {
			if seen[doc.ID] {
				continue
			}
			seen[doc.ID] = true
			candidates = append(candidates, fromDocument(doc))
		}
	}

	steps := scopeSteps(q.Scopes)
	for _, step := range steps {
		filter := buildFilter(q, step)
		docs, err := r.client.Find(ctx, filter)
		if err != nil {
			return nil, apperr.Wrap(apperr.ExternalFailure, "experience/mongo: query failed", err)
		}
		appendUnique(docs)
	}

	ranked := experience.Rank(candidates, q, r.maxRelevanceTextLength)
	if q.Limit > 0 && len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}
	return ranked, nil
}

type scopeStep struct {
	scope experience.Scope
	requireProject bool
}

// scopeSteps returns the explicit scopes as single steps if the query
// names them, otherwise the default fallback order expanded
// into concrete (scope, requireProject) steps (mirroring
// experience/inmem.defaultScopeSteps).
func scopeSteps(scopes []experience.Scope) []scopeStep {
	if len(scopes) > 0 {
		steps := make([]scopeStep, len(scopes))
		for i, sc := range scopes {
			steps[i] = scopeStep{scope: sc}
		}
		return steps
	}
	return []scopeStep{
		{experience.ScopeUser, true},
		{experience.ScopeUser, false},
		{experience.ScopeTeam, true},
		{experience.ScopeTeam, false},
		{experience.ScopeProject, false},
		{experience.ScopeGlobal, false},
	}
}

func buildFilter(q experience.Query, step scopeStep) bson.M {
	filter := bson.M{"scope": string(step.scope)}
	if q.Type != "" {
		filter["type"] = string(q.Type)
	}
	if q.Language != "" {
		filter["language"] = q.Language
	}
	if len(q.Tags) > 0 {
		filter["tags"] = bson.M{"$all": q.Tags}
	}
	if q.OwnerID != "" {
		filter["owner_id"] = q.OwnerID
	}
	if step.requireProject {
		filter["project_id"] = q.ProjectID
	} else if q.ProjectID != "" {
		filter["project_id"] = q.ProjectID
	}
	return filter
}

func newID() string {
	return bson.NewObjectID().Hex()
}

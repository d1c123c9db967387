package experience

import "context"

// Store is the CRUD + query contract over Experience records.
// Implementations: experience/inmem for tests and small
// deployments, experience/mongo for a durable catalog backed by
// go.mongodb.org/mongo-driver/v2, optionally fronted by
// experience/redis for the fast-intent hot path.
type Store interface {
	Create(ctx context.Context, exp Experience) (Experience, error)
	Get(ctx context.Context, id string) (Experience, error)
	Update(ctx context.Context, exp Experience) (Experience, error)
	Delete(ctx context.Context, id string) error

	// Query returns experiences matching q. Candidates come from
	// q.Scopes, or from the default scope-fallback steps when q.Scopes
	// is unset, and are ordered by text relevance when q.Text is set,
	// otherwise by q.OrderBy. Scope priority does not set the order; it
	// survives only among candidates that tie on that sort.
	Query(ctx context.Context, q Query, qctx QueryContext) ([]Experience, error)
}

// Package mongo implements a durable repository.LearningRepository on
// top of go.mongodb.org/mongo-driver/v2, grounded on experience/mongo's
// Client/Repository split (a thin Client interface over the raw driver,
// a Repository that translates to/from a dedicated BSON document shape).
package mongo

import (
	"context"
	"time"

	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/repository"
)

const (
	defaultCollection = "learning_records"
	defaultTimeout = 5 * time.Second
)

// Client exposes the Mongo operations Repository delegates to.
type Client interface {
	Insert(ctx context.Context, doc learningDocument) error
}

// Options configures the Mongo client implementation.
type Options struct {
	Client *mongodriver.Client
	Database string
	Collection string
	Timeout time.Duration
}

type client struct {
	coll *mongodriver.Collection
	timeout time.Duration
}

// NewClient returns a Client backed by the provided MongoDB client.
func NewClient(opts Options) (Client, error) {
	if opts.Client == nil {
		return nil, apperr.New(apperr.InvalidInput, "repository/mongo: Client is required")
	}
	if opts.Database == "" {
		return nil, apperr.New(apperr.InvalidInput, "repository/mongo: Database is required")
	}
	collName := opts.Collection
	if collName == "" {
		collName = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	coll := opts.Client.Database(opts.Database).Collection(collName)
	return &client{coll: coll, timeout: timeout}, nil
}

func (c *client) Insert(ctx context.Context, doc learningDocument) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	_, err := c.coll.InsertOne(ctx, doc)
	return err
}

func (c *client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, c.timeout)
}

// learningDocument is the BSON shape stored per repository.LearningRecord.
type learningDocument struct {
	ID string `bson:"_id"`
	ThreadID string `bson:"thread_id"`
	RunID string `bson:"run_id,omitempty"`
	Phase string `bson:"phase,omitempty"`
	Summary string `bson:"summary"`
	Tags []string `bson:"tags,omitempty"`
	Metadata map[string]any `bson:"metadata,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func toDocument(rec repository.LearningRecord) learningDocument {
	return learningDocument{
		ID: rec.ID,
		ThreadID: rec.ThreadID,
		RunID: rec.RunID,
		Phase: rec.Phase,
		Summary: rec.Summary,
		Tags: rec.Tags,
		Metadata: rec.Metadata,
		CreatedAt: rec.CreatedAt,
	}
}

// Repository implements repository.LearningRepository by inserting every
// record into Mongo; unlike experience/mongo's Repository, learning
// traces are append-only, so there is no Update/Delete/Query surface —
// just Persist.
type Repository struct {
	client Client
}

// NewRepository builds a Mongo-backed repository.LearningRepository using
// the provided Client.
func NewRepository(client Client) (*Repository, error) {
	if client == nil {
		return nil, apperr.New(apperr.InvalidInput, "repository/mongo: client is required")
	}
	return &Repository{client: client}, nil
}

// Persist inserts rec.
func (r *Repository) Persist(ctx context.Context, rec repository.LearningRecord) error {
	if err := r.client.Insert(ctx, toDocument(rec)); err != nil {
		return apperr.Wrap(apperr.ExternalFailure, "repository/mongo: insert failed", err)
	}
	return nil
}

// Package mongo implements the low-level MongoDB client backing
// experience.Store ( supplemental domain-stack wiring),
// grounded on features/memory/mongo/clients/mongo client
// but adapted to the go.mongodb.org/mongo-driver/v2 API.
package mongo

import (
	"context"
	"errors"
	"time"

	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/agentcore/runtime/experience"
)

const (
	defaultCollection = "experiences"
	defaultTimeout = 5 * time.Second
)

// Client exposes the Mongo-backed operations experience/mongo.Repository
// delegates to.
type Client interface {
	Ping(ctx context.Context) error
	Insert(ctx context.Context, doc experienceDocument) error
	FindByID(ctx context.Context, id string) (experienceDocument, bool, error)
	Replace(ctx context.Context, id string, doc experienceDocument) (bool, error)
	DeleteByID(ctx context.Context, id string) error
	Find(ctx context.Context, filter bson.M) ([]experienceDocument, error)
}

// Options configures the Mongo client implementation.
type Options struct {
	Client *mongodriver.Client
	Database string
	Collection string
	Timeout time.Duration
}

type client struct {
	mongo *mongodriver.Client
	coll collection
	timeout time.Duration
}

// New returns a Client backed by the provided MongoDB client, creating the
// secondary index on (type, scope, owner_id, project_id) if it does
// not already exist.
func New(opts Options) (Client, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	collName := opts.Collection
	if collName == "" {
		collName = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	mcoll := opts.Client.Database(opts.Database).Collection(collName)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	wrapper := mongoCollection{coll: mcoll}
	if err := ensureIndexes(ctx, wrapper); err != nil {
		return nil, err
	}
	return &client{mongo: opts.Client, coll: wrapper, timeout: timeout}, nil
}

func (c *client) Ping(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.mongo.Ping(ctx, readpref.Primary())
}

func (c *client) Insert(ctx context.Context, doc experienceDocument) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	_, err := c.coll.InsertOne(ctx, doc)
	return err
}

func (c *client) FindByID(ctx context.Context, id string) (experienceDocument, bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	var doc experienceDocument
	if err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return experienceDocument{}, false, nil
		}
		return experienceDocument{}, false, err
	}
	return doc, true, nil
}

func (c *client) Replace(ctx context.Context, id string, doc experienceDocument) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (c *client) DeleteByID(ctx context.Context, id string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	_, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (c *client) Find(ctx context.Context, filter bson.M) ([]experienceDocument, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	cur, err := c.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []experienceDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func ensureIndexes(ctx context.Context, coll collection) error {
	index := mongodriver.IndexModel{
		Keys: bson.D{
			{Key: "type", Value: 1},
			{Key: "scope", Value: 1},
			{Key: "owner_id", Value: 1},
			{Key: "project_id", Value: 1},
		},
	}
	_, err := coll.Indexes().CreateOne(ctx, index)
	return err
}

// experienceDocument is the BSON shape stored per experience.Experience,
// kept separate from the domain type the way a storage layer keeps its
// document split from its domain shape.
type experienceDocument struct {
	ID string `bson:"_id"`
	Type string `bson:"type"`
	Scope string `bson:"scope"`
	OwnerID string `bson:"owner_id,omitempty"`
	ProjectID string `bson:"project_id,omitempty"`
	Title string `bson:"title"`
	Content string `bson:"content"`
	Language string `bson:"language,omitempty"`
	Tags []string `bson:"tags,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	Metadata metadataDoc `bson:"metadata,omitempty"`
	Artifact *artifactDoc `bson:"artifact,omitempty"`
	FastIntent *fastIntentDoc `bson:"fast_intent_config,omitempty"`
}

type metadataDoc struct {
	Confidence float64 `bson:"confidence,omitempty"`
	Source string `bson:"source,omitempty"`
	Version int `bson:"version,omitempty"`
	Extra map[string]any `bson:"extra,omitempty"`
}

type artifactDoc struct {
	Code *codeArtifactDoc `bson:"code,omitempty"`
	React *reactArtifactDoc `bson:"react,omitempty"`
}

type codeArtifactDoc struct {
	Language string `bson:"language,omitempty"`
	FunctionName string `bson:"function_name,omitempty"`
	Parameters []string `bson:"parameters,omitempty"`
	Code string `bson:"code,omitempty"`
	Description string `bson:"description,omitempty"`
}

type reactArtifactDoc struct {
	AssistantText string `bson:"assistant_text,omitempty"`
	ToolCalls []plannedCallDoc `bson:"tool_calls,omitempty"`
}

type plannedCallDoc struct {
	Name string `bson:"name"`
	Args map[string]any `bson:"args,omitempty"`
}

type fastIntentDoc struct {
	Enabled bool `bson:"enabled"`
	Priority int `bson:"priority"`
	MatchExpression map[string]any `bson:"match_expression,omitempty"`
}

func toDocument(exp experience.Experience) experienceDocument {
	doc := experienceDocument{
		ID: exp.ID,
		Type: string(exp.Type),
		Scope: string(exp.Scope),
		OwnerID: exp.OwnerID,
		ProjectID: exp.ProjectID,
		Title: exp.Title,
		Content: exp.Content,
		Language: exp.Language,
		Tags: exp.Tags,
		CreatedAt: exp.CreatedAt,
		UpdatedAt: exp.UpdatedAt,
		Metadata: metadataDoc{
			Confidence: exp.Metadata.Confidence,
			Source: exp.Metadata.Source,
			Version: exp.Metadata.Version,
			Extra: exp.Metadata.Extra,
		},
	}
	if exp.Artifact != nil {
		doc.Artifact = &artifactDoc{}
		if exp.Artifact.Code != nil {
			doc.Artifact.Code = &codeArtifactDoc{
				Language: exp.Artifact.Code.Language,
				FunctionName: exp.Artifact.Code.FunctionName,
				Parameters: exp.Artifact.Code.Parameters,
				Code: exp.Artifact.Code.Code,
				Description: exp.Artifact.Code.Description,
			}
		}
		if exp.Artifact.React != nil {
			calls := make([]plannedCallDoc, len(exp.Artifact.React.Plan.ToolCalls))
			for i, tc := range exp.Artifact.React.Plan.ToolCalls {
				calls[i] = plannedCallDoc{Name: tc.Name, Args: tc.Args}
			}
			doc.Artifact.React = &reactArtifactDoc{
				AssistantText: exp.Artifact.React.AssistantText,
				ToolCalls: calls,
			}
		}
	}
	if exp.FastIntent != nil {
		doc.FastIntent = &fastIntentDoc{
			Enabled: exp.FastIntent.Enabled,
			Priority: exp.FastIntent.Priority,
		}
	}
	return doc
}

func fromDocument(doc experienceDocument) experience.Experience {
	exp := experience.Experience{
		ID: doc.ID,
		Type: experience.Type(doc.Type),
		Scope: experience.Scope(doc.Scope),
		OwnerID: doc.OwnerID,
		ProjectID: doc.ProjectID,
		Title: doc.Title,
		Content: doc.Content,
		Language: doc.Language,
		Tags: doc.Tags,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		Metadata: experience.Metadata{
			Confidence: doc.Metadata.Confidence,
			Source: doc.Metadata.Source,
			Version: doc.Metadata.Version,
			Extra: doc.Metadata.Extra,
		},
	}
	if doc.Artifact != nil {
		exp.Artifact = &experience.Artifact{}
		if doc.Artifact.Code != nil {
			exp.Artifact.Code = &experience.CodeArtifact{
				Language: doc.Artifact.Code.Language,
				FunctionName: doc.Artifact.Code.FunctionName,
				Parameters: doc.Artifact.Code.Parameters,
				Code: doc.Artifact.Code.Code,
				Description: doc.Artifact.Code.Description,
			}
		}
		if doc.Artifact.React != nil {
			calls := make([]experience.PlannedToolCall, len(doc.Artifact.React.ToolCalls))
			for i, tc := range doc.Artifact.React.ToolCalls {
				calls[i] = experience.PlannedToolCall{Name: tc.Name, Args: tc.Args}
			}
			exp.Artifact.React = &experience.ReactArtifact{
				AssistantText: doc.Artifact.React.AssistantText,
				Plan: experience.Plan{ToolCalls: calls},
			}
		}
	}
	if doc.FastIntent != nil {
		exp.FastIntent = &experience.FastIntentConfig{
			Enabled: doc.FastIntent.Enabled,
			Priority: doc.FastIntent.Priority,
		}
	}
	return exp
}

type collection interface {
	InsertOne(ctx context.Context, document any) (*mongodriver.InsertOneResult, error)
	FindOne(ctx context.Context, filter any) singleResult
	ReplaceOne(ctx context.Context, filter, replacement any) (*mongodriver.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any) (*mongodriver.DeleteResult, error)
	Find(ctx context.Context, filter any) (*mongodriver.Cursor, error)
	Indexes() indexView
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) (string, error)
}

type singleResult interface {
	Decode(val any) error
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) InsertOne(ctx context.Context, document any) (*mongodriver.InsertOneResult, error) {
	return c.coll.InsertOne(ctx, document)
}

func (c mongoCollection) FindOne(ctx context.Context, filter any) singleResult {
	return c.coll.FindOne(ctx, filter)
}

func (c mongoCollection) ReplaceOne(ctx context.Context, filter, replacement any) (*mongodriver.UpdateResult, error) {
	return c.coll.ReplaceOne(ctx, filter, replacement)
}

func (c mongoCollection) DeleteOne(ctx context.Context, filter any) (*mongodriver.DeleteResult, error) {
	return c.coll.DeleteOne(ctx, filter)
}

func (c mongoCollection) Find(ctx context.Context, filter any) (*mongodriver.Cursor, error) {
	return c.coll.Find(ctx, filter)
}

func (c mongoCollection) Indexes() indexView {
	return c.coll.Indexes()
}

// Package mongodb stores progress records as documents, one per player.
// Updates upsert, so the first write for a player creates its document.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"network-leveling/internal/adapters/metrics"
	"network-leveling/internal/core/domain"
	"network-leveling/internal/wire"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const backendName = "mongodb"

// Collection is the subset of *mongo.Collection the ledger uses.
type Collection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type indexCreator interface {
	CreateOne(ctx context.Context, model mongo.IndexModel, opts ...*options.CreateIndexesOptions) (string, error)
}

type Options struct {
	URI            string
	Database       string
	Collection     string
	MinConns       uint64
	MaxConns       uint64
	AcquireTimeout time.Duration
}

type MongoLedger struct {
	client  *mongo.Client
	coll    Collection
	indexes indexCreator
	timeout time.Duration
}

func NewMongoLedger(ctx context.Context, opts Options) (*MongoLedger, error) {
	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetMinPoolSize(opts.MinConns)
	if opts.MaxConns > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxConns)
	}
	if opts.AcquireTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(opts.AcquireTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := withTimeout(ctx, opts.AcquireTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	coll := client.Database(opts.Database).Collection(opts.Collection)
	l := newMongoLedger(coll, opts.AcquireTimeout)
	l.client = client
	l.indexes = coll.Indexes()
	return l, nil
}

func newMongoLedger(coll Collection, timeout time.Duration) *MongoLedger {
	return &MongoLedger{coll: coll, timeout: timeout}
}

// EnsureIndex adds a unique index on key so lookups stay cheap and a
// player cannot end up with two documents.
func (l *MongoLedger) EnsureIndex(ctx context.Context, key string) error {
	if l.indexes == nil {
		return nil
	}
	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	_, err := l.indexes.CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: key, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("%w: create index on %s: %v", domain.ErrLedgerUnavailable, key, err)
	}
	return nil
}

func (l *MongoLedger) Close() error {
	if l.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return l.client.Disconnect(ctx)
}

func (l *MongoLedger) Find(ctx context.Context, key string, value any) (docs []domain.Document, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedger(backendName, "find", start, err) }()

	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	cur, err := l.coll.Find(ctx, bson.D{{Key: key, Value: value}})
	if err != nil {
		return nil, fmt.Errorf("%w: find %s: %v", domain.ErrLedgerUnavailable, key, err)
	}

	var results []bson.M
	if err := cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrLedgerUnavailable, key, err)
	}

	docs = make([]domain.Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, domain.Document(r))
	}
	return docs, nil
}

// Update applies fields with $set, creating the document when none matches.
func (l *MongoLedger) Update(ctx context.Context, keyWhere string, valueWhere any, fields []wire.Field) (ok bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedger(backendName, "update", start, err) }()

	if len(fields) == 0 {
		return false, fmt.Errorf("%w: update without fields", domain.ErrUnsupportedQuery)
	}

	set := make(bson.D, 0, len(fields))
	for _, f := range fields {
		set = append(set, bson.E{Key: f.Name, Value: f.Value})
	}

	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	res, err := l.coll.UpdateOne(ctx,
		bson.D{{Key: keyWhere, Value: valueWhere}},
		bson.D{{Key: "$set", Value: set}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("%w: update %s: %v", domain.ErrLedgerUnavailable, keyWhere, err)
	}
	return res.MatchedCount > 0 || res.UpsertedCount > 0, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// Package mongostore keeps each document kind in its own MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
	"github.com/YouWantToPinch/dashboard-api/internal/store"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to uri and prepares the indexes every kind relies on.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	kinds := append([]model.Kind{model.KindUser}, model.Kinds...)
	for _, kind := range kinds {
		idx := []mongo.IndexModel{{Keys: bson.D{{Key: "owner", Value: 1}}}}
		for _, field := range store.UniqueFields[kind] {
			idx = append(idx, mongo.IndexModel{
				Keys:    bson.D{{Key: field, Value: 1}},
				Options: options.Index().SetUnique(true),
			})
		}
		if _, err := s.db.Collection(kind.Plural()).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("index %s: %w", kind.Plural(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Collection adapts one mongo collection to store.Collection.
type Collection[D model.Document] struct {
	coll *mongo.Collection
	kind model.Kind
}

func NewCollection[D model.Document](s *Store, kind model.Kind) *Collection[D] {
	return &Collection[D]{coll: s.db.Collection(kind.Plural()), kind: kind}
}

func (c *Collection[D]) Insert(ctx context.Context, doc D) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert %s %s: %w", c.kind, doc.Meta().ID, store.ErrConflict)
		}
		return fmt.Errorf("insert %s: %w", c.kind, err)
	}
	return nil
}

func (c *Collection[D]) Get(ctx context.Context, id uuid.UUID) (D, error) {
	return c.decodeOne(c.coll.FindOne(ctx, bson.M{"_id": id}))
}

func (c *Collection[D]) ListByOwner(ctx context.Context, owner uuid.UUID) ([]D, error) {
	cur, err := c.coll.Find(ctx, bson.M{"owner": owner})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.kind.Plural(), err)
	}
	docs := make([]D, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list %s: %w", c.kind.Plural(), err)
	}
	return docs, nil
}

func (c *Collection[D]) FindOne(ctx context.Context, field, value string) (D, error) {
	return c.decodeOne(c.coll.FindOne(ctx, bson.M{field: value}))
}

func (c *Collection[D]) Replace(ctx context.Context, doc D) error {
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": doc.Meta().ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("replace %s %s: %w", c.kind, doc.Meta().ID, store.ErrConflict)
		}
		return fmt.Errorf("replace %s: %w", c.kind, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *Collection[D]) PatchOwned(ctx context.Context, id, owner uuid.UUID, fields map[string]any, at time.Time) (D, error) {
	update := bson.M{"$set": store.PatchFields(fields, at)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return c.decodeOne(c.coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "owner": owner}, update, opts))
}

func (c *Collection[D]) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.kind, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *Collection[D]) DeleteAll(ctx context.Context) error {
	if _, err := c.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("delete all %s: %w", c.kind.Plural(), err)
	}
	return nil
}

func (c *Collection[D]) Count(ctx context.Context) (int64, error) {
	return c.coll.CountDocuments(ctx, bson.M{})
}

func (c *Collection[D]) decodeOne(res *mongo.SingleResult) (D, error) {
	var doc D
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return doc, store.ErrNotFound
		}
		return doc, fmt.Errorf("read %s: %w", c.kind, err)
	}
	return doc, nil
}

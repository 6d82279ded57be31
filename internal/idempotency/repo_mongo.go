package idempotency

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repo with the _id uniqueness of a collection. A TTL
// index reaps expired records in the background.
type MongoRepo struct {
	coll *mongo.Collection
}

type mongoRecord struct {
	Key       string    `bson:"_id"`
	OwnerID   string    `bson:"owner_id"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// NewMongoRepo returns a repo over db.idempotency_keys and ensures its indexes.
func NewMongoRepo(ctx context.Context, db *mongo.Database) (*MongoRepo, error) {
	coll := db.Collection("idempotency_keys")
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, err
	}
	return &MongoRepo{coll: coll}, nil
}

// InsertUnique inserts rec; a duplicate _id maps to ErrKeyExists.
func (r *MongoRepo) InsertUnique(ctx context.Context, rec Record) error {
	_, err := r.coll.InsertOne(ctx, mongoRecord{
		Key:       rec.Key,
		OwnerID:   rec.OwnerID,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrKeyExists
	}
	return err
}

// Delete removes a record by key.
func (r *MongoRepo) Delete(ctx context.Context, key string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

var _ Repo = (*MongoRepo)(nil)

package answers

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repo on a MongoDB collection.
type MongoRepo struct {
	coll *mongo.Collection
}

type mongoAnswer struct {
	ID         string    `bson:"_id"`
	OwnerID    string    `bson:"owner_id"`
	DocumentID string    `bson:"document_id"`
	Question   string    `bson:"question"`
	Answer     string    `bson:"answer"`
	Sources    []string  `bson:"sources"`
	CreatedAt  time.Time `bson:"created_at"`
	ExpiresAt  time.Time `bson:"expires_at"`
}

// NewMongoRepo returns a repo over db.cached_answers and ensures its indexes.
func NewMongoRepo(ctx context.Context, db *mongo.Database) (*MongoRepo, error) {
	coll := db.Collection("cached_answers")
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "owner_id", Value: 1},
			{Key: "document_id", Value: 1},
			{Key: "question", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return nil, err
	}
	return &MongoRepo{coll: coll}, nil
}

// Create inserts a row.
func (r *MongoRepo) Create(ctx context.Context, a CachedAnswer) error {
	sources := a.Sources
	if sources == nil {
		sources = []string{}
	}
	_, err := r.coll.InsertOne(ctx, mongoAnswer{
		ID:         a.ID,
		OwnerID:    a.OwnerID,
		DocumentID: a.DocumentID,
		Question:   a.Question,
		Answer:     a.Answer,
		Sources:    sources,
		CreatedAt:  a.CreatedAt,
		ExpiresAt:  a.ExpiresAt,
	})
	return err
}

// FindLatestValid returns the newest unexpired row for the fingerprint.
func (r *MongoRepo) FindLatestValid(ctx context.Context, ownerID, documentID, question string, now time.Time) (CachedAnswer, error) {
	filter := bson.M{
		"owner_id":    ownerID,
		"document_id": documentID,
		"question":    question,
		"expires_at":  bson.M{"$gt": now},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var row mongoAnswer
	err := r.coll.FindOne(ctx, filter, opts).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return CachedAnswer{}, ErrNotFound
	}
	if err != nil {
		return CachedAnswer{}, err
	}
	return row.toAnswer(), nil
}

// CountByOwner counts the owner's rows.
func (r *MongoRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"owner_id": ownerID})
	return int(n), err
}

// Recent returns the owner's newest rows.
func (r *MongoRepo) Recent(ctx context.Context, ownerID string, limit int) ([]CachedAnswer, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []mongoAnswer
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]CachedAnswer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toAnswer())
	}
	return out, nil
}

func (m mongoAnswer) toAnswer() CachedAnswer {
	sources := m.Sources
	if sources == nil {
		sources = []string{}
	}
	return CachedAnswer{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		DocumentID: m.DocumentID,
		Question:   m.Question,
		Answer:     m.Answer,
		Sources:    sources,
		CreatedAt:  m.CreatedAt.UTC(),
		ExpiresAt:  m.ExpiresAt.UTC(),
	}
}

var _ Repo = (*MongoRepo)(nil)

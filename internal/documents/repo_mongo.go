package documents

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repo on a MongoDB collection.
type MongoRepo struct {
	coll *mongo.Collection
}

type mongoDocument struct {
	ID            string     `bson:"_id"`
	OwnerID       string     `bson:"owner_id"`
	OriginalName  string     `bson:"original_name"`
	MediaType     string     `bson:"media_type"`
	ByteSize      int64      `bson:"byte_size"`
	StorageRef    string     `bson:"storage_ref"`
	SHA256        string     `bson:"sha256"`
	Visibility    string     `bson:"visibility"`
	ShareToken    string     `bson:"share_token,omitempty"`
	ExtractedText *string    `bson:"extracted_text,omitempty"`
	ProcessedAt   *time.Time `bson:"processed_at,omitempty"`
	CreatedAt     time.Time  `bson:"created_at"`
}

// NewMongoRepo returns a repo over db.documents and ensures its indexes.
func NewMongoRepo(ctx context.Context, db *mongo.Database) (*MongoRepo, error) {
	coll := db.Collection("documents")
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "share_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return nil, err
	}
	return &MongoRepo{coll: coll}, nil
}

// Create inserts a new document.
func (r *MongoRepo) Create(ctx context.Context, doc Document) error {
	visibility := doc.Visibility
	if visibility == "" {
		visibility = VisibilityPrivate
	}
	_, err := r.coll.InsertOne(ctx, mongoDocument{
		ID:           doc.ID,
		OwnerID:      doc.OwnerID,
		OriginalName: doc.OriginalName,
		MediaType:    doc.MediaType,
		ByteSize:     doc.ByteSize,
		StorageRef:   doc.StorageRef,
		SHA256:       doc.SHA256,
		Visibility:   string(visibility),
		ShareToken:   doc.ShareToken,
		CreatedAt:    doc.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), "share_token") {
			return ErrDuplicateToken
		}
		return ErrDuplicateID
	}
	return err
}

// GetByID fetches a document by ID for an owner.
func (r *MongoRepo) GetByID(ctx context.Context, ownerID, documentID string) (Document, error) {
	return r.findOne(ctx, bson.M{"_id": documentID, "owner_id": ownerID})
}

// GetByShareToken fetches a public document by share token.
func (r *MongoRepo) GetByShareToken(ctx context.Context, token string) (Document, error) {
	if token == "" {
		return Document{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"share_token": token, "visibility": string(VisibilityPublic)})
}

// ListByOwner lists documents newest first with the owner's total.
func (r *MongoRepo) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]Document, int, error) {
	filter := bson.M{"owner_id": ownerID}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	docs, err := r.findMany(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return docs, int(total), nil
}

// ListPending returns unprocessed documents in insertion order.
func (r *MongoRepo) ListPending(ctx context.Context, ownerID string) ([]Document, error) {
	filter := bson.M{"owner_id": ownerID, "extracted_text": bson.M{"$exists": false}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.findMany(ctx, filter, opts)
}

// SetExtractedText sets text and processed time with a single $set.
func (r *MongoRepo) SetExtractedText(ctx context.Context, ownerID, documentID, text string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": documentID, "owner_id": ownerID},
		bson.M{"$set": bson.M{"extracted_text": text, "processed_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByOwner counts total and processed documents.
func (r *MongoRepo) CountByOwner(ctx context.Context, ownerID string) (Counts, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return Counts{}, err
	}
	processed, err := r.coll.CountDocuments(ctx, bson.M{"owner_id": ownerID, "extracted_text": bson.M{"$exists": true}})
	if err != nil {
		return Counts{}, err
	}
	return Counts{Total: int(total), Processed: int(processed)}, nil
}

func (r *MongoRepo) findOne(ctx context.Context, filter bson.M) (Document, error) {
	var md mongoDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&md); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return md.toDocument(), nil
}

func (r *MongoRepo) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Document, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Document{}
	for cur.Next(ctx) {
		var md mongoDocument
		if err := cur.Decode(&md); err != nil {
			return nil, err
		}
		out = append(out, md.toDocument())
	}
	return out, cur.Err()
}

func (md mongoDocument) toDocument() Document {
	doc := Document{
		ID:            md.ID,
		OwnerID:       md.OwnerID,
		OriginalName:  md.OriginalName,
		MediaType:     md.MediaType,
		ByteSize:      md.ByteSize,
		StorageRef:    md.StorageRef,
		SHA256:        md.SHA256,
		Visibility:    Visibility(md.Visibility),
		ShareToken:    md.ShareToken,
		ExtractedText: md.ExtractedText,
		CreatedAt:     md.CreatedAt.UTC(),
	}
	if md.ProcessedAt != nil {
		at := md.ProcessedAt.UTC()
		doc.ProcessedAt = &at
	}
	return doc
}

var _ Repo = (*MongoRepo)(nil)

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultHistoryCollection = "chat_sessions"

	// DefaultHistoryLimit caps ListByUser when no positive limit is given.
	DefaultHistoryLimit = 20
)

// MongoHistoryRepository implements HistoryRepository using MongoDB.
type MongoHistoryRepository struct {
	collection *mongo.Collection
}

// NewMongoHistoryRepository creates a new MongoHistoryRepository.
// collectionName defaults to "chat_sessions" if empty.
func NewMongoHistoryRepository(db *mongo.Database, collectionName string) *MongoHistoryRepository {
	if collectionName == "" {
		collectionName = DefaultHistoryCollection
	}
	return &MongoHistoryRepository{
		collection: db.Collection(collectionName),
	}
}

func (r *MongoHistoryRepository) Create(ctx context.Context, record *model.ChatRecord) error {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("repository: insert chat record for session %q: %w", record.SessionID, err)
	}

	return nil
}

func (r *MongoHistoryRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]model.ChatRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("repository: find chat records for user %q: %w", userID, err)
	}

	records := []model.ChatRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("repository: decode chat records for user %q: %w", userID, err)
	}

	return records, nil
}

func (r *MongoHistoryRepository) Get(ctx context.Context, id string) (*model.ChatRecord, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var record model.ChatRecord
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repository: find chat record %q: %w", id, err)
	}

	return &record, nil
}

func (r *MongoHistoryRepository) UpdateTitle(ctx context.Context, id string, title string) (*model.ChatRecord, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var record model.ChatRecord
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"title": title}},
		opts,
	).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repository: update chat record %q: %w", id, err)
	}

	return &record, nil
}

func (r *MongoHistoryRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("repository: delete chat record %q: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

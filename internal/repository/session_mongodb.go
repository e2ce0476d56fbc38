package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultSessionsCollection = "sessions"

type sessionDocument struct {
	ID        string          `bson:"_id"`
	Turns     []model.Content `bson:"turns"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

// MongoSessionRepository keeps live sessions in a MongoDB collection, one
// document per session.
type MongoSessionRepository struct {
	collection *mongo.Collection
	ttl        time.Duration
	now        func() time.Time
}

// NewMongoSessionRepository creates a MongoSessionRepository. Sessions idle
// for longer than ttl are treated as absent; ttl <= 0 keeps them forever.
// collectionName defaults to DefaultSessionsCollection.
func NewMongoSessionRepository(db *mongo.Database, collectionName string, ttl time.Duration) *MongoSessionRepository {
	if collectionName == "" {
		collectionName = DefaultSessionsCollection
	}
	return &MongoSessionRepository{
		collection: db.Collection(collectionName),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MongoSessionRepository) Save(ctx context.Context, sessionID string, turns []model.Content) error {
	doc := sessionDocument{
		ID:        sessionID,
		Turns:     turns,
		UpdatedAt: r.now().UTC(),
	}

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": sessionID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("repository: save session %q: %w", sessionID, err)
	}
	return nil
}

func (r *MongoSessionRepository) Load(ctx context.Context, sessionID string) ([]model.Content, error) {
	filter := bson.M{"_id": sessionID}
	if r.ttl > 0 {
		filter["updated_at"] = bson.M{"$gte": r.now().UTC().Add(-r.ttl)}
	}

	var doc sessionDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("repository: load session %q: %w", sessionID, err)
	}

	if doc.Turns == nil {
		doc.Turns = []model.Content{}
	}
	return doc.Turns, nil
}

func (r *MongoSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("repository: delete session %q: %w", sessionID, err)
	}
	return nil
}

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

const DefaultPreferencesCollection = "user_preferences"

// MongoPreferencesRepository implements PreferencesRepository using MongoDB.
type MongoPreferencesRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoPreferencesRepository creates a new MongoPreferencesRepository.
// collectionName defaults to "user_preferences" if empty.
func NewMongoPreferencesRepository(db *mongo.Database, collectionName string) *MongoPreferencesRepository {
	if collectionName == "" {
		collectionName = DefaultPreferencesCollection
	}
	return &MongoPreferencesRepository{
		collection: db.Collection(collectionName),
		now:        time.Now,
	}
}

func (r *MongoPreferencesRepository) Get(ctx context.Context, userID string) (*model.Preferences, error) {
	var prefs model.Preferences
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&prefs)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &model.Preferences{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: find preferences for user %q: %w", userID, err)
	}

	return &prefs, nil
}

func (r *MongoPreferencesRepository) SetCustomInstruction(ctx context.Context, userID string, instruction string) (*model.Preferences, error) {
	set := bson.M{"updated_at": r.now().UTC()}
	update := bson.M{"$set": set}
	if instruction == "" {
		update["$unset"] = bson.M{"custom_system_instruction": ""}
	} else {
		set["custom_system_instruction"] = instruction
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var prefs model.Preferences
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&prefs)
	if err != nil {
		return nil, fmt.Errorf("repository: update preferences for user %q: %w", userID, err)
	}

	return &prefs, nil
}

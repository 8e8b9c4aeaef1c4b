package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vibeauth/internal/database"
	"vibeauth/internal/models"
)

// MongoStore keeps one document per user; the unique email index gives
// atomic per-key inserts across instances.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
}

// NewMongoStore connects to uri and prepares the users collection in dbName.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := database.ConnectMongoDB(ctx, uri)
	if err != nil {
		return nil, err
	}
	col, err := database.GetUserCollection(ctx, client, dbName)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &MongoStore{client: client, users: col}, nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

func (s *MongoStore) Insert(ctx context.Context, user models.User) error {
	_, err := s.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

func (s *MongoStore) SetLoggedIn(ctx context.Context, id string, loggedIn bool) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_logged_in": loggedIn}},
	)
	if err != nil {
		return fmt.Errorf("error updating login flag: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Backend = (*MongoStore)(nil)

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/shared"
)

// UsersCollection holds one preference document per user, keyed by uid.
const UsersCollection = "users"

// preferenceDocument is the stored shape of users/<uid>.
type preferenceDocument struct {
	UID           string    `bson:"_id"`
	WatchedMovies []int     `bson:"watchedMovies"`
	LikedMovies   []int     `bson:"likedMovies"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

// MongoPreferenceStore implements [models.PreferenceStore] on a MongoDB collection
// using $addToSet and $pull for atomic per-field updates.
type MongoPreferenceStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// OpenMongo connects and pings the server, then binds the users collection of dbName.
func OpenMongo(ctx context.Context, uri, dbName string) (*MongoPreferenceStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: mongo_uri is empty", shared.ErrInvalidConfig)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	return NewMongoPreferenceStore(client, client.Database(dbName).Collection(UsersCollection)), nil
}

func NewMongoPreferenceStore(client *mongo.Client, collection *mongo.Collection) *MongoPreferenceStore {
	return &MongoPreferenceStore{client: client, collection: collection}
}

// Close disconnects the client.
func (s *MongoPreferenceStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoPreferenceStore) Get(ctx context.Context, uid string) (*models.Preferences, error) {
	var doc preferenceDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, uid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find preferences: %w", err)
	}

	return &models.Preferences{
		UserID:  uid,
		Watched: models.NewMovieSet(doc.WatchedMovies...),
		Liked:   models.NewMovieSet(doc.LikedMovies...),
	}, nil
}

// Create upserts an empty document; an existing one is left untouched.
func (s *MongoPreferenceStore) Create(ctx context.Context, uid string) error {
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		string(models.Watched): []int{},
		string(models.Liked):   []int{},
		"createdAt":            now,
		"updatedAt":            now,
	}}

	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": uid}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to create preferences: %w", err)
	}
	return nil
}

func (s *MongoPreferenceStore) AddMovie(ctx context.Context, uid string, l models.List, id int) error {
	return s.update(ctx, uid, l, "$addToSet", id)
}

func (s *MongoPreferenceStore) RemoveMovie(ctx context.Context, uid string, l models.List, id int) error {
	return s.update(ctx, uid, l, "$pull", id)
}

func (s *MongoPreferenceStore) update(ctx context.Context, uid string, l models.List, op string, id int) error {
	if err := validList(l); err != nil {
		return err
	}

	update := bson.M{
		op:     bson.M{string(l): id},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", l.Label(), err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRecordNotFound, uid)
	}
	return nil
}

package cases

import (
	"context"
	"errors"
	"fmt"

	"courtsim/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the Mongo collection holding case records
const CollectionName = "cases"

// MongoStore serves cases from a Mongo collection
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore wraps an already-connected collection
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Load(ctx context.Context, id string) (*models.Case, error) {
	var c models.Case
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", id, err)
	}
	c, err = c.Normalized()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.CaseSummary, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "title": 1, "caseType": 1}).
		SetSort(bson.M{"title": 1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.CaseSummary
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode cases: %w", err)
	}
	return out, nil
}

// Insert stores a case, used for user-authored cases
func (s *MongoStore) Insert(ctx context.Context, c models.Case) error {
	if _, err := s.coll.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("failed to insert case %s: %w", c.ID, err)
	}
	return nil
}

// SeedCases copies the catalog into the collection when it is empty.
// It returns the number of inserted cases.
func SeedCases(ctx context.Context, coll *mongo.Collection, catalog *JSONStore) (int, error) {
	count, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count cases: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	all, err := catalog.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, len(all))
	for i, c := range all {
		docs[i] = c
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to seed cases: %w", err)
	}
	return len(docs), nil
}

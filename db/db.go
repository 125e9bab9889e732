package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"courtsim/cases"
	"courtsim/trial"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var MongoClient *mongo.Client
var MongoDatabase *mongo.Database
var CasesCollection *mongo.Collection
var SnapshotsCollection *mongo.Collection

// GetCollection returns a collection by name
func GetCollection(collectionName string) *mongo.Collection {
	return MongoDatabase.Collection(collectionName)
}

// extractDBName parses the database name from the URI, defaulting to "courtsim"
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "courtsim"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:] // Trim leading '/'
	}
	return "courtsim"
}

// ConnectMongoDB establishes a connection to MongoDB using the provided URI
func ConnectMongoDB(uri string, log *zap.SugaredLogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection with a ping
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	MongoClient = client
	dbName := extractDBName(uri)
	log.Infow("using database", "name", dbName)

	MongoDatabase = client.Database(dbName)
	CasesCollection = MongoDatabase.Collection(cases.CollectionName)
	SnapshotsCollection = MongoDatabase.Collection(trial.SnapshotCollection)
	return ensureIndexes(ctx)
}

// ensureIndexes backs the title-sorted case listing
func ensureIndexes(ctx context.Context) error {
	_, err := CasesCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "title", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create case index: %w", err)
	}
	return nil
}

// DisconnectMongoDB closes the client opened by ConnectMongoDB
func DisconnectMongoDB(ctx context.Context) error {
	if MongoClient == nil {
		return nil
	}
	return MongoClient.Disconnect(ctx)
}

package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"doc-compliance-checker/internal/config"
	"doc-compliance-checker/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBClient wraps MongoDB client for report caching
type MongoDBClient struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// CachedReport represents a cached report document in MongoDB
type CachedReport struct {
	TextHash     string                  `bson:"_id" json:"textHash"`
	Report       models.ComplianceReport `bson:"report" json:"report"`
	CreatedAt    time.Time               `bson:"createdAt" json:"createdAt"`
	LastAccessed time.Time               `bson:"lastAccessed" json:"lastAccessed"`
	HitCount     int                     `bson:"hitCount" json:"hitCount"`
}

// NewMongoDBClient creates a new MongoDB client for report caching
func NewMongoDBClient(cfg config.MongoDBConfig) (*MongoDBClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("[MONGO] Attempting to connect to MongoDB (database=%s, collection=%s)", cfg.Database, cfg.Collection)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "lastAccessed", Value: 1}},
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		// Index might already exist, that's okay
		log.Printf("[MONGO] Note: index creation: %v", err)
	}

	return &MongoDBClient{
		client:     client,
		collection: collection,
	}, nil
}

// Close closes the MongoDB client connection
func (c *MongoDBClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// GetReport retrieves a cached report by document text hash.
// Returns nil, nil when nothing is cached.
func (c *MongoDBClient) GetReport(ctx context.Context, textHash string) (*models.ComplianceReport, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cached CachedReport
	err := c.collection.FindOne(ctx, bson.M{"_id": textHash}).Decode(&cached)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query cached report: %w", err)
	}

	update := bson.M{
		"$set": bson.M{"lastAccessed": time.Now()},
		"$inc": bson.M{"hitCount": 1},
	}
	if _, err := c.collection.UpdateOne(ctx, bson.M{"_id": textHash}, update); err != nil {
		// the report is still valid
		log.Printf("[MONGO] WARNING: Failed to update lastAccessed for %s: %v", textHash, err)
	}

	if cached.Report.Violations == nil {
		cached.Report.Violations = []models.Violation{}
	}
	return &cached.Report, nil
}

// StoreReport upserts a report under the document text hash
func (c *MongoDBClient) StoreReport(ctx context.Context, textHash string, report *models.ComplianceReport) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"report":       report,
			"lastAccessed": now,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
			"hitCount":  0,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := c.collection.UpdateOne(ctx, bson.M{"_id": textHash}, update, opts); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// PurgeStale deletes reports not read since before cutoff and returns the count
func (c *MongoDBClient) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := c.collection.DeleteMany(ctx, bson.M{"lastAccessed": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to purge cached reports: %w", err)
	}
	return res.DeletedCount, nil
}

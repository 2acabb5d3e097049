package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/flockage/internal/domain/models"
)

// MongoDBRepository archives daily age snapshots in MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "age_snapshots",
	}

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}, {Key: "flock", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.collection().Indexes().CreateOne(ctx, index); err != nil {
		return nil, fmt.Errorf("create snapshot index: %w", err)
	}

	return repo, nil
}

// SaveAgeSnapshots upserts one document per (date, flock) so reruns of a digest
// day replace rather than duplicate.
func (r *MongoDBRepository) SaveAgeSnapshots(ctx context.Context, snapshots []models.AgeSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(snapshots))
	for _, snap := range snapshots {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "date", Value: snap.Date}, {Key: "flock", Value: snap.Flock}}).
			SetReplacement(snap).
			SetUpsert(true))
	}

	if _, err := r.collection().BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to upsert age snapshots: %w", err)
	}
	return nil
}

// History returns the archived snapshots of one flock, oldest first.
func (r *MongoDBRepository) History(ctx context.Context, flock string) ([]models.AgeSnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.collection().Find(ctx, bson.D{{Key: "flock", Value: flock}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query age snapshots: %w", err)
	}

	var out []models.AgeSnapshot
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode age snapshots: %w", err)
	}
	return out, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func NewMongoStore(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return NewStore("mongodb",
		NewMongoTodoRepository(db),
		NewMongoCategoryRepository(db),
		func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		client.Disconnect,
	).WithStats(func() map[string]interface{} {
		return map[string]interface{}{
			"database":             dbName,
			"sessions_in_progress": client.NumberSessionsInProgress(),
		}
	})
}

// EnsureMongoIndexes creates the indexes the queries rely on. It is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	todoIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "completed", Value: 1}}},
		{Keys: bson.D{{Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "tags", Value: "text"},
			},
			Options: options.Index().SetName("todo_text"),
		},
	}
	if _, err := db.Collection(todosCollection).Indexes().CreateMany(ctx, todoIndexes); err != nil {
		return fmt.Errorf("failed to create todo indexes: %w", err)
	}

	categoryIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection(categoriesCollection).Indexes().CreateOne(ctx, categoryIndex); err != nil {
		return fmt.Errorf("failed to create category index: %w", err)
	}
	return nil
}

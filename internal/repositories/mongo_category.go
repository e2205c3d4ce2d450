package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-manager/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type categoryDocument struct {
	ObjectID  primitive.ObjectID `bson:"_id,omitempty"`
	ID        string             `bson:"id"`
	Name      string             `bson:"name"`
	Color     string             `bson:"color"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func newCategoryDocument(c *models.Category) categoryDocument {
	return categoryDocument{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (d categoryDocument) model() models.Category {
	return models.Category{
		ID:        d.ID,
		Name:      d.Name,
		Color:     d.Color,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type MongoCategoryRepository struct {
	coll *mongo.Collection
}

func NewMongoCategoryRepository(db *mongo.Database) *MongoCategoryRepository {
	return &MongoCategoryRepository{coll: db.Collection(categoriesCollection)}
}

func (r *MongoCategoryRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

// InsertDefaults inserts unordered and ignores duplicate ids left by a concurrent seed.
func (r *MongoCategoryRepository) InsertDefaults(ctx context.Context, categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(categories))
	for i := range categories {
		docs = append(docs, newCategoryDocument(&categories[i]))
	}

	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	return nil
}

func (r *MongoCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	categories := make([]models.Category, 0, len(docs))
	for _, d := range docs {
		categories = append(categories, d.model())
	}
	return categories, nil
}

func (r *MongoCategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	var doc categoryDocument
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	category := doc.model()
	return &category, nil
}

func (r *MongoCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if _, err := r.coll.InsertOne(ctx, newCategoryDocument(category)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: category %q", ErrDuplicate, category.ID)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

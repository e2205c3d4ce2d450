package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-manager/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	todosCollection      = "todos"
	categoriesCollection = "categories"
)

type todoDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description *string            `bson:"description,omitempty"`
	Completed   bool               `bson:"completed"`
	Priority    string             `bson:"priority"`
	Category    string             `bson:"category"`
	DueDate     *time.Time         `bson:"dueDate,omitempty"`
	Tags        []string           `bson:"tags"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func newTodoDocument(todo *models.Todo) todoDocument {
	tags := []string(todo.Tags)
	if tags == nil {
		tags = []string{}
	}
	return todoDocument{
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		Priority:    string(todo.Priority),
		Category:    todo.Category,
		DueDate:     todo.DueDate,
		Tags:        tags,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}

func (d todoDocument) model() models.Todo {
	tags := models.StringList(d.Tags)
	if tags == nil {
		tags = models.StringList{}
	}
	return models.Todo{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		Priority:    models.Priority(d.Priority),
		Category:    d.Category,
		DueDate:     d.DueDate,
		Tags:        tags,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type MongoTodoRepository struct {
	coll *mongo.Collection
}

func NewMongoTodoRepository(db *mongo.Database) *MongoTodoRepository {
	return &MongoTodoRepository{coll: db.Collection(todosCollection)}
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// todoFilterDocument translates a TodoFilter into a query document.
func todoFilterDocument(filter TodoFilter) bson.M {
	doc := bson.M{}

	if filter.Category != "" {
		doc["category"] = filter.Category
	}
	if filter.Completed != nil {
		doc["completed"] = *filter.Completed
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		doc["$text"] = bson.M{"$search": q}
	}

	due := bson.M{}
	if filter.DueGTE != nil {
		due["$gte"] = filter.DueGTE.UTC()
	}
	if filter.DueGT != nil {
		due["$gt"] = filter.DueGT.UTC()
	}
	if filter.DueLTE != nil {
		due["$lte"] = filter.DueLTE.UTC()
	}
	if filter.DueLT != nil {
		due["$lt"] = filter.DueLT.UTC()
	}
	if len(due) > 0 {
		doc["dueDate"] = due
	}

	return doc
}

var todoSort = bson.D{
	{Key: "completed", Value: 1},
	{Key: "dueDate", Value: 1},
	{Key: "updatedAt", Value: -1},
}

func (r *MongoTodoRepository) List(ctx context.Context, filter TodoFilter) ([]models.Todo, error) {
	opts := options.Find().SetSort(todoSort)
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.coll.Find(ctx, todoFilterDocument(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	var docs []todoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode todos: %w", err)
	}

	todos := make([]models.Todo, 0, len(docs))
	for _, d := range docs {
		todos = append(todos, d.model())
	}
	return todos, nil
}

func (r *MongoTodoRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}
	return count, nil
}

func (r *MongoTodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	doc := newTodoDocument(todo)
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	todo.ID = doc.ID.Hex()
	todo.Tags = models.StringList(doc.Tags)
	return nil
}

func (r *MongoTodoRepository) FindByID(ctx context.Context, id string) (*models.Todo, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc todoDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}

	todo := doc.model()
	return &todo, nil
}

// todoUpdateDocument builds the $set/$unset document for a patch.
func todoUpdateDocument(patch TodoPatch) bson.M {
	set := bson.M{"updatedAt": patch.UpdatedAt.UTC()}
	unset := bson.M{}

	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.ClearDescription {
		unset["description"] = ""
	} else if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	if patch.Priority != nil {
		set["priority"] = string(*patch.Priority)
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.ClearDueDate {
		unset["dueDate"] = ""
	} else if patch.DueDate != nil {
		set["dueDate"] = patch.DueDate.UTC()
	}
	if patch.Tags != nil {
		tags := []string(*patch.Tags)
		if tags == nil {
			tags = []string{}
		}
		set["tags"] = tags
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (r *MongoTodoRepository) Update(ctx context.Context, id string, patch TodoPatch) (*models.Todo, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc todoDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, todoUpdateDocument(patch), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	todo := doc.model()
	return &todo, nil
}

func (r *MongoTodoRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

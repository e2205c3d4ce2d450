package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"todo-manager/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// todoSearchVector must match the expression indexed by Migrate.
const todoSearchVector = "to_tsvector('english', coalesce(title, '') || ' ' || coalesce(description, '') || ' ' || coalesce(tags, ''))"

type GormTodoRepository struct {
	db *gorm.DB
}

func NewGormTodoRepository(db *gorm.DB) *GormTodoRepository {
	return &GormTodoRepository{db: db}
}

func parseTodoID(id string) (string, error) {
	parsed, err := uuid.FromString(id)
	if err != nil || parsed == uuid.Nil {
		return "", ErrInvalidID
	}
	return parsed.String(), nil
}

func (r *GormTodoRepository) List(ctx context.Context, filter TodoFilter) ([]models.Todo, error) {
	query := r.db.WithContext(ctx).Model(&models.Todo{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}
	if filter.DueGTE != nil {
		query = query.Where("due_date >= ?", filter.DueGTE.UTC())
	}
	if filter.DueGT != nil {
		query = query.Where("due_date > ?", filter.DueGT.UTC())
	}
	if filter.DueLTE != nil {
		query = query.Where("due_date <= ?", filter.DueLTE.UTC())
	}
	if filter.DueLT != nil {
		query = query.Where("due_date < ?", filter.DueLT.UTC())
	}
	if terms := SearchTerms(filter.Search); len(terms) > 0 {
		query = r.applySearch(query, terms)
	}

	query = query.Order("completed ASC").
		Order("due_date ASC NULLS FIRST").
		Order("updated_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	todos := []models.Todo{}
	if err := query.Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// applySearch matches records containing any of the terms.
func (r *GormTodoRepository) applySearch(query *gorm.DB, terms []string) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return query.Where(todoSearchVector+" @@ to_tsquery('english', ?)", strings.Join(terms, " | "))
	}

	clauses := make([]string, 0, len(terms))
	args := make([]interface{}, 0, len(terms)*3)
	for _, term := range terms {
		pattern := "%" + term + "%"
		clauses = append(clauses, "(title LIKE ? OR description LIKE ? OR tags LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	return query.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

func (r *GormTodoRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Todo{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}
	return count, nil
}

func (r *GormTodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed to generate todo ID: %w", err)
	}
	todo.ID = id.String()
	if todo.Tags == nil {
		todo.Tags = models.StringList{}
	}

	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

func (r *GormTodoRepository) FindByID(ctx context.Context, id string) (*models.Todo, error) {
	id, err := parseTodoID(id)
	if err != nil {
		return nil, err
	}

	var todo models.Todo
	if err := r.db.WithContext(ctx).First(&todo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return &todo, nil
}

func (r *GormTodoRepository) Update(ctx context.Context, id string, patch TodoPatch) (*models.Todo, error) {
	id, err := parseTodoID(id)
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).Model(&models.Todo{}).
		Where("id = ?", id).
		Updates(patchColumns(patch))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update todo: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.FindByID(ctx, id)
}

func patchColumns(patch TodoPatch) map[string]interface{} {
	updates := map[string]interface{}{
		"updated_at": patch.UpdatedAt,
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.ClearDescription {
		updates["description"] = nil
	} else if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Completed != nil {
		updates["completed"] = *patch.Completed
	}
	if patch.Priority != nil {
		updates["priority"] = string(*patch.Priority)
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.ClearDueDate {
		updates["due_date"] = nil
	} else if patch.DueDate != nil {
		updates["due_date"] = patch.DueDate.UTC()
	}
	if patch.Tags != nil {
		updates["tags"] = *patch.Tags
	}
	return updates
}

func (r *GormTodoRepository) Delete(ctx context.Context, id string) error {
	id, err := parseTodoID(id)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Delete(&models.Todo{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete todo: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/repositories"
)

type CreateCategoryInput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type CategoryService interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
}

type CategoryServiceImpl struct {
	stores repositories.StoreSource
	now    func() time.Time
}

func NewCategoryService(stores repositories.StoreSource) *CategoryServiceImpl {
	return &CategoryServiceImpl{stores: stores, now: time.Now}
}

func (s *CategoryServiceImpl) categories(ctx context.Context) (repositories.CategoryRepository, error) {
	store, err := s.stores.Store(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return store.Categories, nil
}

// ListCategories seeds the defaults into an empty collection, then returns everything sorted by name.
func (s *CategoryServiceImpl) ListCategories(ctx context.Context) ([]models.Category, error) {
	repo, err := s.categories(ctx)
	if err != nil {
		return nil, err
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	if count == 0 {
		now := s.now().UTC().Truncate(time.Millisecond)
		defaults := models.DefaultCategories()
		for i := range defaults {
			defaults[i].CreatedAt = now
			defaults[i].UpdatedAt = now
		}
		if err := repo.InsertDefaults(ctx, defaults); err != nil {
			return nil, fmt.Errorf("failed to seed categories: %w", err)
		}
	}

	categories, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryServiceImpl) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	color := strings.TrimSpace(input.Color)
	if name == "" || color == "" {
		return nil, invalid(msgMissingFields)
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = models.Slugify(name)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	category := &models.Category{
		ID:        id,
		Name:      name,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := models.Validate(category); err != nil {
		return nil, fromValidator(err)
	}

	repo, err := s.categories(ctx)
	if err != nil {
		return nil, err
	}

	// a taken id fails here as a store error, not a validation error
	if err := repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *CategoryServiceImpl) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	repo, err := s.categories(ctx)
	if err != nil {
		return nil, err
	}

	category, err := repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"

	"todo-manager/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormCategoryRepository struct {
	db *gorm.DB
}

func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

// InsertDefaults skips categories whose id already exists, so concurrent seeding is harmless.
func (r *GormCategoryRepository) InsertDefaults(ctx context.Context, categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&categories).Error
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	return nil
}

func (r *GormCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *GormCategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &category, nil
}

func (r *GormCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: category %q", ErrDuplicate, category.ID)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

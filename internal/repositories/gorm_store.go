package repositories

import (
	"context"
	"fmt"

	"todo-manager/backend/internal/models"

	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB) *Store {
	return NewStore(db.Dialector.Name(),
		NewGormTodoRepository(db),
		NewGormCategoryRepository(db),
		func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	)
}

// Migrate creates the todo and category tables, plus the full-text index on PostgreSQL.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Todo{}, &models.Category{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		stmt := "CREATE INDEX IF NOT EXISTS idx_todos_search ON todos USING GIN (" + todoSearchVector + ")"
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create search index: %w", err)
		}
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-manager/backend/internal/cache"
	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/repositories"

	"github.com/sirupsen/logrus"
)

const (
	DefaultCacheTTL = 10 * time.Minute

	categoryListKey = "categories:all"
)

// todoKey keys on the canonical id so every accepted spelling of an id shares one entry.
func todoKey(id string) string {
	return fmt.Sprintf("todo:%s", repositories.CanonicalTodoID(id))
}

func categoryKey(id string) string {
	return fmt.Sprintf("category:%s", id)
}

// cacheGet reports whether dest was filled from the cache. Backend failures are logged
// and treated as a miss so the store stays the source of truth.
func cacheGet(ctx context.Context, c cache.Cache, log *logrus.Logger, key string, dest interface{}) bool {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	return false
}

func cacheSet(ctx context.Context, c cache.Cache, log *logrus.Logger, key string, value interface{}, ttl time.Duration) {
	if err := c.Set(ctx, key, value, ttl); err != nil {
		log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func cacheDelete(ctx context.Context, c cache.Cache, log *logrus.Logger, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		log.WithError(err).WithField("keys", keys).Warn("cache invalidation failed")
	}
}

// CachedTodoService serves single-todo reads from the cache. Lists are always read
// from the store because the date views move with the clock.
type CachedTodoService struct {
	todoService TodoService
	cache       cache.Cache
	ttl         time.Duration
	log         *logrus.Logger
}

func NewCachedTodoService(todoService TodoService, c cache.Cache, ttl time.Duration, log *logrus.Logger) *CachedTodoService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedTodoService{todoService: todoService, cache: c, ttl: ttl, log: log}
}

func (s *CachedTodoService) ListTodos(ctx context.Context, query TodoQuery) ([]models.Todo, error) {
	return s.todoService.ListTodos(ctx, query)
}

func (s *CachedTodoService) TodoStats(ctx context.Context, query TodoQuery) (TodoStats, error) {
	return s.todoService.TodoStats(ctx, query)
}

func (s *CachedTodoService) CreateTodo(ctx context.Context, input CreateTodoInput) (*models.Todo, error) {
	todo, err := s.todoService.CreateTodo(ctx, input)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, s.cache, s.log, todoKey(todo.ID), todo, s.ttl)
	return todo, nil
}

func (s *CachedTodoService) GetTodo(ctx context.Context, id string) (*models.Todo, error) {
	var cached models.Todo
	if cacheGet(ctx, s.cache, s.log, todoKey(id), &cached) {
		return &cached, nil
	}

	todo, err := s.todoService.GetTodo(ctx, id)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, s.cache, s.log, todoKey(todo.ID), todo, s.ttl)
	return todo, nil
}

func (s *CachedTodoService) UpdateTodo(ctx context.Context, id string, changes TodoChanges) (*models.Todo, error) {
	todo, err := s.todoService.UpdateTodo(ctx, id, changes)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, s.cache, s.log, todoKey(todo.ID), todo, s.ttl)
	return todo, nil
}

func (s *CachedTodoService) ToggleTodo(ctx context.Context, id string) (*models.Todo, error) {
	todo, err := s.todoService.ToggleTodo(ctx, id)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, s.cache, s.log, todoKey(todo.ID), todo, s.ttl)
	return todo, nil
}

func (s *CachedTodoService) DeleteTodo(ctx context.Context, id string) error {
	if err := s.todoService.DeleteTodo(ctx, id); err != nil {
		return err
	}

	cacheDelete(ctx, s.cache, s.log, todoKey(id))
	return nil
}

type CachedCategoryService struct {
	categoryService CategoryService
	cache           cache.Cache
	ttl             time.Duration
	log             *logrus.Logger
}

func NewCachedCategoryService(categoryService CategoryService, c cache.Cache, ttl time.Duration, log *logrus.Logger) *CachedCategoryService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedCategoryService{categoryService: categoryService, cache: c, ttl: ttl, log: log}
}

func (s *CachedCategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cached []models.Category
	if cacheGet(ctx, s.cache, s.log, categoryListKey, &cached) {
		return cached, nil
	}

	categories, err := s.categoryService.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, s.cache, s.log, categoryListKey, categories, s.ttl)
	return categories, nil
}

func (s *CachedCategoryService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	category, err := s.categoryService.CreateCategory(ctx, input)
	if err != nil {
		return nil, err
	}

	cacheDelete(ctx, s.cache, s.log, categoryListKey)
	cacheSet(ctx, s.cache, s.log, categoryKey(category.ID), category, s.ttl)
	return category, nil
}

func (s *CachedCategoryService) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var cached models.Category
	if cacheGet(ctx, s.cache, s.log, categoryKey(id), &cached) {
		return &cached, nil
	}

	category, err := s.categoryService.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, s.cache, s.log, categoryKey(id), category, s.ttl)
	return category, nil
}

var (
	_ TodoService     = (*CachedTodoService)(nil)
	_ TodoService     = (*TodoServiceImpl)(nil)
	_ CategoryService = (*CachedCategoryService)(nil)
	_ CategoryService = (*CategoryServiceImpl)(nil)
)

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

type View string

const (
	ViewToday    View = "today"
	ViewOverdue  View = "overdue"
	ViewUpcoming View = "upcoming"
)

const upcomingWindow = 7 * 24 * time.Hour

// ParseView returns the named view, or "" for anything unrecognized.
func ParseView(s string) View {
	switch v := View(strings.TrimSpace(s)); v {
	case ViewToday, ViewOverdue, ViewUpcoming:
		return v
	}
	return ""
}

type TodoQuery struct {
	Category  string
	Completed *bool
	Search    string
	View      View
}

type CreateTodoInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    string      `json:"priority"`
	Category    string      `json:"category"`
	DueDate     interface{} `json:"dueDate"`
	Tags        interface{} `json:"tags"`
}

// TodoChanges is a decoded JSON update body. Keys outside the updatable set are ignored.
type TodoChanges map[string]interface{}

type TodoStats struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	Pending      int `json:"pending"`
	HighPriority int `json:"highPriority"`
}

type TodoService interface {
	ListTodos(ctx context.Context, query TodoQuery) ([]models.Todo, error)
	CreateTodo(ctx context.Context, input CreateTodoInput) (*models.Todo, error)
	GetTodo(ctx context.Context, id string) (*models.Todo, error)
	UpdateTodo(ctx context.Context, id string, changes TodoChanges) (*models.Todo, error)
	ToggleTodo(ctx context.Context, id string) (*models.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
	TodoStats(ctx context.Context, query TodoQuery) (TodoStats, error)
}

type TodoServiceImpl struct {
	stores   repositories.StoreSource
	maxTodos int
	now      func() time.Time
}

func NewTodoService(stores repositories.StoreSource, maxTodos int) *TodoServiceImpl {
	if maxTodos <= 0 {
		maxTodos = models.DefaultMaxTodos
	}
	return &TodoServiceImpl{stores: stores, maxTodos: maxTodos, now: time.Now}
}

// WithClock replaces the time source used for views and timestamps.
func (s *TodoServiceImpl) WithClock(now func() time.Time) *TodoServiceImpl {
	s.now = now
	return s
}

func (s *TodoServiceImpl) MaxTodos() int {
	return s.maxTodos
}

func (s *TodoServiceImpl) todos(ctx context.Context) (repositories.TodoRepository, error) {
	store, err := s.stores.Store(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return store.Todos, nil
}

// dayBounds returns the first and last millisecond of the local calendar day containing now,
// on the UTC-midnight axis due dates are stored on.
func dayBounds(now time.Time) (time.Time, time.Time) {
	start := models.CalendarDate(now)
	return start, start.Add(24*time.Hour - time.Millisecond)
}

func (s *TodoServiceImpl) buildFilter(query TodoQuery) repositories.TodoFilter {
	filter := repositories.TodoFilter{
		Category:  query.Category,
		Completed: query.Completed,
		Search:    strings.TrimSpace(query.Search),
	}

	start, end := dayBounds(s.now())
	switch query.View {
	case ViewToday:
		filter.DueGTE = &start
		filter.DueLTE = &end
	case ViewOverdue:
		incomplete := false
		filter.DueLT = &start
		filter.Completed = &incomplete
	case ViewUpcoming:
		limit := end.Add(upcomingWindow)
		filter.DueGT = &end
		filter.DueLTE = &limit
	}
	return filter
}

func (s *TodoServiceImpl) ListTodos(ctx context.Context, query TodoQuery) ([]models.Todo, error) {
	repo, err := s.todos(ctx)
	if err != nil {
		return nil, err
	}

	filter := s.buildFilter(query)
	filter.Limit = models.MaxListResults
	todos, err := repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

func (s *TodoServiceImpl) TodoStats(ctx context.Context, query TodoQuery) (TodoStats, error) {
	repo, err := s.todos(ctx)
	if err != nil {
		return TodoStats{}, err
	}

	todos, err := repo.List(ctx, s.buildFilter(query))
	if err != nil {
		return TodoStats{}, fmt.Errorf("failed to list todos: %w", err)
	}

	stats := TodoStats{Total: len(todos)}
	for _, t := range todos {
		if t.Completed {
			stats.Completed++
			continue
		}
		if t.Priority == models.PriorityHigh {
			stats.HighPriority++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	return stats, nil
}

// stamp returns the current time at millisecond precision, strictly after prev.
func (s *TodoServiceImpl) stamp(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Millisecond)
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func (s *TodoServiceImpl) CreateTodo(ctx context.Context, input CreateTodoInput) (*models.Todo, error) {
	title := strings.TrimSpace(input.Title)
	priority := strings.TrimSpace(input.Priority)
	category := strings.TrimSpace(input.Category)
	if title == "" || priority == "" || category == "" {
		return nil, invalid(msgMissingFields)
	}

	todo := &models.Todo{
		Title:    title,
		Priority: models.Priority(priority),
		Category: category,
		Tags:     models.StringList{},
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		todo.Description = &desc
	}

	due, err := models.ParseDueDate(input.DueDate)
	if err != nil {
		return nil, invalid("dueDate must be a YYYY-MM-DD date")
	}
	todo.DueDate = due

	tags, err := models.NormalizeTags(input.Tags)
	if err != nil {
		return nil, invalid("tags must be an array of strings")
	}
	todo.Tags = tags

	if err := models.Validate(todo); err != nil {
		return nil, fromValidator(err)
	}

	repo, err := s.todos(ctx)
	if err != nil {
		return nil, err
	}

	// best-effort: two concurrent creates near the limit can both pass
	count, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count todos: %w", err)
	}
	if count >= int64(s.maxTodos) {
		return nil, &LimitError{Max: s.maxTodos}
	}

	now := s.stamp(time.Time{})
	todo.CreatedAt = now
	todo.UpdatedAt = now

	if err := repo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return todo, nil
}

func (s *TodoServiceImpl) GetTodo(ctx context.Context, id string) (*models.Todo, error) {
	repo, err := s.todos(ctx)
	if err != nil {
		return nil, err
	}

	todo, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return todo, nil
}

func (s *TodoServiceImpl) UpdateTodo(ctx context.Context, id string, changes TodoChanges) (*models.Todo, error) {
	repo, err := s.todos(ctx)
	if err != nil {
		return nil, err
	}

	current, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}

	patch, err := buildPatch(changes)
	if err != nil {
		return nil, err
	}
	if err := validatePatched(*current, patch); err != nil {
		return nil, err
	}
	patch.UpdatedAt = s.stamp(current.UpdatedAt)

	updated, err := repo.Update(ctx, id, patch)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return updated, nil
}

func (s *TodoServiceImpl) ToggleTodo(ctx context.Context, id string) (*models.Todo, error) {
	repo, err := s.todos(ctx)
	if err != nil {
		return nil, err
	}

	current, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}

	flipped := !current.Completed
	updated, err := repo.Update(ctx, id, repositories.TodoPatch{
		Completed: &flipped,
		UpdatedAt: s.stamp(current.UpdatedAt),
	})
	if err != nil {
		return nil, translateRepoError(err)
	}
	return updated, nil
}

func (s *TodoServiceImpl) DeleteTodo(ctx context.Context, id string) error {
	repo, err := s.todos(ctx)
	if err != nil {
		return err
	}

	if err := repo.Delete(ctx, id); err != nil {
		return translateRepoError(err)
	}
	return nil
}

func translateRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrInvalidID):
		return ErrInvalidID
	case errors.Is(err, repositories.ErrNotFound):
		return ErrTodoNotFound
	}
	return err
}

func buildPatch(changes TodoChanges) (repositories.TodoPatch, error) {
	var patch repositories.TodoPatch

	if v, ok := changes["title"]; ok {
		title, isString := v.(string)
		if !isString {
			return patch, invalid("title must be a string")
		}
		title = strings.TrimSpace(title)
		patch.Title = &title
	}

	if v, ok := changes["description"]; ok {
		switch desc := v.(type) {
		case nil:
			patch.ClearDescription = true
		case string:
			if desc = strings.TrimSpace(desc); desc == "" {
				patch.ClearDescription = true
			} else {
				patch.Description = &desc
			}
		default:
			return patch, invalid("description must be a string")
		}
	}

	if v, ok := changes["completed"]; ok {
		completed, isBool := v.(bool)
		if !isBool {
			return patch, invalid("completed must be a boolean")
		}
		patch.Completed = &completed
	}

	if v, ok := changes["priority"]; ok {
		raw, isString := v.(string)
		if !isString {
			return patch, invalid("priority must be one of: low, medium, high")
		}
		priority, err := models.ParsePriority(strings.TrimSpace(raw))
		if err != nil {
			return patch, invalid("priority must be one of: low, medium, high")
		}
		patch.Priority = &priority
	}

	if v, ok := changes["category"]; ok {
		category, isString := v.(string)
		if !isString {
			return patch, invalid("category must be a string")
		}
		category = strings.TrimSpace(category)
		patch.Category = &category
	}

	if v, ok := changes["dueDate"]; ok {
		due, err := models.ParseDueDate(v)
		if err != nil {
			return patch, invalid("dueDate must be a YYYY-MM-DD date")
		}
		if due == nil {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = due
		}
	}

	if v, ok := changes["tags"]; ok {
		tags, err := models.NormalizeTags(v)
		if err != nil {
			return patch, invalid("tags must be an array of strings")
		}
		list := models.StringList(tags)
		patch.Tags = &list
	}

	return patch, nil
}

// validatePatched applies the patch to a copy and checks the result with the creation rules.
func validatePatched(todo models.Todo, patch repositories.TodoPatch) error {
	if patch.Title != nil {
		todo.Title = *patch.Title
	}
	if patch.ClearDescription {
		todo.Description = nil
	} else if patch.Description != nil {
		todo.Description = patch.Description
	}
	if patch.Priority != nil {
		todo.Priority = *patch.Priority
	}
	if patch.Category != nil {
		todo.Category = *patch.Category
	}
	if patch.Tags != nil {
		todo.Tags = *patch.Tags
	}

	if err := models.Validate(&todo); err != nil {
		return fromValidator(err)
	}
	return nil
}

package repositories

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"todo-manager/backend/internal/models"
)

var (
	ErrInvalidID = errors.New("invalid id")
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// TodoFilter is AND-combined. Nil bounds and empty strings are not applied.
type TodoFilter struct {
	Category  string
	Completed *bool
	Search    string
	DueGTE    *time.Time
	DueGT     *time.Time
	DueLTE    *time.Time
	DueLT     *time.Time
	Limit     int
}

// TodoPatch carries the fields touched by an update. UpdatedAt is always written.
type TodoPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Completed        *bool
	Priority         *models.Priority
	Category         *string
	DueDate          *time.Time
	ClearDueDate     bool
	Tags             *models.StringList
	UpdatedAt        time.Time
}

type TodoRepository interface {
	List(ctx context.Context, filter TodoFilter) ([]models.Todo, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, todo *models.Todo) error
	FindByID(ctx context.Context, id string) (*models.Todo, error)
	Update(ctx context.Context, id string, patch TodoPatch) (*models.Todo, error)
	Delete(ctx context.Context, id string) error
}

type CategoryRepository interface {
	Count(ctx context.Context) (int64, error)
	InsertDefaults(ctx context.Context, categories []models.Category) error
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
}

// Store is a live handle on one backend.
type Store struct {
	Backend    string
	Todos      TodoRepository
	Categories CategoryRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
	stats func() map[string]interface{}
}

func NewStore(backend string, todos TodoRepository, categories CategoryRepository,
	ping func(ctx context.Context) error, close func(ctx context.Context) error) *Store {
	return &Store{
		Backend:    backend,
		Todos:      todos,
		Categories: categories,
		ping:       ping,
		close:      close,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// WithStats attaches a connection statistics source reported by Stats.
func (s *Store) WithStats(stats func() map[string]interface{}) *Store {
	s.stats = stats
	return s
}

func (s *Store) Stats() map[string]interface{} {
	out := map[string]interface{}{}
	if s.stats != nil {
		for k, v := range s.stats() {
			out[k] = v
		}
	}
	out["backend"] = s.Backend
	return out
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// CanonicalTodoID returns id in the spelling the stores report it back in: a
// lower-case hyphenated UUID, or lower-case ObjectID hex. Ids neither store accepts
// are returned unchanged.
func CanonicalTodoID(id string) string {
	if canonical, err := parseTodoID(id); err == nil {
		return canonical
	}
	if oid, err := parseObjectID(id); err == nil {
		return oid.Hex()
	}
	return id
}

type StoreSource interface {
	Store(ctx context.Context) (*Store, error)
}

type staticSource struct {
	store *Store
}

// StaticSource serves an already connected store.
func StaticSource(store *Store) StoreSource {
	return staticSource{store: store}
}

func (s staticSource) Store(context.Context) (*Store, error) {
	return s.store, nil
}

var searchTerm = regexp.MustCompile(`[\p{L}\p{N}]+`)

// SearchTerms splits a free-text query into lower-cased word terms.
func SearchTerms(q string) []string {
	matches := searchTerm.FindAllString(strings.ToLower(q), -1)
	seen := make(map[string]bool, len(matches))
	terms := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			terms = append(terms, m)
		}
	}
	return terms
}

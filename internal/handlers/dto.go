package handlers

import (
	"time"

	"todo-manager/backend/internal/models"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

type TodoResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Completed   bool            `json:"completed"`
	Priority    models.Priority `json:"priority"`
	Category    string          `json:"category"`
	DueDate     string          `json:"dueDate,omitempty"`
	Tags        []string        `json:"tags"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

type CategoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func toTodoResponse(t *models.Todo) TodoResponse {
	resp := TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    t.Priority,
		Category:    t.Category,
		Tags:        []string(t.Tags),
		CreatedAt:   formatTimestamp(t.CreatedAt),
		UpdatedAt:   formatTimestamp(t.UpdatedAt),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if t.DueDate != nil {
		resp.DueDate = models.FormatDate(*t.DueDate)
	}
	return resp
}

func toTodoResponses(todos []models.Todo) []TodoResponse {
	out := make([]TodoResponse, 0, len(todos))
	for i := range todos {
		out = append(out, toTodoResponse(&todos[i]))
	}
	return out
}

func toCategoryResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Color: c.Color}
}

func toCategoryResponses(categories []models.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, toCategoryResponse(&categories[i]))
	}
	return out
}

package handlers

import (
	"net/http"

	"todo-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type TodoHandler struct {
	todoService services.TodoService
	log         *logrus.Logger
}

func NewTodoHandler(todoService services.TodoService, log *logrus.Logger) *TodoHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TodoHandler{todoService: todoService, log: log}
}

// todoQuery reads the list filters. A present completed parameter means completed == "true".
func todoQuery(c *gin.Context) services.TodoQuery {
	query := services.TodoQuery{
		Category: c.Query("category"),
		Search:   c.Query("q"),
		View:     services.ParseView(c.Query("view")),
	}
	if raw, ok := c.GetQuery("completed"); ok {
		completed := raw == "true"
		query.Completed = &completed
	}
	return query
}

func (h *TodoHandler) ListTodos(c *gin.Context) {
	todos, err := h.todoService.ListTodos(c.Request.Context(), todoQuery(c))
	if err != nil {
		handleServiceError(c, h.log, err, "Failed to fetch todos")
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": toTodoResponses(todos)})
}

func (h *TodoHandler) CreateTodo(c *gin.Context) {
	var input services.CreateTodoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestBody(c)
		return
	}

	todo, err := h.todoService.CreateTodo(c.Request.Context(), input)
	if err != nil {
		handleServiceError(c, h.log, err, "Failed to create todo")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"todo": toTodoResponse(todo)})
}

func (h *TodoHandler) GetTodo(c *gin.Context) {
	todo, err := h.todoService.GetTodo(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, h.log, err, "Failed to fetch todo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": toTodoResponse(todo)})
}

func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		badRequestBody(c)
		return
	}

	todo, err := h.todoService.UpdateTodo(c.Request.Context(), c.Param("id"), services.TodoChanges(changes))
	if err != nil {
		handleServiceError(c, h.log, err, "Failed to update todo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": toTodoResponse(todo)})
}

func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	if err := h.todoService.DeleteTodo(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, h.log, err, "Failed to delete todo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted successfully"})
}

func (h *TodoHandler) ToggleTodo(c *gin.Context) {
	todo, err := h.todoService.ToggleTodo(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, h.log, err, "Failed to toggle todo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": toTodoResponse(todo)})
}

// GetStats reports counts over the same filters the list accepts.
func (h *TodoHandler) GetStats(c *gin.Context) {
	stats, err := h.todoService.TodoStats(c.Request.Context(), todoQuery(c))
	if err != nil {
		handleServiceError(c, h.log, err, "Failed to fetch stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

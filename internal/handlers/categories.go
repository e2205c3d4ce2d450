package handlers

import (
	"net/http"

	"todo-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CategoryHandler struct {
	categoryService services.CategoryService
	log             *logrus.Logger
}

func NewCategoryHandler(categoryService services.CategoryService, log *logrus.Logger) *CategoryHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CategoryHandler{categoryService: categoryService, log: log}
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryService.ListCategories(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.log, err, "Failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": toCategoryResponses(categories)})
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var input services.CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestBody(c)
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), input)
	if err != nil {
		handleServiceError(c, h.log, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": toCategoryResponse(category)})
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.categoryService.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, h.log, err, "Failed to fetch category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": toCategoryResponse(category)})
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"todo-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// handleServiceError writes the client-facing response for err. Anything the
// caller cannot act on is logged and answered with the generic fallback message.
func handleServiceError(c *gin.Context, log *logrus.Logger, err error, fallback string) {
	var validationErr *services.ValidationError
	var limitErr *services.LimitError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &limitErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Maximum todos limit (%d) reached", limitErr.Max)})
	case errors.Is(err, services.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid todo id"})
	case errors.Is(err, services.ErrTodoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
	case errors.Is(err, services.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func badRequestBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}

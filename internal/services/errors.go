package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidID        = errors.New("invalid todo id")
	ErrTodoNotFound     = errors.New("todo not found")
	ErrCategoryNotFound = errors.New("category not found")
)

const msgMissingFields = "Missing required fields"

// ValidationError is a client input problem. Its message is safe to return to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// LimitError reports that creating another todo would exceed the configured maximum.
type LimitError struct {
	Max int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("maximum todos limit (%d) reached", e.Max)
}

// fromValidator turns struct tag failures into a single readable ValidationError.
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return invalid("%s is required", field)
	case "max":
		return invalid("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return invalid("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return invalid("%s is invalid", field)
	}
}

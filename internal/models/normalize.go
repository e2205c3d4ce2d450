package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDueDate = errors.New("invalid due date")
	ErrInvalidTags    = errors.New("tags must be strings")
)

var validate = validator.New()

// Validate runs the struct tag rules of Todo and Category.
func Validate(v interface{}) error {
	return validate.Struct(v)
}

// CalendarDate returns UTC midnight of the calendar day t falls on in its own location.
// Due dates are stored on this axis so that day comparisons ignore time zones.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDueDate accepts a decoded JSON value. Falsy values clear the date.
func ParseDueDate(value interface{}) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool:
		if !v {
			return nil, nil
		}
		return nil, ErrInvalidDueDate
	case float64:
		if v == 0 || math.IsNaN(v) {
			return nil, nil
		}
		d := CalendarDate(time.UnixMilli(int64(v)).UTC())
		return &d, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		if t, err := time.Parse(DateLayout, s); err == nil {
			return &t, nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDueDate, s)
		}
		d := CalendarDate(t.UTC())
		return &d, nil
	default:
		return nil, ErrInvalidDueDate
	}
}

// NormalizeTags turns a decoded JSON value into a list of non-empty strings.
// A bare string becomes a one-element list; anything that is not a string or a list
// yields an empty list.
func NormalizeTags(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return []string{}, nil
		}
		return []string{v}, nil
	case []string:
		return compactTags(v), nil
	case []interface{}:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			switch tag := item.(type) {
			case nil:
			case string:
				if tag != "" {
					tags = append(tags, tag)
				}
			default:
				return nil, ErrInvalidTags
			}
		}
		return tags, nil
	default:
		return []string{}, nil
	}
}

func compactTags(in []string) []string {
	tags := make([]string, 0, len(in))
	for _, tag := range in {
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

package models

import (
	"regexp"
	"strings"
	"time"
)

const MaxCategoryNameLength = 60

type Category struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(100)" validate:"required"`
	Name      string    `json:"name" gorm:"type:varchar(60);not null" validate:"required,max=60"`
	Color     string    `json:"color" gorm:"not null" validate:"required"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Category) TableName() string {
	return "categories"
}

// DefaultCategories are seeded the first time categories are listed on an empty store.
func DefaultCategories() []Category {
	return []Category{
		{ID: "general", Name: "General", Color: "#3b82f6"},
		{ID: "work", Name: "Work", Color: "#10b981"},
		{ID: "personal", Name: "Personal", Color: "#f59e0b"},
		{ID: "shopping", Name: "Shopping", Color: "#ef4444"},
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify lower-cases name and collapses whitespace runs into single hyphens.
func Slugify(name string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(strings.ToLower(name)), "-")
}

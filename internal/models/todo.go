package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	DefaultMaxTodos      = 100
	MaxListResults       = 500
)

// Todo is persisted by the SQL and Mongo stores. Its json encoding is the cache
// format; handlers render the API shape through their own response type.
type Todo struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string     `json:"title" gorm:"type:varchar(200);not null" validate:"required,max=200"`
	Description *string    `json:"description,omitempty" gorm:"type:text" validate:"omitempty,max=2000"`
	Completed   bool       `json:"completed" gorm:"not null;default:false;index"`
	Priority    Priority   `json:"priority" gorm:"type:varchar(10);not null;default:'medium';index" validate:"required,oneof=low medium high"`
	Category    string     `json:"category" gorm:"not null;index" validate:"required"`
	DueDate     *time.Time `json:"dueDate,omitempty" gorm:"index"`
	Tags        StringList `json:"tags" gorm:"type:text" validate:"dive,required"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"index"`
}

func (Todo) TableName() string {
	return "todos"
}

func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("invalid priority %q", s)
}

// StringList is stored as a JSON array in SQL columns.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to decode string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

func (StringList) GormDataType() string {
	return "text"
}

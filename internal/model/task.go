package model

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID        int64       `json:"id"`
	UserID    string      `json:"user_id"`
	Text      string      `json:"text"`
	Completed bool        `json:"completed"`
	Priority  *Priority   `json:"priority,omitempty"`
	Category  *string     `json:"category,omitempty"`
	DueDate   *civil.Date `json:"due_date,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (t *Task) Validate() error {
	if strings.TrimSpace(t.Text) == "" {
		return Invalid("text", "must not be empty")
	}
	if t.Priority != nil && !t.Priority.Valid() {
		return Invalid("priority", "must be low, medium or high")
	}
	return nil
}

type TaskPatch struct {
	Text      *string     `json:"text"`
	Completed *bool       `json:"completed"`
	Priority  *Priority   `json:"priority"`
	Category  *string     `json:"category"`
	DueDate   *civil.Date `json:"due_date"`
}

func (p TaskPatch) Apply(t *Task) {
	if p.Text != nil {
		t.Text = strings.TrimSpace(*p.Text)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = p.Priority
	}
	if p.Category != nil {
		t.Category = p.Category
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
}

type TaskFilter string

const (
	TaskFilterAll       TaskFilter = "all"
	TaskFilterCompleted TaskFilter = "completed"
	TaskFilterPending   TaskFilter = "pending"
)

// ParseTaskFilter maps an empty value to TaskFilterAll.
func ParseTaskFilter(s string) (TaskFilter, error) {
	switch TaskFilter(strings.ToLower(s)) {
	case "", TaskFilterAll:
		return TaskFilterAll, nil
	case TaskFilterCompleted:
		return TaskFilterCompleted, nil
	case TaskFilterPending:
		return TaskFilterPending, nil
	}
	return "", Invalid("filter", "must be all, completed or pending")
}

type TaskStats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	CompletionRate int `json:"completion_rate"`
}

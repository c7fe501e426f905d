package task

import (
	"errors"
	"time"
)

var (
	ErrEmptyTitle      = errors.New("task must have a non-empty title")
	ErrInvalidType     = errors.New("task type must be issue, pr, or personal")
	ErrInvalidDueDate  = errors.New("task must have a valid due date")
	ErrInvalidTags     = errors.New("task must have a tags list")
	ErrInvalidPriority = errors.New("task priority must be high, medium, or low")
)

type Type string

const (
	TypePersonal Type = "personal"
	TypeIssue    Type = "issue"
	TypePR       Type = "pr"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Task is the normalized entity for a personal to-do, a GitHub issue,
// or a GitHub pull request. Personal tasks are persisted; remote tasks
// live only as long as the snapshot they were fetched in.
type Task struct {
	ID          int       `json:"id"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Done        bool      `json:"done"`
	DueDate     time.Time `json:"dueDate"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Priority    Priority  `json:"priority"`
	Tags        []string  `json:"tags"`
}

// Remote reports whether the task came from GitHub rather than the
// local store.
func (t Task) Remote() bool {
	return t.Type == TypeIssue || t.Type == TypePR
}

func validType(ty Type) bool {
	switch ty {
	case TypePersonal, TypeIssue, TypePR:
		return true
	}
	return false
}

func validPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Validate checks the invariants every stored task must hold and
// returns the first violation found.
func Validate(t Task) error {
	if t.Title == "" {
		return ErrEmptyTitle
	}
	if !validType(t.Type) {
		return ErrInvalidType
	}
	if t.DueDate.IsZero() {
		return ErrInvalidDueDate
	}
	if t.Tags == nil {
		return ErrInvalidTags
	}
	if !validPriority(t.Priority) {
		return ErrInvalidPriority
	}
	return nil
}

package task

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidDateBound = errors.New("date bound must be a valid date")
	ErrInvalidDateSort  = errors.New("date sort must be asc or desc")
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Filter describes which predicate and sort stages to apply to a task
// list. A zero-valued field means "no constraint" for that dimension.
type Filter struct {
	// Text is matched case-insensitively against title, tags,
	// priority, and description; a task matches if any field
	// contains it.
	Text string `json:"text,omitempty"`

	// Tags keeps tasks where at least one task tag contains
	// (case-insensitively) any of these.
	Tags []string `json:"tags,omitempty"`

	// Done filters by completion when non-nil.
	Done *bool `json:"done,omitempty"`

	// Priorities keeps tasks whose priority is in the set.
	Priorities []Priority `json:"priorities,omitempty"`

	// After and Before bound the due date inclusively. Either side
	// may be nil; a non-nil zero time is a programming error.
	After  *time.Time `json:"afterDate,omitempty"`
	Before *time.Time `json:"beforeDate,omitempty"`

	// DateSort orders the result by due date: SortAsc or SortDesc.
	// Empty means SortDesc.
	DateSort string `json:"dateSort,omitempty"`
}

// Apply runs the filter pipeline over tasks and returns the ordered
// view. The input slice is not modified.
func Apply(tasks []Task, f Filter) ([]Task, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	result := append([]Task(nil), tasks...)
	result = filterByText(result, f.Text)
	result = filterByTags(result, f.Tags)
	result = filterByDone(result, f.Done)
	result = filterByPriorities(result, f.Priorities)
	result = filterByDateRange(result, f.After, f.Before)
	sortByDueDate(result, f.DateSort)
	return result, nil
}

func (f Filter) validate() error {
	if f.After != nil && f.After.IsZero() {
		return ErrInvalidDateBound
	}
	if f.Before != nil && f.Before.IsZero() {
		return ErrInvalidDateBound
	}
	switch f.DateSort {
	case "", SortAsc, SortDesc:
		return nil
	}
	return ErrInvalidDateSort
}

func filterByText(tasks []Task, text string) []Task {
	if text == "" {
		return tasks
	}
	query := strings.ToLower(text)
	out := tasks[:0]
	for _, t := range tasks {
		if matchesText(t, query) {
			out = append(out, t)
		}
	}
	return out
}

func matchesText(t Task, query string) bool {
	if strings.Contains(strings.ToLower(t.Title), query) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	if strings.Contains(strings.ToLower(string(t.Priority)), query) {
		return true
	}
	return strings.Contains(strings.ToLower(t.Description), query)
}

func filterByTags(tasks []Task, tags []string) []Task {
	if len(tags) == 0 {
		return tasks
	}
	wanted := make([]string, len(tags))
	for i, tag := range tags {
		wanted[i] = strings.ToLower(tag)
	}
	out := tasks[:0]
	for _, t := range tasks {
		if hasAnyTag(t, wanted) {
			out = append(out, t)
		}
	}
	return out
}

func hasAnyTag(t Task, wanted []string) bool {
	for _, tag := range t.Tags {
		lower := strings.ToLower(tag)
		for _, w := range wanted {
			if strings.Contains(lower, w) {
				return true
			}
		}
	}
	return false
}

func filterByDone(tasks []Task, done *bool) []Task {
	if done == nil {
		return tasks
	}
	out := tasks[:0]
	for _, t := range tasks {
		if t.Done == *done {
			out = append(out, t)
		}
	}
	return out
}

func filterByPriorities(tasks []Task, priorities []Priority) []Task {
	if len(priorities) == 0 {
		return tasks
	}
	out := tasks[:0]
	for _, t := range tasks {
		for _, p := range priorities {
			if t.Priority == p {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// filterByDateRange keeps tasks whose due date falls within
// [after, before], bounds inclusive. A nil bound imposes no constraint
// on that side; both nil is a no-op.
func filterByDateRange(tasks []Task, after, before *time.Time) []Task {
	if after == nil && before == nil {
		return tasks
	}
	out := tasks[:0]
	for _, t := range tasks {
		if after != nil && t.DueDate.Before(*after) {
			continue
		}
		if before != nil && t.DueDate.After(*before) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func sortByDueDate(tasks []Task, direction string) {
	asc := direction == SortAsc
	sort.SliceStable(tasks, func(i, j int) bool {
		if asc {
			return tasks[i].DueDate.Before(tasks[j].DueDate)
		}
		return tasks[j].DueDate.Before(tasks[i].DueDate)
	})
}

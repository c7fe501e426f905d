package task

import (
	"encoding/json"
	"sync"
	"time"

	"byteboard/internal/storage"

	"github.com/rs/zerolog"
)

// StorageKey is the key the personal task collection is persisted under.
const StorageKey = "byteboard_tasks"

// Patch represents a partial update to a personal task.
// nil pointer => "no change". Type is deliberately absent: a task
// never changes kind after creation.
type Patch struct {
	Title       *string    `json:"title,omitempty"`
	Done        *bool      `json:"done,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Description *string    `json:"description,omitempty"`
	URL         *string    `json:"url,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
}

// Store owns the personal task collection and merges in the latest
// remote snapshot on read. Personal tasks are persisted wholesale as
// one JSON array under StorageKey; remote tasks are never written back.
type Store struct {
	mu     sync.Mutex
	kv     storage.KV
	remote []Task
	logger zerolog.Logger
}

func NewStore(kv storage.KV, logger zerolog.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger.With().Str("component", "task_store").Logger(),
	}
}

// loadPersonal reads the stored collection. A missing key is an empty
// board; a corrupt payload is logged and treated as empty rather than
// taking the whole board down.
func (s *Store) loadPersonal() []Task {
	raw, ok := s.kv.Get(StorageKey)
	if !ok {
		return []Task{}
	}
	var tasks []Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		s.logger.Error().Err(err).Msg("stored task collection is corrupt")
		return []Task{}
	}
	return tasks
}

func (s *Store) savePersonal(tasks []Task) error {
	b, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return s.kv.Set(StorageKey, string(b))
}

func maxID(tasks []Task) int {
	max := 0
	for _, t := range tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}

// Create validates and persists a new personal task. The id is
// allocated as max existing id + 1. No partial state is written when
// validation fails.
func (s *Store) Create(data Task) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.loadPersonal()

	data.ID = maxID(tasks) + 1
	if data.Tags == nil {
		data.Tags = []string{}
	}
	if err := Validate(data); err != nil {
		return Task{}, err
	}

	tasks = append(tasks, data)
	if err := s.savePersonal(tasks); err != nil {
		return Task{}, err
	}
	return data, nil
}

// Get returns the task with the given id from the merged list.
// A missing id is (zero, false), never an error.
func (s *Store) Get(id int) (Task, bool) {
	for _, t := range s.All() {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// All returns the personal collection unioned with the latest cached
// remote snapshot. Remote tasks without an id get a transient one
// derived from the current max id; the assignment is never persisted.
func (s *Store) All() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.loadPersonal()
	next := maxID(tasks)
	for _, r := range s.remote {
		next = max(next, r.ID)
	}
	for _, r := range s.remote {
		if r.ID == 0 {
			next++
			r.ID = next
		}
		tasks = append(tasks, r)
	}
	return tasks
}

// Update merges the patch onto the stored task, re-validates, and
// persists the full collection. Unknown ids return (zero, false, nil);
// validation failures leave storage unchanged.
func (s *Store) Update(id int, p Patch) (Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.loadPersonal()
	idx := -1
	for i, t := range tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Task{}, false, nil
	}

	updated := tasks[idx]
	applyPatch(&updated, p)
	if err := Validate(updated); err != nil {
		return Task{}, true, err
	}

	tasks[idx] = updated
	if err := s.savePersonal(tasks); err != nil {
		return Task{}, true, err
	}
	return updated, true, nil
}

// Delete removes a personal task by id. Deleting an unknown id returns
// false and leaves storage untouched.
func (s *Store) Delete(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.loadPersonal()
	kept := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tasks) {
		return false, nil
	}
	if err := s.savePersonal(kept); err != nil {
		return false, err
	}
	return true, nil
}

// SetRemote replaces the cached remote snapshot.
func (s *Store) SetRemote(tasks []Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote = append([]Task(nil), tasks...)
}

func applyPatch(t *Task, p Patch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Done != nil {
		t.Done = *p.Done
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.URL != nil {
		t.URL = *p.URL
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Tags != nil {
		if *p.Tags == nil {
			t.Tags = []string{}
		} else {
			t.Tags = *p.Tags
		}
	}
}

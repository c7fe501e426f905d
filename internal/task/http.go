package task

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrNotSignedIn is returned by a SyncFunc when no user session is
// available to fetch remote tasks with.
var ErrNotSignedIn = errors.New("not signed in")

// SyncFunc refreshes the store's remote snapshot from GitHub.
type SyncFunc func(ctx context.Context) error

type Handler struct {
	store *Store
	sync  SyncFunc
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// SetSyncFunc wires the remote refresh used by the sync endpoint.
func (h *Handler) SetSyncFunc(fn SyncFunc) {
	h.sync = fn
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// parseDate accepts RFC 3339 timestamps and bare dates. The looser
// form is what the authoring form submits.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseBoolPtr(s string) *bool {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "1", "true", "yes":
		b := true
		return &b
	case "0", "false", "no":
		b := false
		return &b
	}
	return nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type taskPayload struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Done        bool     `json:"done"`
	DueDate     string   `json:"dueDate"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
}

type patchPayload struct {
	Title       *string   `json:"title"`
	Done        *bool     `json:"done"`
	DueDate     *string   `json:"dueDate"`
	Description *string   `json:"description"`
	URL         *string   `json:"url"`
	Priority    *string   `json:"priority"`
	Tags        *[]string `json:"tags"`
}

// TasksRoot serves /api/tasks: GET lists (optionally filtered), POST
// creates a personal task.
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	tasks, err := Apply(h.store.All(), f)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func filterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{
		Text:     q.Get("text"),
		Tags:     splitList(q.Get("tags")),
		Done:     parseBoolPtr(q.Get("done")),
		DateSort: q.Get("sort"),
	}
	for _, p := range splitList(q.Get("priorities")) {
		f.Priorities = append(f.Priorities, Priority(p))
	}
	if v := q.Get("after"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return Filter{}, ErrInvalidDateBound
		}
		f.After = &t
	}
	if v := q.Get("before"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return Filter{}, ErrInvalidDateBound
		}
		f.Before = &t
	}
	return f, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var p taskPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	due, err := parseDate(p.DueDate)
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrInvalidDueDate.Error())
		return
	}

	created, err := h.store.Create(Task{
		Type:        Type(p.Type),
		Title:       p.Title,
		Done:        p.Done,
		DueDate:     due,
		Description: p.Description,
		URL:         p.URL,
		Priority:    Priority(p.Priority),
		Tags:        p.Tags,
	})
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// TasksSub serves /api/tasks/{id}: GET, PATCH, DELETE.
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, ok := h.store.Get(id)
		if !ok {
			writeErr(w, http.StatusNotFound, "task not found")
			return
		}
		writeJSON(w, http.StatusOK, t)

	case http.MethodPatch:
		h.update(w, r, id)

	case http.MethodDelete:
		deleted, err := h.store.Delete(id)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !deleted {
			writeErr(w, http.StatusNotFound, "task not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id int) {
	var p patchPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	patch := Patch{
		Title:       p.Title,
		Done:        p.Done,
		Description: p.Description,
		URL:         p.URL,
		Tags:        p.Tags,
	}
	if p.Priority != nil {
		pr := Priority(*p.Priority)
		patch.Priority = &pr
	}
	if p.DueDate != nil {
		due, err := parseDate(*p.DueDate)
		if err != nil {
			writeErr(w, http.StatusBadRequest, ErrInvalidDueDate.Error())
			return
		}
		patch.DueDate = &due
	}

	updated, found, err := h.store.Update(id, patch)
	if !found {
		writeErr(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// TasksSync serves POST /api/tasks/sync: refreshes the remote snapshot
// and returns the merged list. A rate-limited refresh is reported with
// its retry-after time; other fetch failures degrade to the personal
// tasks already on hand.
func (h *Handler) TasksSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.sync == nil {
		writeErr(w, http.StatusConflict, "not signed in")
		return
	}

	if err := h.sync(r.Context()); err != nil {
		if errors.Is(err, ErrNotSignedIn) {
			writeErr(w, http.StatusConflict, "not signed in")
			return
		}
		// The GitHub adapter's rate-limit error carries the reset
		// time; surface it instead of a generic failure.
		var rl interface {
			error
			RetryAfter() string
		}
		if errors.As(err, &rl) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":       rl.Error(),
				"retry_after": rl.RetryAfter(),
			})
			return
		}
		writeErr(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.store.All())
}

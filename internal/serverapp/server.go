package serverapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"byteboard/internal/chat"
	"byteboard/internal/config"
	"byteboard/internal/github"
	"byteboard/internal/httpmw"
	"byteboard/internal/identity"
	"byteboard/internal/storage"
	"byteboard/internal/task"

	"github.com/rs/zerolog"
)

type Options struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewHandler builds the full API surface: storage, task store,
// identity service, GitHub sync, and assistant, wired onto one mux.
func NewHandler(opts Options) (http.Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	logger := opts.Logger

	kv, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	taskStore := task.NewStore(kv, logger)

	resolver := func(ctx context.Context, token string) (string, error) {
		return github.Login(ctx, cfg.GitHub.APIBaseURL, token)
	}
	idService := identity.NewService(kv, resolver, logger)

	syncRemote := func(ctx context.Context) error {
		creds, ok := idService.Current()
		if !ok {
			return task.ErrNotSignedIn
		}
		client := github.NewClient(creds.Username, creds.AccessToken, logger)
		if cfg.GitHub.APIBaseURL != "" {
			client.SetBaseURL(cfg.GitHub.APIBaseURL)
		}
		tasks, err := client.Tasks(ctx)
		// Partial results are still worth showing; the error (if
		// any) travels up so the caller can report it.
		taskStore.SetRemote(tasks)
		return err
	}

	// Warm the remote snapshot on sign-in, drop it on sign-out.
	idService.Subscribe(func(ev identity.Event, _ *identity.Credentials) {
		switch ev {
		case identity.EventSignedIn:
			go func() {
				if err := syncRemote(context.Background()); err != nil {
					logger.Warn().Err(err).Msg("remote task sync failed")
				}
			}()
		case identity.EventSignedOut:
			taskStore.SetRemote(nil)
		}
	})

	if cfg.Session.RestoreOnStart {
		idService.Restore(context.Background())
	}

	assistant := chat.NewAssistant(cfg.Chat.APIKey, cfg.Chat.Model, cfg.Chat.MaxTokens, taskStore, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "byteboard",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		// A readable store is the only readiness requirement.
		_ = taskStore.All()
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "byteboard",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	idHandler := identity.NewHandler(idService)
	mux.HandleFunc("/api/session", idHandler.Session)
	mux.HandleFunc("/api/session/login", idHandler.Login)
	mux.HandleFunc("/api/session/logout", idHandler.Logout)

	taskHandler := task.NewHandler(taskStore)
	taskHandler.SetSyncFunc(syncRemote)
	mux.HandleFunc("/api/tasks", taskHandler.TasksRoot)
	mux.HandleFunc("/api/tasks/sync", taskHandler.TasksSync)
	mux.HandleFunc("/api/tasks/", taskHandler.TasksSub)

	chatHandler := chat.NewHandler(assistant)
	mux.HandleFunc("/api/chat", chatHandler.Chat)

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(logger),
	), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

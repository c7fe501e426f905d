package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"byteboard/internal/task"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
)

// RateLimitError reports an exhausted GitHub request quota. It is
// distinguishable from an ordinary fetch failure so callers can tell
// the user when to retry instead of silently showing zero remote tasks.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return "github rate limit exceeded, retry after " + e.RetryAfter()
}

// RetryAfter is the human-readable time the quota resets.
func (e *RateLimitError) RetryAfter() string {
	return e.ResetAt.UTC().Format(time.RFC1123)
}

// Repo identifies a repository the user can access.
type Repo struct {
	Name  string
	Owner string
}

// Client fetches GitHub issues and pull requests for one user and
// normalizes them into tasks. Items not assigned to the user are
// dropped at this boundary; no downstream code sees raw API shapes.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	logger     zerolog.Logger
}

// NewClient builds a client for the given user. The token rides on an
// oauth2 transport; requests carry the GitHub API version header.
func NewClient(username, accessToken string, logger zerolog.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return &Client{
		httpClient: oauth2.NewClient(context.Background(), src),
		baseURL:    defaultBaseURL,
		username:   username,
		logger:     logger.With().Str("component", "github").Logger(),
	}
}

// SetBaseURL points the client at a different API host. Used in tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github: %s: %w", path, err)
	}
	defer resp.Body.Close()

	// Quota exhaustion arrives as a 403 with the remaining-quota
	// header at zero; report it before the generic status check.
	if resp.Header.Get("X-RateLimit-Remaining") == "0" {
		reset, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
		return &RateLimitError{ResetAt: time.Unix(reset, 0)}
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github: %s returned %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Login resolves the access token to its user login via GET /user.
// An empty baseURL means the public GitHub API. A rejected token is an
// error, which doubles as the token-validity check on sign-in.
func Login(ctx context.Context, baseURL, accessToken string) (string, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		httpClient: oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
		baseURL:    baseURL,
	}
	var payload struct {
		Login string `json:"login"`
	}
	if err := c.get(ctx, "/user", &payload); err != nil {
		return "", err
	}
	return payload.Login, nil
}

// Repos lists the repositories the authenticated user can access.
func (c *Client) Repos(ctx context.Context) ([]Repo, error) {
	var payload []repoPayload
	if err := c.get(ctx, "/user/repos", &payload); err != nil {
		return nil, err
	}
	repos := make([]Repo, 0, len(payload))
	for _, p := range payload {
		repos = append(repos, Repo{Name: p.Name, Owner: p.Owner.Login})
	}
	return repos, nil
}

// Issues returns the repository's issues assigned to the user,
// normalized into tasks. Entries carrying the pull_request
// discriminator are excluded here; they surface through Pulls.
func (c *Client) Issues(ctx context.Context, repo Repo) ([]task.Task, error) {
	var payload []itemPayload
	path := fmt.Sprintf("/repos/%s/%s/issues", repo.Owner, repo.Name)
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, err
	}

	var tasks []task.Task
	for _, p := range payload {
		if p.isPull() {
			continue
		}
		if t, ok := normalizeIssue(p, repo, c.username); ok {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// Pulls returns the repository's pull requests assigned to the user,
// normalized into tasks.
func (c *Client) Pulls(ctx context.Context, repo Repo) ([]task.Task, error) {
	var payload []itemPayload
	path := fmt.Sprintf("/repos/%s/%s/pulls", repo.Owner, repo.Name)
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, err
	}

	var tasks []task.Task
	for _, p := range payload {
		if t, ok := normalizePull(p, repo, c.username); ok {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// Tasks enumerates every accessible repository and gathers its issues
// and pull requests concurrently. A failing repository is logged and
// skipped so the rest still yield results; if any fetch hit the rate
// limit, the partial results are returned together with that error.
func (c *Client) Tasks(ctx context.Context) ([]task.Task, error) {
	repos, err := c.Repos(ctx)
	if err != nil {
		return nil, err
	}

	type fetch func(context.Context, Repo) ([]task.Task, error)
	type result struct {
		repo  Repo
		tasks []task.Task
		err   error
	}

	fetches := []fetch{c.Issues, c.Pulls}
	results := make([]result, len(repos)*len(fetches))

	var wg sync.WaitGroup
	for i, repo := range repos {
		for j, fn := range fetches {
			wg.Add(1)
			go func(slot int, repo Repo, fn fetch) {
				defer wg.Done()
				tasks, err := fn(ctx, repo)
				results[slot] = result{repo: repo, tasks: tasks, err: err}
			}(i*len(fetches)+j, repo, fn)
		}
	}
	wg.Wait()

	var tasks []task.Task
	var rateErr *RateLimitError
	for _, res := range results {
		if res.err != nil {
			var rl *RateLimitError
			if errors.As(res.err, &rl) {
				rateErr = rl
				continue
			}
			c.logger.Warn().
				Err(res.err).
				Str("repo", res.repo.Owner+"/"+res.repo.Name).
				Msg("repository fetch failed")
			continue
		}
		tasks = append(tasks, res.tasks...)
	}

	if rateErr != nil {
		return tasks, rateErr
	}
	return tasks, nil
}

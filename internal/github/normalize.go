package github

import (
	"encoding/json"
	"time"

	"byteboard/internal/task"
)

type repoPayload struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// itemPayload covers both the issues and pulls endpoints. The issues
// endpoint also returns pull requests, flagged by the pull_request key.
type itemPayload struct {
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	State       string          `json:"state"`
	HTMLURL     string          `json:"html_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	MergedAt    *time.Time      `json:"merged_at"`
	PullRequest json.RawMessage `json:"pull_request"`
	Assignees   []struct {
		Login string `json:"login"`
	} `json:"assignees"`
}

func (p itemPayload) isPull() bool {
	return len(p.PullRequest) > 0
}

// assignedTo is the whitelist filter: only items whose assignee list
// contains the user are surfaced as tasks.
func (p itemPayload) assignedTo(username string) bool {
	for _, a := range p.Assignees {
		if a.Login == username {
			return true
		}
	}
	return false
}

// repoTags derives the task tags: the repository name, plus the owner
// when it differs from the requesting user. The owner disambiguates
// organization repos in a multi-repo fetch.
func repoTags(repo Repo, username string) []string {
	tags := []string{repo.Name}
	if repo.Owner != username {
		tags = append(tags, repo.Owner)
	}
	return tags
}

// normalizeIssue maps an issue into the common task shape. The due
// date is the issue's updated-at timestamp; completion mirrors the
// closed state. Returns false when the item is not assigned to the
// user.
func normalizeIssue(p itemPayload, repo Repo, username string) (task.Task, bool) {
	if !p.assignedTo(username) {
		return task.Task{}, false
	}
	return task.Task{
		Type:        task.TypeIssue,
		Title:       p.Title,
		Done:        p.State == "closed",
		DueDate:     p.UpdatedAt,
		Description: p.Body,
		URL:         p.HTMLURL,
		Priority:    task.PriorityHigh,
		Tags:        repoTags(repo, username),
	}, true
}

// normalizePull maps a pull request into the common task shape. The
// due date is the creation timestamp; completion mirrors the closed or
// merged state.
func normalizePull(p itemPayload, repo Repo, username string) (task.Task, bool) {
	if !p.assignedTo(username) {
		return task.Task{}, false
	}
	return task.Task{
		Type:        task.TypePR,
		Title:       p.Title,
		Done:        p.State == "closed" || p.MergedAt != nil,
		DueDate:     p.CreatedAt,
		Description: p.Body,
		URL:         p.HTMLURL,
		Priority:    task.PriorityHigh,
		Tags:        repoTags(repo, username),
	}, true
}

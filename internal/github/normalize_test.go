package github

import (
	"testing"
	"time"

	"byteboard/internal/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assigned(logins ...string) []struct {
	Login string `json:"login"`
} {
	out := make([]struct {
		Login string `json:"login"`
	}, len(logins))
	for i, l := range logins {
		out[i].Login = l
	}
	return out
}

func TestNormalizeIssue_AssignedToUser(t *testing.T) {
	created := time.Date(2024, 11, 20, 10, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 11, 24, 3, 21, 13, 0, time.UTC)

	got, ok := normalizeIssue(itemPayload{
		Title:     "Update README",
		Body:      "make it useful",
		State:     "open",
		HTMLURL:   "https://github.com/bob/byteboard/issues/54",
		CreatedAt: created,
		UpdatedAt: updated,
		Assignees: assigned("bob"),
	}, Repo{Name: "byteboard", Owner: "bob"}, "bob")

	require.True(t, ok)
	assert.Equal(t, task.TypeIssue, got.Type)
	assert.Equal(t, "Update README", got.Title)
	assert.False(t, got.Done)
	// Issues use the updated-at timestamp as their due date.
	assert.True(t, got.DueDate.Equal(updated))
	assert.Equal(t, "make it useful", got.Description)
	assert.Equal(t, "https://github.com/bob/byteboard/issues/54", got.URL)
	assert.Equal(t, task.PriorityHigh, got.Priority)
	assert.Equal(t, []string{"byteboard"}, got.Tags)
}

func TestNormalizeIssue_NotAssignedExcluded(t *testing.T) {
	_, ok := normalizeIssue(itemPayload{
		Title:     "someone else's problem",
		Assignees: assigned("alice"),
	}, Repo{Name: "byteboard", Owner: "bob"}, "bob")
	assert.False(t, ok)
}

func TestNormalizeIssue_NoAssigneesExcluded(t *testing.T) {
	_, ok := normalizeIssue(itemPayload{Title: "unassigned"}, Repo{Name: "byteboard", Owner: "bob"}, "bob")
	assert.False(t, ok)
}

func TestNormalizeIssue_ClosedIsDone(t *testing.T) {
	got, ok := normalizeIssue(itemPayload{
		Title:     "done already",
		State:     "closed",
		Assignees: assigned("bob"),
	}, Repo{Name: "byteboard", Owner: "bob"}, "bob")
	require.True(t, ok)
	assert.True(t, got.Done)
}

func TestNormalizeIssue_OrgOwnerAddedToTags(t *testing.T) {
	got, ok := normalizeIssue(itemPayload{
		Title:     "org issue",
		Assignees: assigned("bob"),
	}, Repo{Name: "byteboard", Owner: "acme-org"}, "bob")
	require.True(t, ok)
	assert.Equal(t, []string{"byteboard", "acme-org"}, got.Tags)
}

func TestNormalizePull_CreatedAtIsDueDate(t *testing.T) {
	created := time.Date(2024, 11, 26, 21, 37, 41, 0, time.UTC)
	updated := created.Add(48 * time.Hour)

	got, ok := normalizePull(itemPayload{
		Title:     "ADR Dashboard",
		State:     "open",
		CreatedAt: created,
		UpdatedAt: updated,
		Assignees: assigned("bob"),
	}, Repo{Name: "byteboard", Owner: "bob"}, "bob")

	require.True(t, ok)
	assert.Equal(t, task.TypePR, got.Type)
	assert.True(t, got.DueDate.Equal(created))
	assert.False(t, got.Done)
}

func TestNormalizePull_MergedIsDone(t *testing.T) {
	merged := time.Date(2024, 11, 28, 0, 0, 0, 0, time.UTC)
	got, ok := normalizePull(itemPayload{
		Title:     "merged pr",
		State:     "open",
		MergedAt:  &merged,
		Assignees: assigned("bob"),
	}, Repo{Name: "byteboard", Owner: "bob"}, "bob")
	require.True(t, ok)
	assert.True(t, got.Done)
}

func TestItemPayload_IsPull(t *testing.T) {
	assert.False(t, itemPayload{}.isPull())
	assert.True(t, itemPayload{PullRequest: []byte(`{}`)}.isPull())
}

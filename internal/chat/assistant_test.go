package chat

import (
	"testing"
	"time"

	"byteboard/internal/task"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewAssistantDefaults(t *testing.T) {
	a := NewAssistant("", "", 0, nil, zerolog.Nop())

	assert.Equal(t, anthropic.ModelClaudeSonnet4_0, a.model)
	assert.Equal(t, int64(1024), a.maxTokens)
}

func TestNewAssistantOverrides(t *testing.T) {
	a := NewAssistant("key", "claude-3-haiku-20240307", 256, nil, zerolog.Nop())

	assert.Equal(t, anthropic.Model("claude-3-haiku-20240307"), a.model)
	assert.Equal(t, int64(256), a.maxTokens)
}

func TestBuildContext(t *testing.T) {
	due := time.Date(2024, 11, 24, 3, 21, 13, 0, time.UTC)
	tasks := []task.Task{
		{
			ID:       1,
			Type:     task.TypeIssue,
			Title:    "Update README",
			Done:     false,
			DueDate:  due,
			Priority: task.PriorityHigh,
			Tags:     []string{"byteboard", "acme-org"},
		},
		{
			ID:       2,
			Type:     task.TypePersonal,
			Title:    "Buy groceries",
			Done:     true,
			DueDate:  due,
			Priority: task.PriorityLow,
			Tags:     []string{},
		},
	}

	got := BuildContext(tasks)

	assert.Contains(t, got, "ID: 1")
	assert.Contains(t, got, "Type: issue")
	assert.Contains(t, got, "Title: Update README")
	assert.Contains(t, got, "Status: open")
	assert.Contains(t, got, "Tags: byteboard, acme-org")
	assert.Contains(t, got, "Priority: high")
	assert.Contains(t, got, "Due: 2024-11-24T03:21:13Z")

	assert.Contains(t, got, "Type: personal")
	assert.Contains(t, got, "Status: closed")
}

func TestBuildContext_Empty(t *testing.T) {
	assert.Empty(t, BuildContext(nil))
}

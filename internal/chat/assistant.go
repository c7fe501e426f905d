package chat

import (
	"context"
	"fmt"
	"strings"

	"byteboard/internal/task"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

// TaskSource supplies the combined task list the assistant answers
// questions over. Satisfied by *task.Store.
type TaskSource interface {
	All() []task.Task
}

const systemPrompt = `You are a task board assistant that answers questions based on the
user's task data. If the information is not present in the data, you can use your general
knowledge to provide an answer. Each item in the data has a type of "issue", "pr", or
"personal"; be flexible with the syntax and wording of the type field.`

// Assistant answers questions about the board through the Anthropic
// messages API.
type Assistant struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	tasks     TaskSource
	logger    zerolog.Logger
}

// NewAssistant creates an assistant. apiKey falls back to the
// ANTHROPIC_API_KEY environment variable handled by the SDK; model and
// maxTokens fall back to sensible defaults when zero.
func NewAssistant(apiKey, model string, maxTokens int64, tasks TaskSource, logger zerolog.Logger) *Assistant {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	m := anthropic.ModelClaudeSonnet4_0
	if model != "" {
		m = anthropic.Model(model)
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Assistant{
		client:    anthropic.NewClient(opts...),
		model:     m,
		maxTokens: maxTokens,
		tasks:     tasks,
		logger:    logger.With().Str("component", "chat").Logger(),
	}
}

// BuildContext renders the task list as the plain-text block handed to
// the model alongside each question.
func BuildContext(tasks []task.Task) string {
	var b strings.Builder
	for _, t := range tasks {
		status := "open"
		if t.Done {
			status = "closed"
		}
		fmt.Fprintf(&b, "ID: %d\nType: %s\nDue: %s\nTitle: %s\nStatus: %s\nTags: %s\nPriority: %s\n\n",
			t.ID, t.Type, t.DueDate.UTC().Format("2006-01-02T15:04:05Z07:00"),
			t.Title, status, strings.Join(t.Tags, ", "), t.Priority)
	}
	return b.String()
}

// Answer sends the question plus the current task context to the model
// and returns its reply.
func (a *Assistant) Answer(ctx context.Context, question string) (string, error) {
	data := BuildContext(a.tasks.All())

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt + "\n\nHere is the data:\n" + data},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(question)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("assistant request: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return strings.TrimSpace(text), nil
}

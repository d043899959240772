package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

// Suggestion is one proposed follow-up task.
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// Suggester proposes follow-up tasks for a set of existing tasks.
type Suggester interface {
	Suggest(ctx context.Context, tasks []model.Task, prompt string) ([]Suggestion, error)
}

var ErrNotConfigured = errors.New("suggestions are not configured")

const systemPrompt = `You are a task planning assistant. Given a list of existing
tasks and an optional goal, propose up to five concrete follow-up tasks.
Respond with a JSON array only, each element an object with "title",
"description" and "priority" (low, medium or high) fields. No prose.`

// Claude calls the Anthropic Messages API.
type Claude struct {
	client anthropicsdk.Client
	model  anthropicsdk.Model
}

func NewClaude(apiKey, modelName string) *Claude {
	m := anthropicsdk.Model(modelName)
	if modelName == "" {
		m = anthropicsdk.ModelClaudeSonnet4_0
	}
	return &Claude{
		client: anthropicsdk.NewClient(option.WithAPIKey(apiKey)),
		model:  m,
	}
}

func (s *Claude) Suggest(ctx context.Context, tasks []model.Task, prompt string) ([]Suggestion, error) {
	var sb strings.Builder
	if prompt != "" {
		fmt.Fprintf(&sb, "Goal: %s\n\n", prompt)
	}
	sb.WriteString("Existing tasks:\n")
	for _, t := range tasks {
		fmt.Fprintf(&sb, "- [%s] %s", t.Status, t.Title)
		if t.DueDate != "" {
			fmt.Fprintf(&sb, " (due %s)", t.DueDate)
		}
		sb.WriteString("\n")
	}

	msg, err := s.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     s.model,
		MaxTokens: int64(1024),
		System: []anthropicsdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(sb.String())),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		text.WriteString(block.Text)
	}
	return parseSuggestions(text.String())
}

// parseSuggestions tolerates code fences around the JSON array.
func parseSuggestions(raw string) ([]Suggestion, error) {
	raw = strings.TrimSpace(raw)
	if start := strings.Index(raw, "["); start >= 0 {
		if end := strings.LastIndex(raw, "]"); end > start {
			raw = raw[start : end+1]
		}
	}
	var out []Suggestion
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}
	return out, nil
}

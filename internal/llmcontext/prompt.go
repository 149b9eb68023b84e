package llmcontext

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Prompt is a rendered system prompt and user message pair.
type Prompt struct {
	System string
	User   string
}

// PromptData contains all data needed to render a prompt.
type PromptData struct {
	Now      string
	Timezone string
	Query    string
	Context  string
}

// PromptBuilder renders prompts from embedded templates.
type PromptBuilder struct {
	system *template.Template
	user   *template.Template
}

// NewPromptBuilder creates a PromptBuilder with loaded templates.
func NewPromptBuilder() (*PromptBuilder, error) {
	system, err := template.New("system_prompt.tmpl").ParseFS(templateFS,
		"templates/system_prompt.tmpl",
		"templates/response_schema.tmpl",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse system prompt template: %w", err)
	}

	user, err := template.New("user_message.tmpl").ParseFS(templateFS, "templates/user_message.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse user message template: %w", err)
	}

	return &PromptBuilder{system: system, user: user}, nil
}

// Build renders the prompt for query with the serialized context document.
func (pb *PromptBuilder) Build(query string, sc *StructuredContext, document []byte) (Prompt, error) {
	data := PromptData{
		Query:   query,
		Context: string(document),
	}
	if sc != nil {
		data.Now = sc.Metadata.Timestamp
		data.Timezone = sc.Metadata.Timezone
	}
	if data.Now == "" {
		data.Now = time.Now().Format(TimestampLayout)
	}

	var system bytes.Buffer
	if err := pb.system.Execute(&system, data); err != nil {
		return Prompt{}, fmt.Errorf("failed to execute system prompt template: %w", err)
	}

	var user bytes.Buffer
	if err := pb.user.Execute(&user, data); err != nil {
		return Prompt{}, fmt.Errorf("failed to execute user message template: %w", err)
	}

	return Prompt{System: system.String(), User: user.String()}, nil
}

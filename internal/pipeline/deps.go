// Package pipeline sequences retrieval, serialization, the model call and
// validation for a single question. It keeps no state between calls.
package pipeline

import (
	"context"
	"fmt"

	"github.com/Veraticus/recollect/internal/llmcontext"
	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/query"
	"github.com/Veraticus/recollect/internal/service"
	"github.com/Veraticus/recollect/internal/validator"
)

// Scorer builds a FilteredContext from a snapshot.
type Scorer interface {
	Score(ctx context.Context, intent model.IntentContext, snap model.Snapshot) (*model.FilteredContext, error)
}

// ContextBuilder serializes a FilteredContext for the model. Date ranges
// are resolved through the builder before scoring so both stages agree on
// the bounds.
type ContextBuilder interface {
	ResolveDateRange(r *model.DateRange) *model.DateRange
	Build(fc *model.FilteredContext, history []llmcontext.Turn) (*llmcontext.StructuredContext, error)
}

// PromptRenderer renders the system prompt and user message.
type PromptRenderer interface {
	Build(query string, sc *llmcontext.StructuredContext, document []byte) (llmcontext.Prompt, error)
}

// ModelClient answers a prompt with raw text.
type ModelClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ResponseValidator checks a decoded reply against its context.
type ResponseValidator interface {
	Validate(resp *validator.LLMResponse, fc *model.FilteredContext) validator.Result
}

// QueryExecutor runs filters and operations over items.
type QueryExecutor interface {
	Execute(items []model.Item, filters []query.Filter, ops []query.Operation) (*query.ResultData, error)
}

// Deps contains all dependencies required by the pipeline engine.
type Deps struct {
	// Snapshots supplies the user's records.
	Snapshots service.SnapshotSource
	// Scorer ranks records against the intent.
	Scorer Scorer
	// Builder produces the wire document.
	Builder ContextBuilder
	// Prompts renders the prompt around the document.
	Prompts PromptRenderer
	// Model is the language model. Only Answer needs it.
	Model ModelClient
	// Validator guards against hallucinated replies.
	Validator ResponseValidator
	// Queries runs the generic filter and operation path.
	Queries QueryExecutor
}

// Validate ensures all required dependencies are provided. The model is
// optional so that retrieval and validation work offline.
func (d *Deps) Validate() error {
	if d.Snapshots == nil {
		return fmt.Errorf("snapshot source dependency is required")
	}
	if d.Scorer == nil {
		return fmt.Errorf("scorer dependency is required")
	}
	if d.Builder == nil {
		return fmt.Errorf("context builder dependency is required")
	}
	if d.Prompts == nil {
		return fmt.Errorf("prompt renderer dependency is required")
	}
	if d.Validator == nil {
		return fmt.Errorf("validator dependency is required")
	}
	if d.Queries == nil {
		return fmt.Errorf("query executor dependency is required")
	}
	return nil
}

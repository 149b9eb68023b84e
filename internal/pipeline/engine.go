package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/recollect/internal/common"
	"github.com/Veraticus/recollect/internal/llmcontext"
	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/query"
	"github.com/Veraticus/recollect/internal/service"
	"github.com/Veraticus/recollect/internal/validator"
)

// ErrNoModel is returned by Answer when no model client is configured.
var ErrNoModel = errors.New("no language model configured")

// Config holds configuration options for the pipeline engine.
type Config struct {
	Retry service.RetryOptions
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Request is one question with its structured intent.
type Request struct {
	Weather *model.Weather
	Intent  model.IntentContext
	History []llmcontext.Turn
}

// Prepared is everything sent to the model for one request.
type Prepared struct {
	Filtered  *model.FilteredContext
	Context   *llmcontext.StructuredContext
	Prompt    llmcontext.Prompt
	RequestID string
	Document  []byte
}

// Answer is a validated model reply.
type Answer struct {
	Context   *model.FilteredContext
	RequestID string
	Raw       string
	Result    validator.Result
	Attempts  int
}

// QueryRequest runs filters and operations over the snapshot. No kinds
// means every kind.
type QueryRequest struct {
	Kinds      []model.Kind
	Filters    []query.Filter
	Operations []query.Operation
}

// Engine runs the retrieval, serialization and validation stages.
type Engine struct {
	deps  Deps
	retry service.RetryOptions
}

// NewEngine creates a new pipeline engine with the provided dependencies.
func NewEngine(deps Deps, cfg Config) (*Engine, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	return &Engine{deps: deps, retry: cfg.Retry}, nil
}

// Retrieve loads a snapshot and scores it against the request intent.
func (e *Engine) Retrieve(ctx context.Context, req Request) (*model.FilteredContext, error) {
	return e.retrieve(ctx, uuid.NewString(), req)
}

func (e *Engine) retrieve(ctx context.Context, requestID string, req Request) (*model.FilteredContext, error) {
	snap, err := e.deps.Snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	req.Intent.DateRange = e.deps.Builder.ResolveDateRange(req.Intent.DateRange)

	slog.Debug("Scoring snapshot",
		"request_id", requestID,
		"intent", req.Intent.Intent,
		"entities", len(req.Intent.Entities))

	fc, err := e.deps.Scorer.Score(ctx, req.Intent, snap)
	if err != nil {
		return nil, fmt.Errorf("failed to score records: %w", err)
	}
	if req.Weather != nil {
		fc.Weather = req.Weather
	}

	slog.Debug("Retrieved context",
		"request_id", requestID,
		"notes", fc.Count(model.KindNote),
		"tasks", fc.Count(model.KindTask),
		"locations", fc.Count(model.KindLocation),
		"emails", fc.Count(model.KindEmail),
		"receipts", fc.Count(model.KindReceipt))

	return fc, nil
}

// Prepare retrieves records and renders the prompt without calling the model.
func (e *Engine) Prepare(ctx context.Context, req Request) (*Prepared, error) {
	return e.prepare(ctx, uuid.NewString(), req)
}

func (e *Engine) prepare(ctx context.Context, requestID string, req Request) (*Prepared, error) {
	fc, err := e.retrieve(ctx, requestID, req)
	if err != nil {
		return nil, err
	}

	sc, err := e.deps.Builder.Build(fc, req.History)
	if err != nil {
		return nil, fmt.Errorf("failed to build context: %w", err)
	}

	document, err := llmcontext.Marshal(sc)
	if err != nil {
		return nil, err
	}

	prompt, err := e.deps.Prompts.Build(req.Intent.Query, sc, document)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	return &Prepared{
		RequestID: requestID,
		Filtered:  fc,
		Context:   sc,
		Document:  document,
		Prompt:    prompt,
	}, nil
}

// Answer prepares the request, asks the model and validates its reply.
// Undecodable replies are retried; once retries run out the decode error
// is returned rather than a validation result.
func (e *Engine) Answer(ctx context.Context, req Request) (*Answer, error) {
	if e.deps.Model == nil {
		return nil, ErrNoModel
	}

	requestID := uuid.NewString()
	prepared, err := e.prepare(ctx, requestID, req)
	if err != nil {
		return nil, err
	}

	var (
		raw      string
		resp     *validator.LLMResponse
		attempts int
	)
	err = common.WithRetry(ctx, func() error {
		attempts++
		out, err := e.deps.Model.Complete(ctx, prepared.Prompt.System, prepared.Prompt.User)
		if err != nil {
			return err
		}
		raw = out

		decoded, err := validator.DecodeResponse([]byte(out))
		if err != nil {
			slog.Debug("Model reply could not be decoded",
				"request_id", requestID,
				"attempt", attempts,
				"error", err)
			return err
		}
		resp = decoded
		return nil
	}, e.retry)
	if err != nil {
		return nil, fmt.Errorf("model answer failed: %w", err)
	}

	result := e.deps.Validator.Validate(resp, prepared.Filtered)
	slog.Debug("Validated reply",
		"request_id", requestID,
		"status", result.Status,
		"issues", len(result.Issues),
		"attempts", attempts)

	return &Answer{
		RequestID: requestID,
		Result:    result,
		Context:   prepared.Filtered,
		Raw:       raw,
		Attempts:  attempts,
	}, nil
}

// ValidateRaw decodes a reply produced elsewhere and validates it against fc.
func (e *Engine) ValidateRaw(raw []byte, fc *model.FilteredContext) (validator.Result, error) {
	resp, err := validator.DecodeResponse(raw)
	if err != nil {
		return validator.Result{}, err
	}
	return e.deps.Validator.Validate(resp, fc), nil
}

// Query runs the generic filter and operation path over the snapshot.
func (e *Engine) Query(ctx context.Context, req QueryRequest) (*query.ResultData, error) {
	snap, err := e.deps.Snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	items := snap.Items(req.Kinds...)
	slog.Debug("Running query",
		"request_id", uuid.NewString(),
		"items", len(items),
		"filters", len(req.Filters),
		"operations", len(req.Operations))

	return e.deps.Queries.Execute(items, req.Filters, req.Operations)
}

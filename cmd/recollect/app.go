package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/recollect/internal/config"
	"github.com/Veraticus/recollect/internal/llm"
	"github.com/Veraticus/recollect/internal/llmcontext"
	"github.com/Veraticus/recollect/internal/merchant"
	"github.com/Veraticus/recollect/internal/pipeline"
	"github.com/Veraticus/recollect/internal/query"
	"github.com/Veraticus/recollect/internal/relevance"
	"github.com/Veraticus/recollect/internal/storage"
	"github.com/Veraticus/recollect/internal/validator"
)

// app holds the wired components for one command invocation.
type app struct {
	cfg       *config.Config
	store     *storage.SQLiteStorage
	merchants *merchant.Service
	engine    *pipeline.Engine
}

// initStorage opens the configured database and runs migrations.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openStorage loads configuration and opens the database only.
func openStorage(ctx context.Context) (*config.Config, *storage.SQLiteStorage, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

// newApp loads configuration and wires storage, merchant intelligence, the
// optional model client and the pipeline engine.
func newApp(ctx context.Context) (*app, error) {
	cfg, store, err := openStorage(ctx)
	if err != nil {
		return nil, err
	}

	detector, err := merchant.NewDetector(merchant.DefaultMerchants())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load known merchants: %w", err)
	}

	var (
		client     llm.Client
		classifier merchant.Classifier
	)
	if cfg.HasModel() {
		client, err = llm.NewClient(cfg.ClientConfig())
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		classifier = merchant.NewLLMClassifier(client)
	} else {
		slog.Debug("No API key configured, running without a model", "provider", cfg.LLM.Provider)
	}

	merchants := merchant.NewService(store, detector, classifier, merchant.Config{
		CacheTTL: cfg.Merchant.CacheTTL,
	})

	prompts, err := llmcontext.NewPromptBuilder()
	if err != nil {
		_ = merchants.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	deps := pipeline.Deps{
		Snapshots: store,
		Scorer: relevance.NewWithConfig(merchants, relevance.Config{
			Location:      cfg.Location,
			LookupTimeout: cfg.Merchant.LookupTimeout,
		}),
		Builder: llmcontext.NewBuilder(llmcontext.Config{
			Location:     cfg.Location,
			HistoryLimit: cfg.Context.HistoryLimit,
		}),
		Prompts:   prompts,
		Validator: validator.NewWithConfig(validator.Config{Location: cfg.Location}),
		Queries:   query.NewEngine(nil),
	}
	if client != nil {
		deps.Model = client
	}

	engine, err := pipeline.NewEngine(deps, pipeline.Config{Retry: cfg.RetryOptions()})
	if err != nil {
		_ = merchants.Close()
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		store:     store,
		merchants: merchants,
		engine:    engine,
	}, nil
}

// Close releases the merchant cache and the database.
func (a *app) Close() error {
	return errors.Join(a.merchants.Close(), a.store.Close())
}

package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/puzzlebench/arc-explainer/internal/solver"
	"github.com/puzzlebench/arc-explainer/internal/store"
	"github.com/puzzlebench/arc-explainer/pkg/anthropic"
	"github.com/puzzlebench/arc-explainer/pkg/gemini"
	"github.com/puzzlebench/arc-explainer/pkg/openaicompat"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "arc-explainer.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initClients builds a client for every provider with a configured key.
// Providers without keys stay nil; dispatching to one is a solver error,
// so a single-provider setup needs exactly one key.
func initClients(ctx context.Context) (solver.Clients, error) {
	var clients solver.Clients

	if cfg.Anthropic.Key != "" {
		clients.Anthropic = anthropic.NewClient(cfg.Anthropic.Key)
	}
	if cfg.Gemini.Key != "" {
		g, err := gemini.NewClient(ctx, cfg.Gemini.Key)
		if err != nil {
			return clients, err
		}
		clients.Gemini = g
	}
	if cfg.OpenAI.Key != "" {
		clients.OpenAI = openaicompat.NewClient(openaicompat.Config{APIKey: cfg.OpenAI.Key, BaseURL: cfg.OpenAI.BaseURL})
	}
	if cfg.Grok.Key != "" {
		clients.Grok = openaicompat.NewClient(openaicompat.Config{APIKey: cfg.Grok.Key, BaseURL: cfg.Grok.BaseURL})
	}
	if cfg.DeepSeek.Key != "" {
		clients.DeepSeek = openaicompat.NewClient(openaicompat.Config{APIKey: cfg.DeepSeek.Key, BaseURL: cfg.DeepSeek.BaseURL})
	}
	if cfg.OpenRouter.Key != "" {
		clients.OpenRouter = openaicompat.NewClient(openaicompat.Config{APIKey: cfg.OpenRouter.Key, BaseURL: cfg.OpenRouter.BaseURL})
	}

	return clients, nil
}

// env bundles the wired store, clients, and solver for one command.
type env struct {
	Store   store.Store
	Clients solver.Clients
	Solver  *solver.Solver
}

func (e *env) Close() {
	if e.Clients.Gemini != nil {
		if err := e.Clients.Gemini.Close(); err != nil {
			zap.L().Warn("close gemini client", zap.Error(err))
		}
	}
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	clients, err := initClients(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &env{
		Store:   st,
		Clients: clients,
		Solver:  solver.New(clients, st, cfg),
	}, nil
}

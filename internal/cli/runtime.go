/*
Package cli implements the intent-hub command-line interface.

Each command constructor returns a *cobra.Command wired against a runtime
built from ~/.intent-hub.json plus command-line overrides. The runtime carries
a built-in demo registry (task and timer namespaces) so the dispatcher can be
exercised end to end without external services.
*/
package cli

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/khanglvm/intent-hub/internal/attention"
	"github.com/khanglvm/intent-hub/internal/config"
	"github.com/khanglvm/intent-hub/internal/dispatcher"
	"github.com/khanglvm/intent-hub/internal/embedding"
	"github.com/khanglvm/intent-hub/internal/engine"
	"github.com/khanglvm/intent-hub/internal/feedback"
	"github.com/khanglvm/intent-hub/internal/invocation"
	"github.com/khanglvm/intent-hub/internal/orchestrator"
	"github.com/khanglvm/intent-hub/internal/reasoning"
	anthropicsvc "github.com/khanglvm/intent-hub/internal/reasoning/anthropic"
	openaisvc "github.com/khanglvm/intent-hub/internal/reasoning/openai"
	"github.com/khanglvm/intent-hub/internal/registry"
	"github.com/khanglvm/intent-hub/internal/search"
	"github.com/khanglvm/intent-hub/internal/storage"
	"github.com/khanglvm/intent-hub/internal/toolexec"
)

// defaultPersonalityID identifies the single personality the CLI operates on.
const defaultPersonalityID = "default"

// runtimeOptions carry command-line overrides applied on top of the config.
type runtimeOptions struct {
	dbPath   string // overrides storage path; "memory" disables persistence
	provider string // overrides orchestrator provider
	model    string // overrides orchestrator model
	verbose  bool
}

// runtime bundles the wired components behind the CLI commands.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *storage.Store
	registry  *registry.MemoryRegistry
	attention *attention.Store
	invs      invocation.Repository
	fbs       feedback.Repository
	disp      *dispatcher.Dispatcher
	trainer   *feedback.Trainer
	booster   *search.Booster
}

// newRuntime loads configuration and wires the full dispatch pipeline.
func newRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if opts.verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("failed to build logger: %w", err)
		}
	}

	rt := &runtime{cfg: cfg, logger: logger}

	dbPath := cfg.Storage.Path
	if opts.dbPath != "" {
		dbPath = opts.dbPath
	}
	if dbPath == "" {
		dbPath, err = config.GetDefaultStoragePath()
		if err != nil {
			return nil, err
		}
	}

	var (
		attRepo attention.Repository
		vectors embedding.VectorStore
	)
	if dbPath == "memory" {
		attRepo = attention.NewMemoryRepository()
		rt.invs = invocation.NewMemoryRepository()
		rt.fbs = feedback.NewMemoryRepository()
	} else {
		store, err := storage.Open(dbPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		rt.store = store
		attRepo = attention.NewSQLRepository(store)
		rt.invs = invocation.NewSQLRepository(store)
		rt.fbs = feedback.NewSQLRepository(store)
		vectors = store
	}
	rt.attention = attention.NewStore(attRepo, logger)

	embedder := embedding.NewCache(
		embedding.NewHashProvider(cfg.Embedding.Dimension), vectors, logger)

	executor, err := rt.buildRegistry(ctx, embedder)
	if err != nil {
		rt.Close()
		return nil, err
	}

	booster, err := search.NewBooster(logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build keyword index: %w", err)
	}
	rt.booster = booster
	tools, err := rt.registry.FindAllTools(ctx)
	if err == nil {
		if err := booster.IndexTools(tools); err != nil {
			logger.Warn("keyword indexing failed", zap.Error(err))
		}
	}

	eng := engine.New(rt.registry, rt.registry.Tools(), booster, logger)

	reasoner, err := buildReasoner(cfg, opts)
	if err != nil {
		rt.Close()
		return nil, err
	}

	loop := orchestrator.NewLoop(reasoner, executor, logger, func(o *orchestrator.Options) {
		o.MaxTurns = cfg.Orchestrator.MaxTurns
		o.Model = cfg.Orchestrator.Model
		if opts.model != "" {
			o.Model = opts.model
		}
		o.Temperature = cfg.Orchestrator.Temperature
		o.MaxTokens = cfg.Orchestrator.MaxTokens
	})

	recorder := invocation.NewRecorder(rt.invs, logger)
	personalities := &livePersonalities{attention: rt.attention}
	rt.disp = dispatcher.New(embedder, eng, loop, recorder, personalities, logger)
	rt.trainer = feedback.NewTrainer(rt.fbs, rt.invs, rt.attention, logger)
	return rt, nil
}

// Close releases held resources.
func (rt *runtime) Close() {
	if rt.booster != nil {
		_ = rt.booster.Close()
	}
	if rt.store != nil {
		_ = rt.store.Close()
	}
	_ = rt.logger.Sync()
}

// buildReasoner selects the reasoning backend.
func buildReasoner(cfg *config.Config, opts runtimeOptions) (reasoning.Service, error) {
	provider := cfg.Orchestrator.Provider
	if opts.provider != "" {
		provider = opts.provider
	}
	switch provider {
	case "mock":
		// The scripted service answers without tool calls, which makes
		// offline runs deterministic.
		return reasoning.NewMock(), nil
	case "openai":
		return openaisvc.NewService(), nil
	case "anthropic":
		return anthropicsvc.NewService(), nil
	default:
		return nil, fmt.Errorf("unknown reasoning provider '%s'", provider)
	}
}

// livePersonalities serves the default personality with its current attention
// state loaded fresh on every dispatch, so trained thresholds apply
// immediately.
type livePersonalities struct {
	attention *attention.Store
}

func (p *livePersonalities) GetActive(ctx context.Context) (*registry.Personality, error) {
	state, err := p.attention.Get(ctx, defaultPersonalityID)
	if err != nil {
		return nil, err
	}
	return &registry.Personality{
		ID:        defaultPersonalityID,
		Name:      "Default",
		Attention: state,
	}, nil
}

func (p *livePersonalities) Save(ctx context.Context, personality *registry.Personality) error {
	_, err := p.attention.Apply(ctx, personality.ID, func(s *attention.State) {
		*s = *personality.Attention.Clone()
	})
	return err
}

// demoTool describes one built-in registry entry.
type demoTool struct {
	name        string
	description string
	keywords    []string
	parameters  map[string]any
	handler     toolexec.Handler
}

// buildRegistry populates the built-in task and timer namespaces and returns
// an executor with their handlers registered. Centroids come from the
// embedder so demo selection behaves like a real deployment.
func (rt *runtime) buildRegistry(ctx context.Context, embedder embedding.Provider) (*toolexec.FuncExecutor, error) {
	rt.registry = registry.NewMemoryRegistry()
	executor := toolexec.NewFuncExecutor(rt.logger)

	namespaces := []struct {
		name        string
		description string
		keywords    []string
		tools       []demoTool
	}{
		{
			name:        "task",
			description: "Create, complete, and list personal tasks and reminders",
			keywords:    []string{"task", "todo", "reminder", "note"},
			tools: []demoTool{
				{
					name:        "create",
					description: "Create a new task with a title and optional due date",
					keywords:    []string{"create", "add", "new", "task"},
					parameters: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title": map[string]any{"type": "string"},
							"due":   map[string]any{"type": "string"},
						},
						"required": []string{"title"},
					},
					handler: func(ctx context.Context, args map[string]any) (any, error) {
						return map[string]any{"status": "created", "title": args["title"]}, nil
					},
				},
				{
					name:        "complete",
					description: "Mark an existing task as done",
					keywords:    []string{"complete", "done", "finish", "task"},
					parameters: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title": map[string]any{"type": "string"},
						},
						"required": []string{"title"},
					},
					handler: func(ctx context.Context, args map[string]any) (any, error) {
						return map[string]any{"status": "completed", "title": args["title"]}, nil
					},
				},
				{
					name:        "list",
					description: "List open tasks",
					keywords:    []string{"list", "show", "tasks"},
					parameters: map[string]any{
						"type":       "object",
						"properties": map[string]any{},
					},
					handler: func(ctx context.Context, args map[string]any) (any, error) {
						return map[string]any{"tasks": []string{}}, nil
					},
				},
			},
		},
		{
			name:        "timer",
			description: "Set and cancel countdown timers and alarms",
			keywords:    []string{"timer", "alarm", "countdown", "minutes"},
			tools: []demoTool{
				{
					name:        "set",
					description: "Set a countdown timer for a duration",
					keywords:    []string{"set", "start", "timer", "minutes"},
					parameters: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"duration": map[string]any{"type": "string"},
							"label":    map[string]any{"type": "string"},
						},
						"required": []string{"duration"},
					},
					handler: func(ctx context.Context, args map[string]any) (any, error) {
						return map[string]any{"status": "running", "duration": args["duration"]}, nil
					},
				},
				{
					name:        "cancel",
					description: "Cancel a running timer",
					keywords:    []string{"cancel", "stop", "timer"},
					parameters: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"label": map[string]any{"type": "string"},
						},
					},
					handler: func(ctx context.Context, args map[string]any) (any, error) {
						return map[string]any{"status": "cancelled"}, nil
					},
				},
			},
		},
	}

	for _, ns := range namespaces {
		centroid, err := embedder.Generate(ctx, centroidText(ns.description, ns.keywords))
		if err != nil {
			return nil, fmt.Errorf("failed to embed namespace '%s': %w", ns.name, err)
		}
		if err := rt.registry.AddNamespace(&registry.Namespace{
			Name:        ns.name,
			Description: ns.description,
			Keywords:    ns.keywords,
			Centroid:    centroid,
		}); err != nil {
			return nil, err
		}
		for _, dt := range ns.tools {
			centroid, err := embedder.Generate(ctx, centroidText(dt.description, dt.keywords))
			if err != nil {
				return nil, fmt.Errorf("failed to embed tool '%s.%s': %w", ns.name, dt.name, err)
			}
			tool := &registry.Tool{
				Name:        dt.name,
				Namespace:   ns.name,
				Description: dt.description,
				Keywords:    dt.keywords,
				Parameters:  dt.parameters,
				Centroid:    centroid,
			}
			if err := rt.registry.AddTool(tool); err != nil {
				return nil, err
			}
			executor.Register(tool, dt.handler)
		}
	}

	return executor, nil
}

func centroidText(description string, keywords []string) string {
	return description + " " + strings.Join(keywords, " ")
}

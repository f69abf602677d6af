package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/geoagent/internal/agent"
	"github.com/ppiankov/geoagent/internal/brief"
	"github.com/ppiankov/geoagent/internal/extract"
	"github.com/ppiankov/geoagent/internal/graph"
	"github.com/ppiankov/geoagent/internal/llm"
	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/score"
	"github.com/ppiankov/geoagent/internal/search"
	"github.com/ppiankov/geoagent/internal/store"
	"github.com/ppiankov/geoagent/internal/worker"
)

// app holds the wired collaborators shared by run, batch and serve
type app struct {
	cfg    *model.Config
	logger *slog.Logger
	agent  *agent.Agent
	graph  graph.Store
	briefs *store.BriefStore
}

// newApp wires configuration into a ready agent. Call close when done.
func newApp(ctx context.Context, cfg *model.Config, logger *slog.Logger) (*app, error) {
	limiter := worker.NewLimiter(cfg.Search.RequestsPerSecond, cfg.Search.Burst)

	searchClient, err := search.NewClient(cfg.Search, limiter, logger.With("component", "search"))
	if err != nil {
		return nil, err
	}

	var extractor agent.Extractor
	switch strings.ToLower(cfg.Extract.Provider) {
	case "", "tavily":
		extractor = searchClient
	case "readability", "local":
		extractor = extract.NewPageExtractor(cfg.Extract, nil, logger.With("component", "extract"))
	default:
		return nil, fmt.Errorf("unknown extract provider: %s (supported: tavily, readability)", cfg.Extract.Provider)
	}

	gs, err := openGraph(ctx, cfg.Graph, logger)
	if err != nil {
		return nil, err
	}

	caller, err := llm.NewToolCaller(llm.ConfigFromModel(cfg.ToolModel))
	if err != nil {
		_ = gs.Close(ctx)
		return nil, fmt.Errorf("tool model: %w", err)
	}
	writer, err := llm.NewGenerator(ctx, llm.ConfigFromModel(cfg.WriterModel))
	if err != nil {
		_ = gs.Close(ctx)
		return nil, fmt.Errorf("writer model: %w", err)
	}

	briefs := store.NewBriefStore(cfg.Store.Dir)
	scorer := score.NewScorer(score.NewAuthorityClassifier(&cfg.Authority))
	synth := brief.NewSynthesizer(writer, scorer, gs, logger.With("component", "synthesizer"))

	tools := agent.NewToolset(agent.ToolDeps{
		Search:        searchClient,
		Extract:       extractor,
		Graph:         gs,
		Synthesizer:   synth,
		Briefs:        briefs,
		MarketDomains: cfg.Search.MarketDomains,
		MaxResults:    cfg.Search.MaxResults,
		Logger:        logger.With("component", "tools"),
	})

	logger.Debug("agent wired",
		"tool_model", caller.Name(),
		"writer_model", writer.Name(),
		"extract", cfg.Extract.Provider,
		"graph", graphKind(cfg.Graph),
	)

	return &app{
		cfg:    cfg,
		logger: logger,
		agent:  agent.New(caller, tools, gs, cfg.Agent, logger.With("component", "agent")),
		graph:  gs,
		briefs: briefs,
	}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.graph.Close(ctx); err != nil {
		a.logger.Warn("close graph store", "error", err)
	}
}

// openGraph connects to Neo4j when a URI is configured, otherwise uses the in-process graph
func openGraph(ctx context.Context, cfg model.GraphConfig, logger *slog.Logger) (graph.Store, error) {
	if cfg.URI == "" {
		logger.Debug("using in-process graph store")
		return graph.NewMemoryStore(), nil
	}
	gs, err := graph.OpenNeo4j(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open graph store: %w", err)
	}
	if err := gs.EnsureSchema(ctx); err != nil {
		_ = gs.Close(ctx)
		return nil, fmt.Errorf("ensure graph schema: %w", err)
	}
	return gs, nil
}

func graphKind(cfg model.GraphConfig) string {
	if cfg.URI == "" {
		return "memory"
	}
	return "neo4j"
}

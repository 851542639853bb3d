package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grbba/skosdoc/config"
	"github.com/grbba/skosdoc/definition"
	"github.com/grbba/skosdoc/identifier"
	"github.com/grbba/skosdoc/llm"
	"github.com/grbba/skosdoc/metrics"
	"github.com/grbba/skosdoc/output"
	"github.com/grbba/skosdoc/render"
	"github.com/grbba/skosdoc/source"
	"github.com/grbba/skosdoc/taxonomy"
)

// loadConfig layers config files and environment, then applies flags.
func loadConfig(g *globalFlags, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.NewLoader(logger).Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if len(g.inputs) > 0 {
		cfg.Source.Patterns = g.inputs
	}
	if g.outDir != "" {
		cfg.Output.Dir = g.outDir
	}
	if g.language != "" {
		cfg.Taxonomy.Language = g.language
	}
	if g.metrics != "" {
		cfg.Metrics.Textfile = g.metrics
	}
	if len(cfg.Source.Patterns) == 0 {
		return nil, fmt.Errorf("no taxonomy input: pass --ttl or set source.patterns")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// pipeline is one loaded taxonomy with everything rendering needs.
type pipeline struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	sources *source.Result
	tax     *taxonomy.Context
	ids     *identifier.Map
	defs    *definition.Resolver
	writer  *output.Writer
}

func newPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	res, err := source.NewLoader(source.WithLogger(logger)).Load(ctx, cfg.Source.Patterns)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	tax := taxonomy.New(res.Store,
		taxonomy.WithLanguage(cfg.Taxonomy.Language),
		taxonomy.WithReferencePredicate(cfg.Taxonomy.ReferencePredicate),
		taxonomy.WithLogger(logger),
	)

	ids, err := assignIdentifiers(ctx, cfg, tax, m, logger)
	if err != nil {
		return nil, err
	}

	defs, err := newResolver(cfg, tax, m, logger)
	if err != nil {
		return nil, err
	}
	defs.Prefetch(ctx, tax.Concepts())

	w, err := output.NewWriter(cfg.Output.Dir, output.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("prepare output: %w", err)
	}

	logger.Info("Taxonomy ready",
		"concepts", len(tax.Concepts()),
		"schemes", len(tax.Schemes()),
		"identifiers", ids.Len())

	return &pipeline{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		sources: res,
		tax:     tax,
		ids:     ids,
		defs:    defs,
		writer:  w,
	}, nil
}

func assignIdentifiers(ctx context.Context, cfg *config.Config, tax *taxonomy.Context, m *metrics.Metrics, logger *slog.Logger) (*identifier.Map, error) {
	strategy, err := identifier.StrategyFor(cfg.Identifiers.Strategy)
	if err != nil {
		return nil, err
	}
	opts := []identifier.Option{
		identifier.WithLogger(logger),
		identifier.WithCollisionHook(m.Collision),
	}
	if cfg.Identifiers.StorePath != "" {
		store, err := identifier.NewSQLiteStore(cfg.Identifiers.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open identifier store: %w", err)
		}
		defer store.Close()
		opts = append(opts, identifier.WithStore(store))
	}

	ids, err := identifier.NewAssigner(strategy, opts...).Assign(ctx, tax.Concepts())
	if err != nil {
		return nil, fmt.Errorf("assign identifiers: %w", err)
	}
	return ids, nil
}

// newResolver wires the model-backed generator when definitions are enabled
// and the null generator otherwise.
func newResolver(cfg *config.Config, tax *taxonomy.Context, m *metrics.Metrics, logger *slog.Logger) (*definition.Resolver, error) {
	var gen definition.Generator = definition.Nop{}
	if cfg.Definitions.Enabled {
		if _, ok := llm.Lookup(cfg.Model.Provider); !ok {
			return nil, fmt.Errorf("unknown model provider %q (have %v)", cfg.Model.Provider, llm.Providers())
		}
		retry := llm.DefaultRetryConfig()
		if cfg.Model.MaxAttempts > 0 {
			retry.MaxAttempts = cfg.Model.MaxAttempts
		}
		client := llm.NewClient(llm.Endpoint{
			Provider: cfg.Model.Provider,
			URL:      cfg.Model.URL,
			Model:    cfg.Model.Name,
			APIKey:   cfg.Model.APIKey,
		},
			llm.WithRetryConfig(retry),
			llm.WithRateLimit(cfg.Definitions.RatePerSecond, 1),
			llm.WithLogger(logger),
		)
		gen = definition.NewLLMGenerator(client, cfg.Model.Temperature, cfg.Model.MaxTokens)
		logger.Info("Definition generation enabled",
			"provider", cfg.Model.Provider,
			"model", cfg.Model.Name)
	}

	return definition.NewResolver(tax,
		definition.WithGenerator(gen),
		definition.WithTimeout(cfg.Definitions.Timeout),
		definition.WithConcurrency(cfg.Definitions.Concurrency),
		definition.WithLogger(logger),
		definition.WithOutcomeHook(func(o definition.Outcome) { m.Definition(string(o)) }),
	), nil
}

// renderer builds a renderer for dialect with the run's settings.
func (p *pipeline) renderer(d render.Dialect) *render.Renderer {
	opts := []render.Option{
		render.WithIdentifiers(p.ids),
		render.WithDefinitions(p.defs),
		render.WithMaxHeading(p.cfg.Taxonomy.MaxHeading),
		render.WithIndexTitle(p.cfg.Taxonomy.IndexTitle),
		render.WithLogger(p.logger),
		render.WithConceptHook(func() { p.metrics.ConceptRendered(d.Name()) }),
	}
	if p.cfg.Taxonomy.HidePreview {
		opts = append(opts, render.WithPreview(false))
	}
	return render.New(p.tax, d, opts...)
}

// timed records how long fn took for dialect.
func (p *pipeline) timed(dialect string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.ObserveRender(dialect, time.Since(start))
	return err
}

// finish writes the metrics textfile when configured.
func (p *pipeline) finish() error {
	if p.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := p.metrics.WriteTextfile(p.cfg.Metrics.Textfile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	p.logger.Debug("Metrics written", "path", p.cfg.Metrics.Textfile)
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/grbba/skosdoc/config"
	"github.com/grbba/skosdoc/source"
)

func watchCmd(g *globalFlags) *cobra.Command {
	var (
		formats  []string
		layout   string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render whenever a taxonomy source file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := slog.Default()
			cfg, err := loadConfig(g, logger)
			if err != nil {
				return err
			}
			return runWatch(ctx, cfg, formats, layout, debounce, logger)
		},
	}

	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{"markdown", "confluence"}, "Output dialects: markdown, confluence")
	cmd.Flags().StringVar(&layout, "layout", layoutDocument, "Document structure: document or aggregate")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period before re-rendering")
	return cmd
}

func runWatch(ctx context.Context, cfg *config.Config, formats []string, layout string, debounce time.Duration, logger *slog.Logger) error {
	w, err := source.NewWatcher(source.WatchRoots(cfg.Source.Patterns), source.NewRegistry().Extensions(), debounce, logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	rerender := func() {
		p, err := newPipeline(ctx, cfg, logger)
		if err != nil {
			logger.Error("Render failed", "error", err)
			return
		}
		for _, doc := range p.sources.Documents {
			w.SetHash(doc.Path, doc.Hash)
		}
		s, err := runRender(ctx, p, formats, layout, false)
		if err != nil {
			logger.Error("Render failed", "error", err)
			return
		}
		s.print(os.Stdout, isTerminal(os.Stdout))
		if err := p.finish(); err != nil {
			logger.Warn("Metrics not written", "error", err)
		}
	}

	rerender()
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped")
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			logger.Info("Source changed", "path", ev.Path, "operation", ev.Operation)
			rerender()
		}
	}
}

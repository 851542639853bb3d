// Package main provides the skosdoc binary entry point.
// Skosdoc renders SKOS taxonomies as Markdown and Confluence documentation,
// publishes the pages and rewrites concept IRIs to minted identifiers.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	// Register LLM providers via init()
	_ "github.com/grbba/skosdoc/llm/providers"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "skosdoc"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	inputs     []string
	outDir     string
	language   string
	metrics    string
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "SKOS taxonomy documentation generator",
		Long: `Skosdoc reads SKOS taxonomies (Turtle or N-Triples) and produces
documentation for them.

It provides:
- Markdown and Confluence storage-format documents
- Per-scheme Confluence pages and publishing over the REST API
- Rewritten taxonomies with minted concept identifiers
- Watch mode that re-renders when source files change`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(g.logLevel))
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML or TOML)")
	pf.StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringSliceVarP(&g.inputs, "ttl", "i", nil, "Taxonomy files or globs (repeatable)")
	pf.StringVarP(&g.outDir, "out", "o", "", "Output directory")
	pf.StringVar(&g.language, "lang", "", "Preferred label language")
	pf.StringVar(&g.metrics, "metrics-textfile", "", "Write run metrics to this file")

	cmd.AddCommand(
		renderCmd(g),
		confluenceCmd(g),
		rewriteCmd(g),
		watchCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

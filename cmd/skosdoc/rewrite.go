package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grbba/skosdoc/export"
)

type rewriteFlags struct {
	format    string
	namespace string
	prefix    string
	file      string
	noProv    bool
	writeBack bool
	storePath string
	strategy  string
}

func rewriteCmd(g *globalFlags) *cobra.Command {
	f := &rewriteFlags{}

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Write the taxonomy with concept IRIs replaced by minted identifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := slog.Default()
			cfg, err := loadConfig(g, logger)
			if err != nil {
				return err
			}
			ic := &cfg.Identifiers
			for name, v := range map[string]struct {
				value string
				dst   *string
			}{
				"format":    {f.format, &ic.Format},
				"namespace": {f.namespace, &ic.Namespace},
				"prefix":    {f.prefix, &ic.Prefix},
				"store":     {f.storePath, &ic.StorePath},
				"strategy":  {f.strategy, &ic.Strategy},
				"file":      {f.file, &cfg.Output.RewriteFile},
			} {
				if cmd.Flags().Changed(name) {
					*v.dst = v.value
				}
			}
			cfg.Definitions.WriteBack = cfg.Definitions.WriteBack || f.writeBack
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			p, err := newPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}
			s, err := runRewrite(ctx, p, !f.noProv)
			if err != nil {
				return err
			}
			s.print(os.Stdout, isTerminal(os.Stdout))
			return p.finish()
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.format, "format", "", "Output format: turtle, ntriples, jsonld")
	fl.StringVar(&f.namespace, "namespace", "", "Namespace of the rewritten concept IRIs")
	fl.StringVar(&f.prefix, "prefix", "", "Prefix bound to the namespace")
	fl.StringVar(&f.file, "file", "", "Output file name")
	fl.StringVar(&f.storePath, "store", "", "SQLite file keeping identifiers across runs")
	fl.StringVar(&f.strategy, "strategy", "", "Identifier strategy: random, hash")
	fl.BoolVar(&f.noProv, "no-provenance", false, "Omit prov:wasDerivedFrom links to the original IRIs")
	fl.BoolVar(&f.writeBack, "write-definitions", false, "Store generated definitions in the output")
	return cmd
}

func runRewrite(ctx context.Context, p *pipeline, provenance bool) (*summary, error) {
	ic := p.cfg.Identifiers
	format, ok := export.ParseFormat(ic.Format)
	if !ok {
		return nil, fmt.Errorf("unsupported rewrite format %q", ic.Format)
	}

	opts := []export.RewriteOption{
		export.WithPrefix(ic.Prefix),
		export.WithProvenance(provenance),
		export.WithLogger(p.logger),
	}
	if p.cfg.Definitions.WriteBack {
		opts = append(opts, export.WithGeneratedDefinitions(p.defs.Generated()))
	}

	rewritten, err := export.NewRewriter(ic.Namespace, opts...).Rewrite(p.tax, p.ids)
	if err != nil {
		return nil, fmt.Errorf("rewrite taxonomy: %w", err)
	}
	text, err := export.Export(rewritten, format)
	if err != nil {
		return nil, err
	}

	unlock, err := p.writer.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	path, err := p.writer.WriteString(rewriteFileName(p.cfg.Output.RewriteFile, format), text)
	if err != nil {
		return nil, err
	}
	return &summary{
		title: "skosdoc rewrite",
		files: []string{path},
		notes: []string{fmt.Sprintf("%d concepts re-identified under %s", p.ids.Len(), ic.Namespace)},
	}, nil
}

// rewriteFileName swaps the extension of name for the format's one.
func rewriteFileName(name string, format export.Format) string {
	info, ok := export.GetFormatInfo(format)
	if !ok {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + info.Extension
}

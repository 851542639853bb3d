package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grbba/skosdoc/output"
	"github.com/grbba/skosdoc/render"
)

// Layouts accepted by --layout. Every requested dialect gets the same one.
const (
	layoutDocument  = "document"
	layoutAggregate = "aggregate"
)

type renderFlags struct {
	formats []string
	layout  string
	title   string
	preview bool
}

func renderCmd(g *globalFlags) *cobra.Command {
	f := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the taxonomy as Markdown and/or Confluence storage format",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := slog.Default()
			cfg, err := loadConfig(g, logger)
			if err != nil {
				return err
			}
			if f.title != "" {
				cfg.Output.Title = f.title
			}

			p, err := newPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}
			s, err := runRender(ctx, p, f.formats, f.layout, f.preview && isTerminal(os.Stdout))
			if err != nil {
				return err
			}
			s.print(os.Stdout, isTerminal(os.Stdout))
			return p.finish()
		},
	}

	cmd.Flags().StringSliceVarP(&f.formats, "format", "f", []string{"markdown"}, "Output dialects: markdown, confluence")
	cmd.Flags().StringVar(&f.layout, "layout", layoutDocument, "Document structure: document (index and facets) or aggregate (scheme overview and sections)")
	cmd.Flags().StringVar(&f.title, "title", "", "Heading of the aggregate layout")
	cmd.Flags().BoolVar(&f.preview, "preview", false, "Show the Markdown document in the terminal")
	return cmd
}

// runRender writes one document per requested dialect under an output lock.
// All dialects share layout, so the files differ only in markup.
func runRender(ctx context.Context, p *pipeline, formats []string, layout string, preview bool) (*summary, error) {
	if layout != layoutDocument && layout != layoutAggregate {
		return nil, fmt.Errorf("unknown layout %q (want %s or %s)", layout, layoutDocument, layoutAggregate)
	}
	unlock, err := p.writer.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s := &summary{title: "skosdoc render"}
	for _, name := range formats {
		d, ok := render.DialectFor(name)
		if !ok {
			return nil, fmt.Errorf("unknown format %q", name)
		}

		r := p.renderer(d)
		var text string
		err := p.timed(d.Name(), func() error {
			if layout == layoutAggregate {
				text = r.Aggregate(ctx, p.cfg.Output.Title).Body
			} else {
				text = r.Document(ctx)
			}
			return ctx.Err()
		})
		if err != nil {
			return nil, err
		}

		file := p.cfg.Output.MarkdownFile
		if _, ok := d.(render.Confluence); ok {
			file = p.cfg.Output.StorageFile
		}
		path, err := p.writer.WriteString(file, text)
		if err != nil {
			return nil, err
		}
		s.files = append(s.files, path)

		if preview {
			if _, isMarkdown := d.(render.Markdown); isMarkdown {
				showPreview(text)
			}
		}
	}
	return s, nil
}

func showPreview(markdown string) {
	tp, err := output.NewTerminalPreview(terminalWidth(os.Stdout))
	if err != nil {
		slog.Warn("Terminal preview unavailable", "error", err)
		return
	}
	out, err := tp.Render(markdown)
	if err != nil {
		slog.Warn("Terminal preview failed", "error", err)
		return
	}
	fmt.Fprint(os.Stdout, out)
}

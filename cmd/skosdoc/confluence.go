package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grbba/skosdoc/output"
	"github.com/grbba/skosdoc/publish"
	"github.com/grbba/skosdoc/render"
)

// ExamplePayloadFile is always written next to the storage documents.
const ExamplePayloadFile = "example_payload.json"

type confluenceFlags struct {
	title          string
	baseURL        string
	space          string
	parentID       string
	parentURL      string
	user           string
	token          string
	post           bool
	perScheme      bool
	updateIfExists bool
	dryRun         bool
}

func confluenceCmd(g *globalFlags) *cobra.Command {
	f := &confluenceFlags{}

	cmd := &cobra.Command{
		Use:   "confluence",
		Short: "Generate Confluence storage pages and optionally publish them",
		Long: `Writes the aggregate storage document, one page per concept scheme and an
example create payload. With --post the aggregate page is created (or
updated) under the parent page, and with --per-scheme every scheme page is
published under it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := slog.Default()
			cfg, err := loadConfig(g, logger)
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg.Confluence.PageTitle, &cfg.Confluence.BaseURL, &cfg.Confluence.Space,
				&cfg.Confluence.ParentID, &cfg.Confluence.ParentURL, &cfg.Confluence.User, &cfg.Confluence.Token)
			cfg.Confluence.PerScheme = cfg.Confluence.PerScheme || f.perScheme
			cfg.Confluence.UpdateIfExists = cfg.Confluence.UpdateIfExists || f.updateIfExists

			p, err := newPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}
			s, err := runConfluence(ctx, p, f.post, f.dryRun)
			if s != nil {
				s.print(os.Stdout, isTerminal(os.Stdout))
			}
			if err != nil {
				return err
			}
			return p.finish()
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.title, "title", "", "Title of the entry page (default \"SKOS Vocabulary\")")
	fl.StringVar(&f.baseURL, "base-url", "", "Confluence base URL, e.g. https://example.atlassian.net/wiki")
	fl.StringVar(&f.space, "space", "", "Confluence space key")
	fl.StringVar(&f.parentID, "parent-id", "", "Parent page ID")
	fl.StringVar(&f.parentURL, "parent-url", "", "Parent page URL (/spaces/<KEY>/pages/<ID>/...)")
	fl.StringVar(&f.user, "auth-user", "", "Confluence user (or SKOSDOC_CONFLUENCE_USER)")
	fl.StringVar(&f.token, "auth-token", "", "Confluence API token (or SKOSDOC_CONFLUENCE_TOKEN)")
	fl.BoolVar(&f.post, "post", false, "Publish the pages")
	fl.BoolVar(&f.perScheme, "per-scheme", false, "Publish one child page per concept scheme")
	fl.BoolVar(&f.updateIfExists, "update-if-exists", false, "Update a page with the same title instead of creating one")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Report what would be published without network calls")
	return cmd
}

// apply copies the flags that were set over the configured values.
func (f *confluenceFlags) apply(cmd *cobra.Command, title, baseURL, space, parentID, parentURL, user, token *string) {
	set := func(name, value string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst = value
		}
	}
	set("title", f.title, title)
	set("base-url", f.baseURL, baseURL)
	set("space", f.space, space)
	set("parent-id", f.parentID, parentID)
	set("parent-url", f.parentURL, parentURL)
	set("auth-user", f.user, user)
	set("auth-token", f.token, token)
}

// runConfluence writes every local artifact first and publishes afterwards,
// so a publish failure never loses output.
func runConfluence(ctx context.Context, p *pipeline, post, dryRun bool) (*summary, error) {
	cc := &p.cfg.Confluence
	if cc.ParentURL != "" {
		space, id, err := publish.ParseParentURL(cc.ParentURL)
		if err != nil {
			return nil, err
		}
		if cc.Space == "" {
			cc.Space = space
		}
		if cc.ParentID == "" {
			cc.ParentID = id
		}
	}

	plan, s, err := writeConfluenceArtifacts(ctx, p)
	if err != nil {
		return nil, err
	}
	if !post && !dryRun {
		return s, nil
	}

	if dryRun {
		if err := writeDryRunPreview(p, plan.Entry, s); err != nil {
			p.logger.Warn("Dry-run preview failed", "error", err)
		}
	} else if cc.BaseURL == "" || cc.Space == "" || cc.ParentID == "" {
		return s, errors.New("publishing needs --base-url, --space and --parent-id (or --parent-url)")
	}

	confluence := publish.NewConfluence(cc.BaseURL, cc.Space, cc.User, cc.Token, publish.WithLogger(p.logger))
	opts := []publish.RunnerOption{
		publish.WithDryRun(dryRun),
		publish.WithUpdateIfExists(cc.UpdateIfExists),
		publish.WithRunnerLogger(p.logger),
		publish.WithResultHook(func(r publish.Result) { p.metrics.Page(string(r.Action)) }),
	}
	if p.cfg.NATS.URL != "" && !dryRun {
		ledger, closeLedger, err := publish.ConnectLedger(ctx, p.cfg.NATS.URL, p.cfg.NATS.Bucket, p.logger)
		if err != nil {
			return s, fmt.Errorf("open page ledger: %w", err)
		}
		defer closeLedger()
		opts = append(opts, publish.WithLedger(ledger))
	}

	results, err := publish.NewRunner(confluence, opts...).Run(ctx, plan)
	s.pages = results
	if err != nil {
		p.logger.Error("Publishing failed", "error", err)
		return s, fmt.Errorf("publish: %w", err)
	}
	return s, nil
}

// writeConfluenceArtifacts writes the aggregate document, the per-scheme
// pages and the example payload, and returns the publishing plan.
func writeConfluenceArtifacts(ctx context.Context, p *pipeline) (publish.Plan, *summary, error) {
	unlock, err := p.writer.Lock(ctx)
	if err != nil {
		return publish.Plan{}, nil, err
	}
	defer unlock()

	cc := p.cfg.Confluence
	d := render.Confluence{}
	r := p.renderer(d)
	s := &summary{title: "skosdoc confluence"}

	var (
		aggregate render.Page
		pages     []render.Page
	)
	err = p.timed(d.Name(), func() error {
		aggregate = r.Aggregate(ctx, p.cfg.Output.Title)
		for _, scheme := range p.tax.Schemes() {
			pages = append(pages, r.SchemePage(ctx, scheme))
		}
		return ctx.Err()
	})
	if err != nil {
		return publish.Plan{}, nil, err
	}

	path, err := p.writer.WriteString(p.cfg.Output.StorageFile, aggregate.Body)
	if err != nil {
		return publish.Plan{}, nil, err
	}
	s.files = append(s.files, path)

	plan := publish.Plan{
		ParentID: cc.ParentID,
		Entry:    publish.Page{Title: cc.PageTitle, Body: render.StorageBody(aggregate.Body)},
	}
	for _, page := range pages {
		path, err := p.writer.WriteString(filepath.Join(p.cfg.Output.PagesDir, page.FileName(d)), page.Body)
		if err != nil {
			return publish.Plan{}, nil, err
		}
		s.files = append(s.files, path)
		if cc.PerScheme {
			plan.Children = append(plan.Children, publish.Page{Title: page.Title, Body: render.StorageBody(page.Body)})
		}
	}

	payload, err := publish.ExamplePayload(plan.Entry, cc.Space, cc.ParentID)
	if err != nil {
		return publish.Plan{}, nil, err
	}
	path, err = p.writer.WriteFile(ExamplePayloadFile, payload)
	if err != nil {
		return publish.Plan{}, nil, err
	}
	s.files = append(s.files, path)
	if cc.Space == "" || cc.ParentID == "" {
		s.notes = append(s.notes, fmt.Sprintf("%s uses placeholder space %q and parent %q",
			ExamplePayloadFile, publish.PlaceholderSpace, publish.PlaceholderParent))
	}
	return plan, s, nil
}

// writeDryRunPreview converts the entry page back to Markdown for review.
func writeDryRunPreview(p *pipeline, entry publish.Page, s *summary) error {
	md, err := output.NewConverter().StorageToMarkdown(entry.Body)
	if err != nil {
		return err
	}
	path, err := p.writer.WriteString("dry_run_preview.md", md)
	if err != nil {
		return err
	}
	s.files = append(s.files, path)
	return nil
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grbba/skosdoc/config"
	"github.com/grbba/skosdoc/export"
	"github.com/grbba/skosdoc/publish"
)

var sweetTTL = filepath.Join("..", "..", "source", "testdata", "sweet.ttl")

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Source.Patterns = []string{sweetTTL}
	cfg.Output.Dir = t.TempDir()
	cfg.Identifiers.Strategy = "hash"
	return cfg
}

func testPipeline(t *testing.T, cfg *config.Config) *pipeline {
	t.Helper()
	p, err := newPipeline(context.Background(), cfg, discard())
	require.NoError(t, err)
	return p
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{
		config.EnvConfluenceUser, config.EnvConfluenceToken, config.EnvNATSURL,
		config.EnvInput, config.EnvOpenAIKey, config.EnvOpenAIModel,
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	isolateEnv(t)
	out := t.TempDir()

	cfg, err := loadConfig(&globalFlags{
		inputs:   []string{sweetTTL},
		outDir:   out,
		language: "fr",
		metrics:  filepath.Join(out, "skosdoc.prom"),
	}, discard())
	require.NoError(t, err)

	assert.Equal(t, []string{sweetTTL}, cfg.Source.Patterns)
	assert.Equal(t, out, cfg.Output.Dir)
	assert.Equal(t, "fr", cfg.Taxonomy.Language)
	assert.Equal(t, filepath.Join(out, "skosdoc.prom"), cfg.Metrics.Textfile)
}

func TestLoadConfig_RequiresInput(t *testing.T) {
	isolateEnv(t)
	_, err := loadConfig(&globalFlags{}, discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--ttl")
}

func TestLoadConfig_InputFromEnvironment(t *testing.T) {
	isolateEnv(t)
	t.Setenv(config.EnvInput, sweetTTL)

	cfg, err := loadConfig(&globalFlags{}, discard())
	require.NoError(t, err)
	assert.Equal(t, []string{sweetTTL}, cfg.Source.Patterns)
}

func TestNewPipeline_MissingSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.Patterns = []string{filepath.Join(t.TempDir(), "*.ttl")}

	_, err := newPipeline(context.Background(), cfg, discard())
	require.Error(t, err)
}

func TestRunRender_BothDialects(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Textfile = filepath.Join(cfg.Output.Dir, "skosdoc.prom")
	p := testPipeline(t, cfg)

	s, err := runRender(context.Background(), p, []string{"markdown", "confluence"}, layoutDocument, false)
	require.NoError(t, err)
	require.Len(t, s.files, 2)

	md, err := os.ReadFile(filepath.Join(cfg.Output.Dir, cfg.Output.MarkdownFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Taxonomy Index\n\n"))
	assert.Contains(t, string(md), "### Sweet\n")
	assert.Contains(t, string(md), "| Sweet | Having the taste of sugar. |")

	storage, err := os.ReadFile(filepath.Join(cfg.Output.Dir, cfg.Output.StorageFile))
	require.NoError(t, err)
	assert.Contains(t, string(storage), `<h1 id="taxonomy-index">Taxonomy Index</h1>`)
	assert.Contains(t, string(storage), `<h3 id="sweet">Sweet</h3>`)
	assert.NotContains(t, string(storage), ">Overview</h2>")

	require.NoError(t, p.finish())
	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "skosdoc_concepts_rendered_total")
}

func TestRunRender_AggregateLayoutForEveryDialect(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Title = "Flavour Vocabulary"
	p := testPipeline(t, cfg)

	_, err := runRender(context.Background(), p, []string{"markdown", "confluence"}, layoutAggregate, false)
	require.NoError(t, err)

	md, err := os.ReadFile(filepath.Join(cfg.Output.Dir, cfg.Output.MarkdownFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Flavour Vocabulary\n\n"))
	assert.Contains(t, string(md), "## Overview\n")
	assert.Contains(t, string(md), "| apmwg:Flavours | 1 |")

	storage, err := os.ReadFile(filepath.Join(cfg.Output.Dir, cfg.Output.StorageFile))
	require.NoError(t, err)
	assert.Contains(t, string(storage), `<h1 id="flavour-vocabulary">Flavour Vocabulary</h1>`)
	assert.Contains(t, string(storage), `<h2 id="overview">Overview</h2>`)
	assert.Contains(t, string(storage), "apmwg:Flavours")
}

func TestRunRender_UnknownFormat(t *testing.T) {
	p := testPipeline(t, testConfig(t))
	_, err := runRender(context.Background(), p, []string{"asciidoc"}, layoutDocument, false)
	require.Error(t, err)

	_, err = runRender(context.Background(), p, []string{"markdown"}, "flat", false)
	require.Error(t, err)
}

func TestRunConfluence_ArtifactsOnly(t *testing.T) {
	cfg := testConfig(t)
	p := testPipeline(t, cfg)

	s, err := runConfluence(context.Background(), p, false, false)
	require.NoError(t, err)
	assert.Empty(t, s.pages)

	for _, name := range []string{
		cfg.Output.StorageFile,
		filepath.Join(cfg.Output.PagesDir, "apmwg_Flavours.xhtml"),
		ExamplePayloadFile,
	} {
		_, err := os.Stat(filepath.Join(cfg.Output.Dir, name))
		assert.NoError(t, err, name)
	}

	payload, err := os.ReadFile(filepath.Join(cfg.Output.Dir, ExamplePayloadFile))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "SKOS Vocabulary", decoded["title"])
	assert.Equal(t, map[string]any{"key": publish.PlaceholderSpace}, decoded["space"])
	require.Len(t, s.notes, 1)
}

func TestRunConfluence_DryRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Confluence.PerScheme = true
	cfg.Confluence.ParentURL = "https://example.atlassian.net/wiki/spaces/DOCS/pages/98765/Vocabularies"
	p := testPipeline(t, cfg)

	s, err := runConfluence(context.Background(), p, false, true)
	require.NoError(t, err)

	require.Len(t, s.pages, 2)
	for _, r := range s.pages {
		assert.Equal(t, publish.ActionDryRun, r.Action)
	}
	assert.Equal(t, "DOCS", p.cfg.Confluence.Space)
	assert.Equal(t, "98765", p.cfg.Confluence.ParentID)

	preview, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "dry_run_preview.md"))
	require.NoError(t, err)
	assert.Contains(t, string(preview), "Sweet")
	assert.NotContains(t, string(preview), "<ac:")
}

func TestRunConfluence_PostNeedsTarget(t *testing.T) {
	cfg := testConfig(t)
	p := testPipeline(t, cfg)

	s, err := runConfluence(context.Background(), p, true, false)
	require.Error(t, err)
	require.NotNil(t, s)

	// Local artifacts are written before publishing is attempted.
	_, statErr := os.Stat(filepath.Join(cfg.Output.Dir, cfg.Output.StorageFile))
	assert.NoError(t, statErr)
}

func TestRunConfluence_Publishes(t *testing.T) {
	var (
		mu      sync.Mutex
		created []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"results":[]}`)
		case http.MethodPost:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			created = append(created, body)
			_, _ = fmt.Fprintf(w, `{"id":"%d","title":%q,"version":{"number":1}}`, 100+len(created), body["title"])
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Confluence.BaseURL = srv.URL
	cfg.Confluence.Space = "DOCS"
	cfg.Confluence.ParentID = "1"
	cfg.Confluence.PerScheme = true
	p := testPipeline(t, cfg)

	s, err := runConfluence(context.Background(), p, true, false)
	require.NoError(t, err)
	require.Len(t, s.pages, 2)
	assert.Equal(t, publish.ActionCreated, s.pages[0].Action)
	assert.Equal(t, "101", s.pages[0].Ref.ID)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, created, 2)
	assert.Equal(t, []any{map[string]any{"id": "1"}}, created[0]["ancestors"])
	assert.Equal(t, []any{map[string]any{"id": "101"}}, created[1]["ancestors"])

	body := created[0]["body"].(map[string]any)["storage"].(map[string]any)["value"].(string)
	assert.NotContains(t, body, "<?xml")
	assert.NotContains(t, body, "<body>")
}

func TestRunRewrite(t *testing.T) {
	cfg := testConfig(t)
	p := testPipeline(t, cfg)

	s, err := runRewrite(context.Background(), p, true)
	require.NoError(t, err)
	require.Len(t, s.files, 1)

	text, err := os.ReadFile(filepath.Join(cfg.Output.Dir, cfg.Output.RewriteFile))
	require.NoError(t, err)
	id, ok := p.ids.Get(p.tax.Concepts()[0])
	require.True(t, ok)
	assert.Contains(t, string(text), id)
	assert.Contains(t, string(text), "wasDerivedFrom")
}

func TestRunRewrite_JSONLD(t *testing.T) {
	cfg := testConfig(t)
	cfg.Identifiers.Format = "jsonld"
	p := testPipeline(t, cfg)

	s, err := runRewrite(context.Background(), p, false)
	require.NoError(t, err)
	assert.Equal(t, ".jsonld", filepath.Ext(s.files[0]))

	data, err := os.ReadFile(s.files[0])
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.NotContains(t, string(data), "wasDerivedFrom")
}

func TestRewriteFileName(t *testing.T) {
	tests := []struct {
		name   string
		format export.Format
		want   string
	}{
		{"taxonomy_updated.ttl", export.FormatTurtle, "taxonomy_updated.ttl"},
		{"taxonomy_updated.ttl", export.FormatNTriples, "taxonomy_updated.nt"},
		{"out/taxonomy", export.FormatJSONLD, "out/taxonomy.jsonld"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.Equal(t, tt.want, rewriteFileName(tt.name, tt.format))
		})
	}
}

func TestSummaryPrint(t *testing.T) {
	s := &summary{
		title: "skosdoc confluence",
		files: []string{"out/storage_all_in_one.xhtml"},
		pages: []publish.Result{
			{Title: "SKOS Vocabulary", Action: publish.ActionCreated},
			{Title: "apmwg:Flavours", Action: publish.ActionFailed, Err: assert.AnError},
		},
		notes: []string{"dry run"},
	}

	var buf bytes.Buffer
	s.print(&buf, false)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "skosdoc confluence\n"))
	assert.Contains(t, out, "out/storage_all_in_one.xhtml")
	assert.Contains(t, out, "created SKOS Vocabulary")
	assert.Contains(t, out, "failed apmwg:Flavours")
	assert.Contains(t, out, "created=1 failed=1")
}

func TestNewLogger(t *testing.T) {
	assert.True(t, newLogger("debug").Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, newLogger("warn").Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, newLogger("bogus").Enabled(context.Background(), slog.LevelInfo))
}

package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grbba/skosdoc/graph"
)

const skosNS = "http://www.w3.org/2004/02/skos/core#"

func TestRegistry_GetByExtension(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		filename string
		wantMime string
	}{
		{"taxonomy.ttl", MimeTurtle},
		{"TAXONOMY.TTL", MimeTurtle},
		{"dump.nt", MimeNTriples},
		{"notes.md", ""},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			p := r.GetByExtension(tt.filename)
			if tt.wantMime == "" {
				assert.Nil(t, p)
				return
			}
			require.NotNil(t, p)
			assert.Equal(t, tt.wantMime, p.MimeType())
		})
	}
	assert.Equal(t, []string{".ttl", ".turtle", ".nt"}, r.Extensions())
}

func TestRegistry_ParseUnsupported(t *testing.T) {
	_, err := NewRegistry().Parse("taxonomy.rdf", []byte("<rdf/>"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestTurtleParser_Parse(t *testing.T) {
	content, err := os.ReadFile("testdata/sweet.ttl")
	require.NoError(t, err)

	doc, err := NewTurtleParser().Parse("sweet.ttl", content)
	require.NoError(t, err)

	assert.Equal(t, MimeTurtle, doc.Format)
	assert.Equal(t, "http://example.org/apmwg#", doc.Prefixes["apmwg"])
	assert.Equal(t, skosNS, doc.Prefixes["skos"])
	assert.Len(t, doc.Triples, 11)
	assert.Equal(t, ContentHash(content), doc.Hash)

	s := graph.NewStore()
	s.AddAll(doc.Triples)
	labels := s.Objects(graph.IRI("http://example.org/apmwg#Sweet"), skosNS+"prefLabel")
	require.Len(t, labels, 4)
	assert.Equal(t, "de", labels[0].Lang)
	assert.Equal(t, "Süß", labels[0].Value)
}

func TestNTriplesParser_Parse(t *testing.T) {
	content := []byte(`<http://example.org/a> <http://www.w3.org/2004/02/skos/core#notation> "A1"^^<http://example.org/code> .
<http://example.org/a> <http://www.w3.org/2004/02/skos/core#related> _:b0 .
`)
	doc, err := NewNTriplesParser().Parse("a.nt", content)
	require.NoError(t, err)
	require.Len(t, doc.Triples, 2)

	assert.Equal(t, graph.TypedLiteral("A1", "http://example.org/code"), doc.Triples[0].Object)
	assert.Equal(t, graph.KindBlank, doc.Triples[1].Object.Kind)
	assert.Empty(t, doc.Prefixes)
}

func TestTurtleParser_SyntaxError(t *testing.T) {
	_, err := NewTurtleParser().Parse("bad.ttl", []byte("<http://example.org/a> <http://example.org/b> ."))
	assert.Error(t, err)
}

func TestScanPrefixes(t *testing.T) {
	got := scanPrefixes([]byte("@prefix ex: <http://example.org/> .\nPREFIX dct: <http://purl.org/dc/terms/>\n@prefix : <http://default/> .\n"))
	assert.Equal(t, map[string]string{
		"ex":  "http://example.org/",
		"dct": "http://purl.org/dc/terms/",
		"":    "http://default/",
	}, got)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.ttl"), "")
	writeFile(t, filepath.Join(dir, "nested", "deep", "b.ttl"), "")
	writeFile(t, filepath.Join(dir, "nested", "c.nt"), "")

	got, err := ResolveFiles([]string{
		filepath.Join(dir, "**", "*.ttl"),
		filepath.Join(dir, "a.ttl"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.ttl"),
		filepath.Join(dir, "nested", "deep", "b.ttl"),
	}, got)

	_, err = ResolveFiles([]string{filepath.Join(dir, "missing.ttl")})
	assert.Error(t, err)
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.ttl"), `@prefix ex: <http://example.org/> .
ex:a <http://www.w3.org/2004/02/skos/core#broader> ex:b .
`)
	writeFile(t, filepath.Join(dir, "two.ttl"), `@prefix ex: <http://other.org/> .
<http://example.org/a> <http://www.w3.org/2004/02/skos/core#broader> <http://example.org/b> .
<http://example.org/c> <http://www.w3.org/2004/02/skos/core#broader> <http://example.org/b> .
`)

	res, err := NewLoader().Load(context.Background(), []string{filepath.Join(dir, "*.ttl")})
	require.NoError(t, err)

	assert.Len(t, res.Documents, 2)
	assert.Equal(t, 2, res.Store.Len())
	assert.Equal(t, "http://example.org/", res.Store.Prefixes()["ex"])
	assert.Len(t, res.Store.Subjects(skosNS+"broader", graph.IRI("http://example.org/b")), 2)
}

func TestLoader_NoSources(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), []string{filepath.Join(t.TempDir(), "*.ttl")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSources))
}

func TestWatchRoots(t *testing.T) {
	got := WatchRoots([]string{"taxonomy/**/*.ttl", "extra/file.ttl", "taxonomy/*.nt"})
	assert.Equal(t, []string{"taxonomy", "extra"}, got)
}

func TestWatcher_Classify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ttl")
	writeFile(t, path, "one")

	w, err := NewWatcher([]string{dir}, []string{"ttl"}, 0, nil)
	require.NoError(t, err)
	defer w.Stop()

	ev, ok := w.classify(path, fsnotify.Create)
	require.True(t, ok)
	assert.Equal(t, WatchOpCreate, ev.Operation)

	_, ok = w.classify(path, fsnotify.Write)
	assert.False(t, ok, "unchanged content must not emit")

	writeFile(t, path, "two")
	ev, ok = w.classify(path, fsnotify.Write)
	require.True(t, ok)
	assert.Equal(t, WatchOpModify, ev.Operation)

	require.NoError(t, os.Remove(path))
	ev, ok = w.classify(path, fsnotify.Remove)
	require.True(t, ok)
	assert.Equal(t, WatchOpDelete, ev.Operation)
}

func TestWatcher_HandleFSEventFiltersExtensions(t *testing.T) {
	w, err := NewWatcher(nil, []string{".ttl"}, 0, nil)
	require.NoError(t, err)
	defer w.Stop()

	w.handleFSEvent(fsnotify.Event{Name: "/tmp/x/readme.md", Op: fsnotify.Write})
	w.handleFSEvent(fsnotify.Event{Name: "/tmp/x/a.ttl", Op: fsnotify.Write})

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	assert.Len(t, w.pending, 1)
	assert.Contains(t, w.pending, "/tmp/x/a.ttl")
}

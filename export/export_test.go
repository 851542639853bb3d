package export_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grbba/skosdoc/export"
	"github.com/grbba/skosdoc/graph"
	"github.com/grbba/skosdoc/identifier"
	"github.com/grbba/skosdoc/source"
	"github.com/grbba/skosdoc/taxonomy"
	"github.com/grbba/skosdoc/vocabulary/skos"
)

const (
	ex  = "http://example.org/apmwg#"
	out = "http://example.org/ids#"
)

// fixed mints a preset identifier per concept IRI.
type fixed map[string]string

func (f fixed) Mint(key string, _ int) (string, error) { return f[key], nil }

func fixture(t *testing.T) (*taxonomy.Context, *identifier.Map) {
	t.Helper()
	s := graph.NewStore()
	s.BindPrefix("apmwg", ex)
	s.BindPrefix("skos", skos.Namespace)
	taste := graph.IRI(ex + "Taste")
	sweet := graph.IRI(ex + "Sweet")
	umami := graph.IRI(ex + "Umami")
	outside := graph.IRI("http://other.example/Flavour")
	for _, c := range []graph.Term{taste, sweet, umami} {
		s.Add(graph.Triple{Subject: c, Predicate: graph.RDFType, Object: graph.IRI(skos.ClassConcept)})
		s.Add(graph.Triple{Subject: c, Predicate: skos.PrefLabel, Object: graph.LangLiteral(c.LocalName(), "en")})
	}
	s.Add(graph.Triple{Subject: sweet, Predicate: skos.PrefLabel, Object: graph.LangLiteral("Sucré", "fr")})
	s.Add(graph.Triple{Subject: sweet, Predicate: skos.Definition, Object: graph.LangLiteral("Sugary \"sweet\".\nNice.", "en")})
	s.Add(graph.Triple{Subject: sweet, Predicate: skos.Broader, Object: taste})
	s.Add(graph.Triple{Subject: umami, Predicate: skos.Broader, Object: taste})
	s.Add(graph.Triple{Subject: umami, Predicate: skos.Related, Object: sweet})
	s.Add(graph.Triple{Subject: taste, Predicate: skos.Broader, Object: outside})

	tax := taxonomy.New(s)
	ids, err := identifier.NewAssigner(fixed{
		ex + "Taste": "TASTE001",
		ex + "Sweet": "SWEET001",
		ex + "Umami": "UMAMI001",
	}).Assign(context.Background(), tax.Concepts())
	require.NoError(t, err)
	return tax, ids
}

func TestRewrite(t *testing.T) {
	tax, ids := fixture(t)
	rw := export.NewRewriter(out,
		export.WithPrefix("id"),
		export.WithGeneratedDefinitions(map[string]string{
			ex + "Umami": "Savoury taste.",
			ex + "Sweet": "ignored",
		}))

	g, err := rw.Rewrite(tax, ids)
	require.NoError(t, err)

	sweet := graph.IRI(out + "SWEET001")
	taste := graph.IRI(out + "TASTE001")
	umami := graph.IRI(out + "UMAMI001")

	assert.Equal(t, []graph.Term{taste}, g.Objects(sweet, skos.Broader))
	assert.Equal(t, []graph.Term{sweet}, g.Objects(umami, skos.Related))
	assert.Equal(t, []graph.Term{graph.IRI("http://other.example/Flavour")}, g.Objects(taste, skos.Broader),
		"targets outside the concept set keep their IRI")
	assert.Equal(t, []graph.Term{graph.Literal("SWEET001")}, g.Objects(sweet, skos.Identifier))
	assert.Equal(t, []graph.Term{graph.IRI(ex + "Sweet")}, g.Objects(sweet, skos.WasDerivedFrom))
	assert.Len(t, g.Objects(sweet, skos.PrefLabel), 2)

	assert.Equal(t, []graph.Term{graph.LangLiteral("Savoury taste.", "en")}, g.Objects(umami, skos.Definition))
	assert.Len(t, g.Objects(sweet, skos.Definition), 1, "existing definitions are not overwritten")

	assert.Empty(t, g.Subjects(graph.RDFType, graph.IRI(ex+"Sweet")))
	assert.Empty(t, g.PredicateObjects(graph.IRI(ex+"Sweet")), "old identities are gone")
	assert.Equal(t, out, g.Prefixes()["id"])

	assert.Equal(t, 12, tax.Store().Len(), "source graph untouched")
}

func TestRewrite_WithoutProvenance(t *testing.T) {
	tax, ids := fixture(t)
	g, err := export.NewRewriter(out, export.WithProvenance(false)).Rewrite(tax, ids)
	require.NoError(t, err)
	assert.Empty(t, g.Objects(graph.IRI(out+"SWEET001"), skos.WasDerivedFrom))
}

func TestRewrite_MissingIdentifier(t *testing.T) {
	tax, _ := fixture(t)
	partial, err := identifier.NewAssigner(fixed{ex + "Sweet": "SWEET001"}).Assign(context.Background(), tax.Concepts()[:1])
	require.NoError(t, err)

	_, err = export.NewRewriter(out).Rewrite(tax, partial)
	assert.ErrorIs(t, err, export.ErrMissingIdentifier)
}

func TestExportTurtle_RoundTrip(t *testing.T) {
	tax, ids := fixture(t)
	g, err := export.NewRewriter(out, export.WithPrefix("id")).Rewrite(tax, ids)
	require.NoError(t, err)

	ttl, err := export.Export(g, export.FormatTurtle)
	require.NoError(t, err)

	assert.Contains(t, ttl, "@prefix id: <"+out+"> .\n")
	assert.Contains(t, ttl, "id:SWEET001\n    a skos:Concept ;\n")
	assert.Contains(t, ttl, `skos:definition "Sugary \"sweet\".\nNice."@en ;`)
	assert.Contains(t, ttl, "skos:broader <http://other.example/Flavour>")

	doc, err := source.NewTurtleParser().Parse("rewritten.ttl", []byte(ttl))
	require.NoError(t, err)
	back := graph.NewStore()
	back.AddAll(doc.Triples)
	assert.Equal(t, g.Len(), back.Len())
	assert.True(t, back.Has(graph.IRI(out+"SWEET001"), skos.Definition, graph.LangLiteral("Sugary \"sweet\".\nNice.", "en")))
}

func TestExportNTriples(t *testing.T) {
	tax, _ := fixture(t)
	nt, err := export.Export(tax.Store(), export.FormatNTriples)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(nt), "\n")
	assert.Len(t, lines, tax.Store().Len())
	assert.Contains(t, nt, "<"+ex+"Sweet> <"+skos.PrefLabel+"> \"Sucré\"@fr .\n")

	doc, err := source.NewNTriplesParser().Parse("taxonomy.nt", []byte(nt))
	require.NoError(t, err)
	assert.Len(t, doc.Triples, tax.Store().Len())
}

func TestExportJSONLD(t *testing.T) {
	tax, _ := fixture(t)
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, tax.Store(), export.FormatJSONLD))

	var doc struct {
		Context map[string]string `json:"@context"`
		Graph   []map[string]any  `json:"@graph"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, ex, doc.Context["apmwg"])
	require.Len(t, doc.Graph, 3)

	var sweet map[string]any
	for _, n := range doc.Graph {
		if n["@id"] == ex+"Sweet" {
			sweet = n
		}
	}
	require.NotNil(t, sweet)
	assert.Equal(t, []any{skos.ClassConcept}, sweet["@type"])
	assert.Equal(t, []any{map[string]any{"@id": ex + "Taste"}}, sweet[skos.Broader])
	assert.Contains(t, sweet[skos.PrefLabel], map[string]any{"@value": "Sucré", "@language": "fr"})
}

func TestExport_UnsupportedFormat(t *testing.T) {
	_, err := export.Export(graph.NewStore(), export.Format("rdfxml"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want export.Format
		ok   bool
	}{
		{"turtle", export.FormatTurtle, true},
		{".ttl", export.FormatTurtle, true},
		{"nt", export.FormatNTriples, true},
		{"JSON-LD", export.FormatJSONLD, true},
		{"jsonld", export.FormatJSONLD, true},
		{"xml", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := export.ParseFormat(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

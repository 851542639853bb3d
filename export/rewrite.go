package export

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/grbba/skosdoc/graph"
	"github.com/grbba/skosdoc/identifier"
	"github.com/grbba/skosdoc/taxonomy"
	"github.com/grbba/skosdoc/vocabulary/skos"
)

// ErrMissingIdentifier is returned when a concept has no assigned identifier.
var ErrMissingIdentifier = errors.New("concept has no identifier")

// Rewriter builds a new graph in which every concept is renamed to
// <namespace><ID>. The source graph is never modified.
type Rewriter struct {
	namespace  string
	prefix     string
	generated  map[string]string
	provenance bool
	logger     *slog.Logger
}

// RewriteOption configures a Rewriter.
type RewriteOption func(*Rewriter)

// WithPrefix binds prefix to the target namespace in the output graph.
func WithPrefix(prefix string) RewriteOption {
	return func(r *Rewriter) { r.prefix = prefix }
}

// WithGeneratedDefinitions writes generated definitions, keyed by original
// concept IRI, onto concepts that have no definition literal.
func WithGeneratedDefinitions(defs map[string]string) RewriteOption {
	return func(r *Rewriter) { r.generated = defs }
}

// WithProvenance toggles prov:wasDerivedFrom links to the original IRIs.
func WithProvenance(on bool) RewriteOption {
	return func(r *Rewriter) { r.provenance = on }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RewriteOption {
	return func(r *Rewriter) { r.logger = logger }
}

// NewRewriter creates a rewriter targeting namespace.
func NewRewriter(namespace string, opts ...RewriteOption) *Rewriter {
	r := &Rewriter{
		namespace:  namespace,
		provenance: true,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite copies every triple of tax's store with concept IRIs replaced,
// in subject and object position. Targets outside the concept set keep
// their IRI. Each concept also gets dcterms:identifier and, when enabled,
// prov:wasDerivedFrom. ids must cover every concept.
func (r *Rewriter) Rewrite(tax *taxonomy.Context, ids *identifier.Map) (*graph.Store, error) {
	src := tax.Store()
	concepts := tax.Concepts()

	renamed := make(map[string]graph.Term, len(concepts))
	for _, c := range concepts {
		if c.Kind != graph.KindIRI {
			continue
		}
		id, ok := ids.Get(c)
		if !ok {
			return nil, fmt.Errorf("rewrite %s: %w", c.Value, ErrMissingIdentifier)
		}
		renamed[c.Value] = graph.IRI(r.namespace + id)
	}
	remap := func(t graph.Term) graph.Term {
		if t.Kind == graph.KindIRI {
			if n, ok := renamed[t.Value]; ok {
				return n
			}
		}
		return t
	}

	out := graph.NewStore()
	for p, ns := range src.Prefixes() {
		out.BindPrefix(p, ns)
	}
	for p, ns := range skos.DefaultPrefixes() {
		if _, bound := src.Prefixes()[p]; !bound {
			out.BindPrefix(p, ns)
		}
	}
	if r.prefix != "" {
		out.BindPrefix(r.prefix, r.namespace)
	}

	for _, t := range src.Triples() {
		out.Add(graph.Triple{Subject: remap(t.Subject), Predicate: t.Predicate, Object: remap(t.Object)})
	}

	written := 0
	for _, c := range concepts {
		n, ok := renamed[c.Value]
		if !ok {
			continue
		}
		id, _ := ids.Get(c)
		out.Add(graph.Triple{Subject: n, Predicate: skos.Identifier, Object: graph.Literal(id)})
		if r.provenance {
			out.Add(graph.Triple{Subject: n, Predicate: skos.WasDerivedFrom, Object: c})
		}
		if text := r.generated[c.Value]; text != "" && len(tax.Definitions(c)) == 0 {
			out.Add(graph.Triple{Subject: n, Predicate: skos.Definition, Object: graph.LangLiteral(text, tax.Language())})
			written++
		}
	}

	r.logger.Debug("Rewrote taxonomy",
		"concepts", len(renamed),
		"triples", out.Len(),
		"generated_definitions", written)
	return out, nil
}

package render

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/grbba/skosdoc/definition"
	"github.com/grbba/skosdoc/graph"
	"github.com/grbba/skosdoc/identifier"
	"github.com/grbba/skosdoc/taxonomy"
)

// Heading levels used by the document layouts.
const (
	DefaultMaxHeading = 6
	DefaultIndexTitle = "Taxonomy Index"
	DefaultTitle      = "SKOS Vocabulary — Documentation"
)

// Renderer produces documents for one taxonomy in one dialect.
type Renderer struct {
	tax        *taxonomy.Context
	ids        *identifier.Map
	defs       *definition.Resolver
	dialect    Dialect
	maxHeading int
	indexTitle string
	preview    bool
	logger     *slog.Logger
	onConcept  func()
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithIdentifiers sets the identifier map shown in the Concept ID column.
func WithIdentifiers(ids *identifier.Map) Option {
	return func(r *Renderer) { r.ids = ids }
}

// WithDefinitions sets the definition resolver.
func WithDefinitions(defs *definition.Resolver) Option {
	return func(r *Renderer) { r.defs = defs }
}

// WithMaxHeading clamps heading levels.
func WithMaxHeading(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxHeading = n
		}
	}
}

// WithIndexTitle sets the heading of the index section.
func WithIndexTitle(title string) Option {
	return func(r *Renderer) {
		if title != "" {
			r.indexTitle = title
		}
	}
}

// WithPreview toggles the per-concept RDF preview.
func WithPreview(on bool) Option {
	return func(r *Renderer) { r.preview = on }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) { r.logger = logger }
}

// WithConceptHook is called once per rendered concept block.
func WithConceptHook(fn func()) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.onConcept = fn
		}
	}
}

// New creates a renderer. The preview defaults to on for Confluence.
func New(tax *taxonomy.Context, dialect Dialect, opts ...Option) *Renderer {
	r := &Renderer{
		tax:        tax,
		dialect:    dialect,
		maxHeading: DefaultMaxHeading,
		indexTitle: DefaultIndexTitle,
		preview:    dialect.Name() == "confluence",
		logger:     slog.Default(),
		onConcept:  func() {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dialect returns the renderer's dialect.
func (r *Renderer) Dialect() Dialect { return r.dialect }

// Page is one rendered document.
type Page struct {
	Title  string
	Scheme graph.Term
	Body   string
}

// FileName returns the file name of a scheme page: its title with ':' and
// '/' replaced by '_', plus the dialect extension.
func (p Page) FileName(d Dialect) string {
	name := strings.NewReplacer(":", "_", "/", "_").Replace(p.Title)
	return name + d.Extension()
}

func (r *Renderer) heading(level int) int {
	return min(r.maxHeading, level)
}

// Document renders the whole taxonomy: the index, then one section per root
// holding that root's subtree. A concept whose parents all lie outside the
// taxonomy is a root of its own.
func (r *Renderer) Document(ctx context.Context) string {
	forest := r.tax.Forest(r.tax.Roots(r.tax.Concepts()))

	var b strings.Builder
	b.WriteString(r.dialect.Heading(r.heading(1), r.indexTitle, taxonomy.Anchor(r.indexTitle)))
	b.WriteString(r.dialect.List(r.index(forest)))
	b.WriteString(r.dialect.Rule())
	b.WriteString(r.facets(ctx, forest, 1))
	return r.dialect.Wrap(b.String())
}

// index turns trees into list items linking to each concept's anchor.
func (r *Renderer) index(forest []*taxonomy.Node) []Item {
	items := make([]Item, 0, len(forest))
	for _, n := range forest {
		label := r.tax.Label(n.Concept)
		items = append(items, Item{
			Text:     r.dialect.Link(label, "#"+taxonomy.Anchor(label)),
			Children: r.index(n.Children),
		})
	}
	return items
}

// facets renders one section per tree. The facet heading sits at level and
// concept headings start one below it.
func (r *Renderer) facets(ctx context.Context, forest []*taxonomy.Node, level int) string {
	var b strings.Builder
	for _, root := range forest {
		if ctx.Err() != nil {
			break
		}
		label := r.tax.Label(root.Concept)
		b.WriteString(r.dialect.Heading(r.heading(level), label+" (Facet)", taxonomy.Anchor(label)+"-facet"))
		root.Walk(func(n *taxonomy.Node) {
			b.WriteString(r.safeBlock(ctx, n, r.heading(level+1+n.Depth)))
		})
	}
	return b.String()
}

// safeBlock renders one concept block. A panic while rendering is logged
// and replaced by a note so the rest of the document survives.
func (r *Renderer) safeBlock(ctx context.Context, n *taxonomy.Node, level int) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Concept render failed", "concept", n.Concept.Value, "panic", rec)
			out = r.dialect.Paragraph(r.dialect.Escape(fmt.Sprintf("Rendering of %s failed.", n.Concept.Value)))
		}
	}()
	out = writeBlock(r.dialect, r.block(ctx, n, level))
	r.onConcept()
	return out
}

// SchemePage renders one concept scheme as a standalone page.
func (r *Renderer) SchemePage(ctx context.Context, scheme graph.Term) Page {
	title := r.tax.QName(scheme)
	return Page{
		Title:  title,
		Scheme: scheme,
		Body:   r.dialect.Wrap(r.schemeSection(ctx, scheme)),
	}
}

func (r *Renderer) schemeSection(ctx context.Context, scheme graph.Term) string {
	d := r.dialect
	qname := r.tax.QName(scheme)
	lang := r.tax.Language()

	var b strings.Builder
	b.WriteString(d.Heading(1, "SKOS Concept Scheme: "+qname, taxonomy.Anchor(qname)))
	b.WriteString(d.TOC())

	if labels := taxonomy.LangSorted(r.tax.PrefLabels(scheme), lang); len(labels) > 0 {
		b.WriteString(d.Heading(2, "Labels", ""))
		b.WriteString(langTable(d, labels))
	}
	if desc := taxonomy.LangSorted(r.tax.SchemeDescriptions(scheme), lang); len(desc) > 0 {
		b.WriteString(d.Heading(2, "Description", ""))
		b.WriteString(langTable(d, desc))
	}

	members := r.tax.SortByLabel(r.tax.ConceptsInScheme(scheme))
	forest := r.tax.Forest(r.tax.SchemeTopTerms(scheme))

	b.WriteString(d.Heading(2, "Hierarchy", ""))
	if len(forest) == 0 {
		b.WriteString(d.Paragraph("-"))
	} else {
		b.WriteString(d.List(r.index(forest)))
	}

	b.WriteString(d.Heading(2, "Concept Index", ""))
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{
			d.Link(r.tax.QName(m), "#"+taxonomy.Anchor(r.tax.Label(m))),
			d.Escape(r.labelSummary(m)),
		})
	}
	b.WriteString(d.Table([]string{"Concept", "Labels"}, rows))

	b.WriteString(d.Heading(2, "Concept Details", ""))
	b.WriteString(r.facets(ctx, forest, 3))
	return b.String()
}

// labelSummary lists the preferred labels of node as "text [lang]".
func (r *Renderer) labelSummary(node graph.Term) string {
	labels := taxonomy.LangSorted(r.tax.PrefLabels(node), r.tax.Language())
	if len(labels) == 0 {
		return "-"
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l.Value
		if l.Lang != "" {
			parts[i] += " [" + l.Lang + "]"
		}
	}
	return strings.Join(parts, ", ")
}

// Aggregate renders every scheme into one page behind an overview table.
// Without schemes it falls back to the Document layout under the title.
func (r *Renderer) Aggregate(ctx context.Context, title string) Page {
	if title == "" {
		title = DefaultTitle
	}
	d := r.dialect
	schemes := r.tax.Schemes()

	var b strings.Builder
	b.WriteString(d.Heading(1, title, taxonomy.Anchor(title)))
	b.WriteString(d.TOC())

	if len(schemes) == 0 {
		forest := r.tax.Forest(r.tax.Roots(r.tax.Concepts()))
		b.WriteString(d.Heading(2, r.indexTitle, taxonomy.Anchor(r.indexTitle)))
		b.WriteString(d.List(r.index(forest)))
		b.WriteString(d.Rule())
		b.WriteString(r.facets(ctx, forest, 2))
		return Page{Title: title, Body: d.Wrap(b.String())}
	}

	b.WriteString(d.Heading(2, "Overview", "overview"))
	rows := make([][]string, 0, len(schemes))
	for _, s := range schemes {
		rows = append(rows, []string{
			d.Escape(r.tax.QName(s)),
			strconv.Itoa(len(r.tax.ConceptsInScheme(s))),
		})
	}
	b.WriteString(d.Table([]string{"Concept Scheme", "Concept count"}, rows))

	for _, s := range schemes {
		if ctx.Err() != nil {
			break
		}
		b.WriteString(d.Rule())
		b.WriteString(r.schemeSection(ctx, s))
	}
	return Page{Title: title, Body: d.Wrap(b.String())}
}

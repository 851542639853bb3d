package render

import (
	"context"
	"strings"

	"github.com/grbba/skosdoc/definition"
	"github.com/grbba/skosdoc/graph"
	"github.com/grbba/skosdoc/taxonomy"
)

// Cell sentinels.
const (
	None  = "(none)"
	Empty = "(empty)"
)

var (
	primaryHeaders   = []string{"PT", "Definition", "Concept ID"}
	relationHeaders  = []string{"Top Term", "BT", "NT", "UF", "RT", "Linked SSR"}
	languageHeaders  = []string{"Language", "Metadata"}
	langTableHeaders = []string{"Lang", "Text"}
)

// Link is a cross-reference to another node. Href is empty when the target
// is not a rendered concept.
type Link struct {
	Label string
	Href  string
}

// Block is everything shown for one concept, independent of markup.
type Block struct {
	Concept    graph.Term
	Level      int
	Label      string
	Anchor     string
	Identifier string
	Definition definition.Definition
	TopTerm    bool
	Broader    []Link
	Narrower   []Link
	UsedFor    []Link
	Related    []Link
	Reference  *taxonomy.Reference
	Languages  []string
	Metadata   []string
	Preview    []string
}

// block selects the data for node. level is the clamped heading level.
func (r *Renderer) block(ctx context.Context, node *taxonomy.Node, level int) Block {
	c := node.Concept
	label := r.tax.Label(c)
	anchor := taxonomy.Anchor(label)

	b := Block{
		Concept: c,
		Level:   level,
		Label:   label,
		Anchor:  anchor,
		TopTerm: r.tax.IsTopTerm(c),
	}
	if r.ids != nil {
		b.Identifier = r.ids.Lookup(c)
	}
	if r.defs != nil {
		b.Definition = r.defs.Resolve(ctx, c)
	}

	b.Broader = r.links(r.tax.Ancestors(c))
	b.Narrower = r.links(r.tax.Children(c))
	b.Related = r.links(r.tax.Related(c))
	for _, alt := range r.tax.AltLabels(c) {
		b.UsedFor = append(b.UsedFor, Link{Label: alt.Value, Href: "#" + anchor})
	}
	if ref, ok := r.tax.Reference(c); ok {
		b.Reference = &ref
	}

	for _, l := range r.tax.PrefLabels(c) {
		b.Languages = append(b.Languages, langOrDash(l.Lang)+": "+l.Value)
	}
	for _, n := range r.tax.Notations(c) {
		b.Metadata = append(b.Metadata, "notation: "+n.Value)
	}
	for _, s := range r.tax.SchemesOf(c) {
		b.Metadata = append(b.Metadata, "scheme: "+r.tax.QName(s))
	}
	if r.preview {
		b.Preview = r.previewLines(c)
	}
	return b
}

func (r *Renderer) links(nodes []graph.Term) []Link {
	out := make([]Link, 0, len(nodes))
	for _, n := range nodes {
		l := Link{Label: r.tax.Label(n)}
		if r.tax.IsConcept(n) {
			l.Href = "#" + taxonomy.Anchor(l.Label)
		}
		out = append(out, l)
	}
	return out
}

func langOrDash(lang string) string {
	if lang == "" {
		return "-"
	}
	return lang
}

// writeBlock renders b with the dialect's markup.
func writeBlock(d Dialect, b Block) string {
	var sb strings.Builder
	sb.WriteString(d.Heading(b.Level, b.Label, b.Anchor))

	def := None
	if !b.Definition.Empty() {
		def = b.Definition.Join(d.LineBreak(), d.Escape)
	}
	sb.WriteString(d.Table(primaryHeaders, [][]string{{d.Escape(b.Label), def, d.Escape(b.Identifier)}}))

	top := "No"
	if b.TopTerm {
		top = "Yes"
	}
	ssr := None
	if b.Reference != nil {
		ssr = d.Link(b.Reference.Label, b.Reference.IRI)
		if b.Reference.Comment != "" {
			ssr += " — " + d.Escape(b.Reference.Comment)
		}
	}
	sb.WriteString(d.Table(relationHeaders, [][]string{{
		top,
		joinLinks(d, b.Broader),
		joinLinks(d, b.Narrower),
		joinLinks(d, b.UsedFor),
		joinLinks(d, b.Related),
		ssr,
	}}))

	sb.WriteString(d.Table(languageHeaders, [][]string{{
		joinEscaped(d, b.Languages, "; ", None),
		joinEscaped(d, b.Metadata, "; ", Empty),
	}}))

	if len(b.Preview) > 0 {
		sb.WriteString(d.Code("turtle", strings.Join(b.Preview, "\n")))
	}
	return sb.String()
}

func joinLinks(d Dialect, links []Link) string {
	if len(links) == 0 {
		return None
	}
	parts := make([]string, len(links))
	for i, l := range links {
		if l.Href == "" {
			parts[i] = d.Escape(l.Label)
		} else {
			parts[i] = d.Link(l.Label, l.Href)
		}
	}
	return strings.Join(parts, ", ")
}

func joinEscaped(d Dialect, texts []string, sep, sentinel string) string {
	if len(texts) == 0 {
		return sentinel
	}
	parts := make([]string, len(texts))
	for i, t := range texts {
		parts[i] = d.Escape(t)
	}
	return strings.Join(parts, sep)
}

// langTable renders literals as Lang/Text rows, or nothing when empty.
func langTable(d Dialect, lits []graph.Term) string {
	if len(lits) == 0 {
		return ""
	}
	rows := make([][]string, len(lits))
	for i, l := range lits {
		rows[i] = []string{d.Escape(langOrDash(l.Lang)), d.Escape(l.Value)}
	}
	return d.Table(langTableHeaders, rows)
}

package render

import (
	"strings"
)

// Markdown renders GitHub flavoured Markdown. Anchors are left to the
// viewer's own heading slugs, which match taxonomy.Anchor for plain labels.
type Markdown struct{}

// Name implements Dialect.
func (Markdown) Name() string { return "markdown" }

// Extension implements Dialect.
func (Markdown) Extension() string { return ".md" }

var (
	cellEscaper  = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")
	labelEscaper = strings.NewReplacer("[", `\[`, "]", `\]`)
	hrefEscaper  = strings.NewReplacer("(", "%28", ")", "%29", " ", "%20")
)

// Escape protects table cell boundaries. Line breaks would end the row, so
// they become spaces.
func (Markdown) Escape(text string) string {
	return cellEscaper.Replace(text)
}

// Link implements Dialect.
func (m Markdown) Link(label, href string) string {
	return "[" + labelEscaper.Replace(m.Escape(label)) + "](" + hrefEscaper.Replace(href) + ")"
}

// Heading implements Dialect. An ATX heading ends at the first line break.
func (Markdown) Heading(level int, text, _ string) string {
	return strings.Repeat("#", level) + " " + strings.Join(strings.Fields(text), " ") + "\n\n"
}

// Table implements Dialect. The separator row has one dash per header
// character plus two.
func (Markdown) Table(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|")
	for _, h := range headers {
		b.WriteString(strings.Repeat("-", len(h)+2) + "|")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	b.WriteString("\n")
	return b.String()
}

// List implements Dialect with two spaces of indent per level.
func (Markdown) List(items []Item) string {
	var b strings.Builder
	var write func([]Item, int)
	write = func(items []Item, depth int) {
		for _, it := range items {
			b.WriteString(strings.Repeat("  ", depth) + "- " + it.Text + "\n")
			write(it.Children, depth+1)
		}
	}
	write(items, 0)
	return b.String()
}

// Paragraph implements Dialect.
func (Markdown) Paragraph(text string) string { return text + "\n\n" }

// Code implements Dialect.
func (Markdown) Code(language, text string) string {
	return "```" + language + "\n" + text + "\n```\n\n"
}

// TOC implements Dialect. Markdown viewers build their own.
func (Markdown) TOC() string { return "" }

// Rule implements Dialect.
func (Markdown) Rule() string { return "\n---\n" }

// LineBreak implements Dialect.
func (Markdown) LineBreak() string { return "<br>" }

// Wrap implements Dialect.
func (Markdown) Wrap(body string) string { return body }

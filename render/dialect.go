// Package render turns a taxonomy into documents. Traversal and the choice
// of what goes into each concept block are shared; a Dialect only decides
// the markup.
package render

import "strings"

// Item is one entry of a nested list. Text is already formatted.
type Item struct {
	Text     string
	Children []Item
}

// Dialect is the markup of one output format.
type Dialect interface {
	// Name identifies the dialect ("markdown", "confluence").
	Name() string

	// Extension is the file extension of a document, including the dot.
	Extension() string

	// Escape makes plain text safe inside the document.
	Escape(text string) string

	// Link renders a hyperlink. label is plain text.
	Link(label, href string) string

	// Heading renders a heading. text is plain text; anchor may be empty.
	Heading(level int, text, anchor string) string

	// Table renders a header row and data rows of already formatted cells.
	Table(headers []string, rows [][]string) string

	// List renders a nested bulleted list.
	List(items []Item) string

	// Paragraph wraps already formatted text.
	Paragraph(text string) string

	// Code renders a verbatim block.
	Code(language, text string) string

	// TOC renders a table of contents placeholder, or nothing.
	TOC() string

	// Rule renders a horizontal separator.
	Rule() string

	// LineBreak separates lines inside a table cell.
	LineBreak() string

	// Wrap turns a rendered body into a complete document.
	Wrap(body string) string
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case "markdown", "md":
		return Markdown{}, true
	case "confluence", "storage":
		return Confluence{}, true
	default:
		return nil, false
	}
}

package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Confluence renders Confluence storage format (XHTML with ac: macros).
type Confluence struct{}

const storageHeader = `<?xml version="1.0" encoding="UTF-8"?><html xmlns="http://www.w3.org/1999/xhtml" ` +
	`xmlns:ac="http://atlassian.com/content" xmlns:ri="http://atlassian.com/resource"><body>`

const storageFooter = `</body></html>`

// Name implements Dialect.
func (Confluence) Name() string { return "confluence" }

// Extension implements Dialect.
func (Confluence) Extension() string { return ".xhtml" }

// Escape implements Dialect.
func (Confluence) Escape(text string) string {
	return html.EscapeString(text)
}

// Link implements Dialect.
func (Confluence) Link(label, href string) string {
	return `<a href="` + html.EscapeString(href) + `">` + html.EscapeString(label) + `</a>`
}

// Heading implements Dialect.
func (Confluence) Heading(level int, text, anchor string) string {
	if anchor == "" {
		return fmt.Sprintf("<h%d>%s</h%d>", level, html.EscapeString(text), level)
	}
	return fmt.Sprintf(`<h%d id="%s">%s</h%d>`, level, html.EscapeString(anchor), html.EscapeString(text), level)
}

// Table implements Dialect.
func (Confluence) Table(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("<table><colgroup>")
	b.WriteString(strings.Repeat("<col/>", len(headers)))
	b.WriteString("</colgroup><tbody><tr>")
	for _, h := range headers {
		b.WriteString("<th>" + html.EscapeString(h) + "</th>")
	}
	b.WriteString("</tr>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + cell + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

// List implements Dialect.
func (c Confluence) List(items []Item) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<ul>")
	for _, it := range items {
		b.WriteString("<li>" + it.Text + c.List(it.Children) + "</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

// Paragraph implements Dialect.
func (Confluence) Paragraph(text string) string { return "<p>" + text + "</p>" }

// Code implements Dialect with the code macro. The text goes into CDATA
// unescaped, so a literal "]]>" is split across two sections.
func (Confluence) Code(language, text string) string {
	text = strings.ReplaceAll(text, "]]>", "]]]]><![CDATA[>")
	return `<ac:structured-macro ac:name="code"><ac:parameter ac:name="language">` +
		html.EscapeString(language) +
		`</ac:parameter><ac:plain-text-body><![CDATA[` + text +
		`]]></ac:plain-text-body></ac:structured-macro>`
}

// TOC implements Dialect.
func (Confluence) TOC() string {
	return `<ac:structured-macro ac:name="toc"><ac:parameter ac:name="minLevel">1</ac:parameter></ac:structured-macro>`
}

// Rule implements Dialect.
func (Confluence) Rule() string { return "<hr/>" }

// LineBreak implements Dialect.
func (Confluence) LineBreak() string { return "<br/>" }

// Wrap implements Dialect.
func (Confluence) Wrap(body string) string {
	return storageHeader + body + storageFooter
}

// StorageBody strips the document wrapper added by Wrap.
func StorageBody(doc string) string {
	body := doc
	if i := strings.Index(body, "<body>"); i >= 0 {
		body = body[i+len("<body>"):]
	}
	if i := strings.LastIndex(body, "</body>"); i >= 0 {
		body = body[:i]
	}
	return body
}

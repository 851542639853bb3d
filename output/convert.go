package output

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var (
	codeMacroRe      = regexp.MustCompile(`(?s)<ac:structured-macro ac:name="code">.*?<ac:parameter ac:name="language">(.*?)</ac:parameter>.*?<ac:plain-text-body><!\[CDATA\[(.*?)\]\]></ac:plain-text-body></ac:structured-macro>`)
	otherMacroRe     = regexp.MustCompile(`(?s)<ac:structured-macro\b.*?</ac:structured-macro>`)
	excessiveLinesRe = regexp.MustCompile(`\n{4,}`)
)

// cdataSplit is how a literal "]]>" is carried inside a CDATA section.
const cdataSplit = "]]]]><![CDATA[>"

// Converter turns Confluence storage format into Markdown for previews.
type Converter struct {
	converter *md.Converter
}

// NewConverter creates a storage-to-Markdown converter with GitHub
// flavoured tables.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{converter: converter}
}

// StorageToMarkdown converts a storage document or body. Code macros become
// fenced blocks; other macros are dropped.
func (c *Converter) StorageToMarkdown(storage string) (string, error) {
	body := storageBody(storage)
	body = codeMacroRe.ReplaceAllStringFunc(body, func(m string) string {
		parts := codeMacroRe.FindStringSubmatch(m)
		text := strings.ReplaceAll(parts[2], cdataSplit, "]]>")
		return `<pre><code class="language-` + html.EscapeString(parts[1]) + `">` + html.EscapeString(text) + `</code></pre>`
	})
	body = otherMacroRe.ReplaceAllString(body, "")

	out, err := c.converter.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("convert storage to markdown: %w", err)
	}
	out = excessiveLinesRe.ReplaceAllString(out, "\n\n\n")
	return strings.TrimSpace(out) + "\n", nil
}

func storageBody(doc string) string {
	if i := strings.Index(doc, "<body>"); i >= 0 {
		doc = doc[i+len("<body>"):]
	}
	if i := strings.LastIndex(doc, "</body>"); i >= 0 {
		doc = doc[:i]
	}
	return doc
}

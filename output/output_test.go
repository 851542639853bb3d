package output

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_WriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewWriter(dir)
	require.NoError(t, err)

	path, err := w.WriteString("pages/apmwg_Flavours.xhtml", "<p>one</p>")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pages", "apmwg_Flavours.xhtml"), path)

	_, err = w.WriteString("pages/apmwg_Flavours.xhtml", "<p>two</p>")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>two</p>", string(data))
	assert.EqualValues(t, 2, w.Written())

	entries, err := os.ReadDir(filepath.Join(dir, "pages"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriter_Lock(t *testing.T) {
	dir := t.TempDir()
	first, err := NewWriter(dir)
	require.NoError(t, err)
	second, err := NewWriter(dir, WithLockTimeout(200*time.Millisecond))
	require.NoError(t, err)

	unlock, err := first.Lock(context.Background())
	require.NoError(t, err)

	_, err = second.Lock(context.Background())
	assert.ErrorIs(t, err, ErrLocked)

	unlock()
	unlock2, err := second.Lock(context.Background())
	require.NoError(t, err)
	unlock2()
}

func TestStorageToMarkdown(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?><html xmlns="http://www.w3.org/1999/xhtml"><body>` +
		`<h1 id="taste">Taste</h1>` +
		`<ac:structured-macro ac:name="toc"><ac:parameter ac:name="minLevel">1</ac:parameter></ac:structured-macro>` +
		`<table><colgroup><col/><col/></colgroup><tbody><tr><th>Lang</th><th>Text</th></tr><tr><td>en</td><td>Salt &amp; Pepper</td></tr></tbody></table>` +
		`<ac:structured-macro ac:name="code"><ac:parameter ac:name="language">turtle</ac:parameter>` +
		`<ac:plain-text-body><![CDATA[apmwg:Taste skos:prefLabel "Taste"@en .]]></ac:plain-text-body></ac:structured-macro>` +
		`</body></html>`

	got, err := NewConverter().StorageToMarkdown(doc)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "# Taste"))
	assert.NotContains(t, got, "minLevel")
	assert.Regexp(t, `\|\s*Lang\s*\|\s*Text\s*\|`, got)
	assert.Contains(t, got, "Salt & Pepper")
	assert.Contains(t, got, "```turtle\napmwg:Taste skos:prefLabel \"Taste\"@en .\n```")
}

func TestTerminalPreview(t *testing.T) {
	p, err := NewTerminalPreview(80)
	require.NoError(t, err)

	out, err := p.Render("")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = p.Render("# Taxonomy Index\n\n- Taste\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Taxonomy Index")
}

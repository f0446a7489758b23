package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

func TestRegistry_Supports(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Supports("application/pdf"))
	assert.True(t, r.Supports("application/epub+zip"))
	assert.True(t, r.Supports("text/html"))
	assert.True(t, r.Supports("text/markdown"))
	assert.True(t, r.Supports("text/html; charset=utf-8"))
	assert.True(t, r.Supports("TEXT/HTML"))
	assert.False(t, r.Supports("image/png"))
	assert.False(t, r.Supports("application/msword"))
}

func TestRegistry_UnsupportedType(t *testing.T) {
	r := NewRegistry()

	_, err := r.Extract(context.Background(), []byte("data"), "image/png")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestRegistry_EmptyAttachment(t *testing.T) {
	r := NewRegistry()

	_, err := r.Extract(context.Background(), nil, "text/html")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestParseHTML(t *testing.T) {
	src := []byte(`<html><head><title>The Gold Window</title>
<script>var x = 1;</script></head>
<body>
<h1>Chapter One</h1>
<p>On August 15, 1971 the convertibility of the dollar was suspended.</p>
<p>Markets reacted within hours.</p>
<nav><a href="/">ignored navigation</a></nav>
</body></html>`)

	doc, err := NewRegistry().Extract(context.Background(), src, "text/html")
	require.NoError(t, err)

	assert.Contains(t, doc.Text, "Chapter One")
	assert.Contains(t, doc.Text, "convertibility of the dollar")
	assert.Contains(t, doc.Text, "Markets reacted")
	assert.NotContains(t, doc.Text, "var x")
	assert.NotContains(t, doc.Text, "ignored navigation")
	assert.Equal(t, 1, doc.PageCount)
}

func TestParseMarkdown(t *testing.T) {
	src := []byte(`# Bretton Woods

The postwar monetary order pegged currencies to the dollar.

## Collapse

By 1971 the peg was untenable.

- gold outflows
- deficit spending
`)

	doc, err := NewRegistry().Extract(context.Background(), src, "text/markdown")
	require.NoError(t, err)

	assert.Contains(t, doc.Text, "Bretton Woods")
	assert.Contains(t, doc.Text, "postwar monetary order")
	assert.Contains(t, doc.Text, "Collapse")
	assert.Contains(t, doc.Text, "gold outflows")
	assert.NotContains(t, doc.Text, "# ")
}

func TestParsePlain(t *testing.T) {
	doc, err := NewRegistry().Extract(context.Background(), []byte("  plain notes\n"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "plain notes", doc.Text)
}

func TestParsePDF_Malformed(t *testing.T) {
	_, err := NewRegistry().Extract(context.Background(), []byte("definitely not a pdf"), "application/pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

// buildEPUB assembles a minimal two-chapter EPUB in memory.
func buildEPUB(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	files := map[string]string{
		"META-INF/container.xml": `<?xml version="1.0"?>
<container><rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles></container>`,
		"OEBPS/content.opf": `<?xml version="1.0"?>
<package><manifest>
<item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
<item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
</manifest><spine>
<itemref idref="ch1"/>
<itemref idref="ch2"/>
</spine></package>`,
		"OEBPS/ch1.xhtml": `<html><head><title>The Temple</title></head><body>
<p>The Federal Reserve occupies a peculiar place in American government.</p></body></html>`,
		"OEBPS/ch2.xhtml": `<html><head><title>The Crash</title></head><body>
<p>October began quietly enough on the trading floor.</p></body></html>`,
	}
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestParseEPUB(t *testing.T) {
	doc, err := NewRegistry().Extract(context.Background(), buildEPUB(t), "application/epub+zip")
	require.NoError(t, err)

	assert.Contains(t, doc.Text, "peculiar place in American government")
	assert.Contains(t, doc.Text, "trading floor")

	require.Len(t, doc.Chapters, 2)
	assert.Equal(t, "The Temple", doc.Chapters[0].Title)
	assert.Equal(t, "The Crash", doc.Chapters[1].Title)

	// Spans cover their chapter text in order.
	assert.Equal(t, 0, doc.Chapters[0].Start)
	assert.Greater(t, doc.Chapters[1].Start, doc.Chapters[0].End-1)
	assert.Equal(t, len(doc.Text), doc.Chapters[1].End)
	first := doc.Text[doc.Chapters[0].Start:doc.Chapters[0].End]
	assert.Contains(t, first, "peculiar place")
	assert.NotContains(t, first, "trading floor")
}

func TestParseEPUB_NotAZip(t *testing.T) {
	_, err := NewRegistry().Extract(context.Background(), []byte("nope"), "application/epub+zip")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

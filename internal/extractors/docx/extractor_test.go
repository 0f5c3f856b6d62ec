package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// buildDOCX creates a minimal DOCX archive in memory.
func buildDOCX(t testing.TB, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
	}
	if documentXML != "" {
		parts[documentPart] = documentXML
	}
	if coreXML != "" {
		parts[corePart] = coreXML
	}
	for name, body := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func body(inner string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS + `><w:body>` + inner + `</w:body></w:document>`
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{MIMEType}, New().SupportedMIMETypes())
	assert.Equal(t, 50, New().Priority())
}

func TestExtract_Success(t *testing.T) {
	coreXML := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Test Document</dc:title>
</cp:coreProperties>`

	raw := &domain.RawDocument{
		Name:    "report.docx",
		Content: buildDOCX(t, body(`<w:p><w:r><w:t>Hello World</w:t></w:r></w:p>`), coreXML),
	}

	result, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "Hello World", result.Text)
	assert.Equal(t, "Test Document", result.Title)
	assert.Equal(t, "docx", result.Metadata["format"])
	assert.Equal(t, 1, result.Metadata["paragraphs"])
}

func TestExtract_InvalidZip(t *testing.T) {
	raw := &domain.RawDocument{Name: "invalid.docx", Content: []byte("not a zip file")}

	result, err := New().Extract(context.Background(), raw)
	require.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Nil(t, result)
}

func TestExtract_MissingDocumentPart(t *testing.T) {
	raw := &domain.RawDocument{Name: "hollow.docx", Content: buildDOCX(t, "", "")}

	_, err := New().Extract(context.Background(), raw)
	require.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), documentPart)
}

func TestExtract_MalformedXML(t *testing.T) {
	raw := &domain.RawDocument{Name: "bad.docx", Content: buildDOCX(t, "<w:document><w:body>", "")}

	_, err := New().Extract(context.Background(), raw)
	require.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestExtract_TitleFallbackToFilename(t *testing.T) {
	raw := &domain.RawDocument{
		Name:    "/path/to/my_document.docx",
		Content: buildDOCX(t, body(`<w:p><w:r><w:t>Content</w:t></w:r></w:p>`), ""),
	}

	result, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "my document", result.Title)
}

func TestExtract_EmptyDocument(t *testing.T) {
	raw := &domain.RawDocument{Name: "empty.docx", Content: buildDOCX(t, body(""), "")}

	result, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, result.Text)
}

func TestParagraphs(t *testing.T) {
	tests := []struct {
		name     string
		inner    string
		expected []string
	}{
		{
			name: "multiple paragraphs",
			inner: `<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>`,
			expected: []string{"First paragraph", "Second paragraph"},
		},
		{
			name:     "runs concatenate",
			inner:    `<w:p><w:r><w:t xml:space="preserve">Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>`,
			expected: []string{"Hello World"},
		},
		{
			name:     "empty paragraphs skipped",
			inner:    `<w:p></w:p><w:p><w:r><w:t>Only</w:t></w:r></w:p><w:p><w:r><w:t> </w:t></w:r></w:p>`,
			expected: []string{"Only"},
		},
		{
			name:     "tabs and breaks",
			inner:    `<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>`,
			expected: []string{"a\tb\nc"},
		},
		{
			name: "table cells",
			inner: `<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Cell 1</w:t></w:r></w:p></w:tc>` +
				`<w:tc><w:p><w:r><w:t>Cell 2</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`,
			expected: []string{"Cell 1", "Cell 2"},
		},
		{
			name:     "instruction text ignored",
			inner:    `<w:p><w:r><w:instrText>PAGE</w:instrText><w:t>Visible</w:t></w:r></w:p>`,
			expected: []string{"Visible"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Paragraphs([]byte(body(tc.inner)))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func BenchmarkExtract(b *testing.B) {
	raw := &domain.RawDocument{
		Name:    "document.docx",
		Content: buildDOCX(b, body(`<w:p><w:r><w:t>Hello World</w:t></w:r></w:p>`), ""),
	}
	ctx := context.Background()

	for b.Loop() {
		_, _ = New().Extract(ctx, raw)
	}
}

package html

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func textOf(t *testing.T, input string) string {
	t.Helper()
	root, err := html.Parse(strings.NewReader(input))
	require.NoError(t, err)
	return Text(root)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.Contains(t, mimeTypes, "text/html")
	assert.Contains(t, mimeTypes, "application/xhtml+xml")
	assert.Len(t, mimeTypes, 2)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestExtract_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Name:     "page.html",
		MIMEType: "text/html",
		Content:  []byte("<html><head><title>Test Page</title></head><body><p>Hello World</p></body></html>"),
	}

	result, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "Hello World", result.Text)
	assert.Equal(t, "Test Page", result.Title)
	assert.Equal(t, "html", result.Metadata["format"])
}

func TestExtract_EmptyContent(t *testing.T) {
	result, err := New().Extract(context.Background(), &domain.RawDocument{Name: "empty.html"})
	require.NoError(t, err)
	assert.Empty(t, result.Text)
	assert.Equal(t, "empty", result.Title)
}

func TestExtract_TitleExtraction(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		filename      string
		expectedTitle string
	}{
		{
			name:          "title tag",
			content:       "<html><head><title>My Page</title></head></html>",
			filename:      "index.html",
			expectedTitle: "My Page",
		},
		{
			name:          "title with entities",
			content:       "<title>Tom &amp; Jerry</title>",
			filename:      "cartoon.html",
			expectedTitle: "Tom & Jerry",
		},
		{
			name:          "whitespace title falls back",
			content:       "<title>   </title><p>x</p>",
			filename:      "my_page.html",
			expectedTitle: "my page",
		},
		{
			name:          "no title",
			content:       "<p>Just content</p>",
			filename:      "/docs/user-guide.html",
			expectedTitle: "user guide",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := &domain.RawDocument{Name: tc.filename, Content: []byte(tc.content)}

			result, err := New().Extract(context.Background(), raw)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedTitle, result.Title)
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple paragraph", input: "<p>Hello World</p>", expected: "Hello World"},
		{name: "nested tags", input: "<div><p><strong>Bold</strong> text</p></div>", expected: "Bold text"},
		{
			name:     "script removed",
			input:    "<p>Before</p><script>alert('evil');</script><p>After</p>",
			expected: "Before\nAfter",
		},
		{name: "style removed", input: "<style>.foo { color: red; }</style><p>Content</p>", expected: "Content"},
		{name: "noscript removed", input: "<p>Content</p><noscript>No JS fallback</noscript>", expected: "Content"},
		{
			name:     "head removed",
			input:    "<head><meta charset='utf-8'><title>Title</title></head><body>Content</body>",
			expected: "Content",
		},
		{name: "br to newline", input: "Line 1<br>Line 2<br/>Line 3", expected: "Line 1\nLine 2\nLine 3"},
		{name: "block elements", input: "<div>Block 1</div><div>Block 2</div>", expected: "Block 1\nBlock 2"},
		{
			name:     "entities decoded",
			input:    "<p>&lt;tag&gt; &amp; &quot;quotes&quot;</p>",
			expected: "<tag> & \"quotes\"",
		},
		{name: "comments removed", input: "<p>Before</p><!-- comment --><p>After</p>", expected: "Before\nAfter"},
		{name: "list items", input: "<ul><li>Item 1</li><li>Item 2</li></ul>", expected: "Item 1\nItem 2"},
		{
			name:     "headings",
			input:    "<h1>Title</h1><h2>Subtitle</h2><p>Content</p>",
			expected: "Title\nSubtitle\nContent",
		},
		{name: "link text kept", input: `<a href="https://example.com">Click here</a>`, expected: "Click here"},
		{name: "images dropped", input: `<p>See <img src="image.png" alt="Image"> here</p>`, expected: "See here"},
		{
			name:     "table cells separated",
			input:    "<table><tr><td>Cell 1</td><td>Cell 2</td></tr></table>",
			expected: "Cell 1 Cell 2",
		},
		{
			name:     "svg removed",
			input:    `<p>Before</p><svg width="100"><text>label</text></svg><p>After</p>`,
			expected: "Before\nAfter",
		},
		{name: "non-breaking space", input: "<p>a&nbsp;&nbsp;b</p>", expected: "a b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, textOf(t, tc.input))
		})
	}
}

func TestExtract_ComplexHTML(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Complex Page</title>
    <style>body { font-family: Arial; }</style>
</head>
<body>
    <header><h1>Main Title</h1></header>
    <main>
        <article>
            <h2>Article Title</h2>
            <p>This is a <strong>paragraph</strong> with <em>emphasis</em>.</p>
            <ul>
                <li>First item</li>
                <li>Second item</li>
            </ul>
        </article>
    </main>
    <script>console.log('removed');</script>
    <!-- a comment -->
    <footer><p>&copy; 2024 Example Corp</p></footer>
</body>
</html>`

	result, err := New().Extract(context.Background(), &domain.RawDocument{Name: "complex.html", Content: []byte(page)})
	require.NoError(t, err)

	assert.Equal(t, "Complex Page", result.Title)
	assert.Contains(t, result.Text, "This is a paragraph with emphasis.")
	assert.Contains(t, result.Text, "Main Title")
	assert.Contains(t, result.Text, "First item\nSecond item")
	assert.Contains(t, result.Text, "© 2024 Example Corp")
	assert.NotContains(t, result.Text, "console.log")
	assert.NotContains(t, result.Text, "font-family")
	assert.NotContains(t, result.Text, "a comment")
}

func BenchmarkExtract(b *testing.B) {
	raw := &domain.RawDocument{
		Name:    "large.html",
		Content: []byte("<html><body>" + strings.Repeat("<div><p>Some <strong>bold</strong> text.</p></div>", 1000) + "</body></html>"),
	}
	ctx := context.Background()

	for b.Loop() {
		_, _ = New().Extract(ctx, raw)
	}
}

package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var (
	codeFence    = regexp.MustCompile("(?s)```[^\\n]*\\n(.*?)```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*)([^*\n]+?)(\*\*|__|\*)`)
	blockquote   = regexp.MustCompile(`(?m)^>[ \t]?`)
	hr           = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	bullets      = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numbered     = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	tableRule    = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t]*:?-{3,}:?[ \t]*(\|[ \t]*:?-{3,}:?[ \t]*)*\|?[ \t]*$`)
	htmlComment  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
	frontMatter  = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	firstHeading = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)
)

// Extractor handles Markdown documents.
type Extractor struct{}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract converts markdown to plain text. Code block bodies are kept since
// they often carry the answer to a question; only the fences are removed.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedText, error) {
	content := strings.ReplaceAll(strings.ToValidUTF8(string(raw.Content), ""), "\r\n", "\n")

	return &domain.ExtractedText{
		Text:     Strip(content),
		Title:    title(content, raw.Name),
		Metadata: extractors.Metadata("markdown"),
	}, nil
}

// title returns the first H1 heading, or a title derived from name.
func title(content, name string) string {
	if m := firstHeading.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(strings.TrimRight(m[1], "#"))
	}
	return extractors.TitleFromName(name)
}

// Strip removes markdown syntax and returns readable text.
func Strip(content string) string {
	content = frontMatter.ReplaceAllString(content, "")
	content = htmlComment.ReplaceAllString(content, "")
	content = codeFence.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = hr.ReplaceAllString(content, "")
	content = tableRule.ReplaceAllString(content, "")
	content = headings.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "")
	content = numbered.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

package extractors

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches documents to the highest priority extractor that
// handles their content type.
type Registry struct {
	mu     sync.RWMutex
	byType map[string][]driven.Extractor
}

// NewRegistry creates a registry holding extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byType: make(map[string][]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor for each of its MIME types.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mimeType := range e.SupportedMIMETypes() {
		list := append(r.byType[mimeType], e)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byType[mimeType] = list
	}
}

// Extract runs the best extractor for raw's content type.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedText, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrValidation)
	}

	contentType := raw.ContentType()
	e := r.lookup(contentType)
	if e == nil {
		ext := strings.ToLower(filepath.Ext(raw.Name))
		return nil, fmt.Errorf("%w: %q (%s)", domain.ErrUnsupportedType, contentType, ext)
	}

	logger.Debug("Extracting %q as %s", raw.Name, contentType)
	out, err := e.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}
	if out.Metadata == nil {
		out.Metadata = make(map[string]any)
	}
	out.Metadata["mime_type"] = contentType
	return out, nil
}

// Supports reports whether some extractor handles mimeType.
func (r *Registry) Supports(mimeType string) bool {
	return r.lookup(mimeType) != nil
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.byType))
}

func (r *Registry) lookup(mimeType string) driven.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if list := r.byType[mimeType]; len(list) > 0 {
		return list[0]
	}
	return nil
}

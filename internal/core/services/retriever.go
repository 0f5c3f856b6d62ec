package services

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/custodia-labs/docqa/internal/chunker"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Retriever implements the interfaces.
var (
	_ driving.IngestService = (*Retriever)(nil)
	_ driving.SearchService = (*Retriever)(nil)
)

// Retriever ingests text through the chunker into the chunk store and runs
// similarity searches against it.
type Retriever struct {
	store      *ChunkStore
	extractors driven.ExtractorRegistry
	defaults   domain.ChunkingSettings
}

// NewRetriever creates a retriever. extractors may be nil, in which case
// IngestDocument fails with domain.ErrUnsupportedType.
func NewRetriever(store *ChunkStore, extractors driven.ExtractorRegistry) *Retriever {
	return &Retriever{
		store:      store,
		extractors: extractors,
		defaults: domain.ChunkingSettings{
			Size:    domain.DefaultChunkSize,
			Overlap: domain.DefaultChunkOverlap,
		},
	}
}

// SetChunkingDefaults overrides the size and overlap used when a request
// leaves ChunkSize at zero.
func (r *Retriever) SetChunkingDefaults(defaults domain.ChunkingSettings) {
	if defaults.Size > 0 {
		r.defaults = defaults
	}
}

// Ingest splits req.Text and stores the fragments.
//
// A zero ChunkSize selects the configured defaults; the default overlap is
// applied only when ChunkOverlap is also zero. Whitespace-only text returns
// an empty result.
func (r *Retriever) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	logger.Section("Ingest")

	req.Collection = domain.CollectionOrDefault(req.Collection)
	if req.ChunkSize == 0 {
		req.ChunkSize = r.defaults.Size
		if req.ChunkOverlap == 0 {
			req.ChunkOverlap = r.defaults.Overlap
		}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result := &domain.IngestResult{
		SourceID:   req.SourceID,
		Collection: req.Collection,
		Chunks:     []domain.Chunk{},
	}

	if strings.TrimSpace(req.Text) == "" {
		logger.Debug("No text for %q, nothing to store", req.SourceID)
		return result, nil
	}

	fragments := chunker.Split(req.Text, req.ChunkSize, req.ChunkOverlap)
	logger.Debug("Split %q into %d fragments (size=%d, overlap=%d)",
		req.SourceID, len(fragments), req.ChunkSize, req.ChunkOverlap)

	chunks, err := r.store.Insert(ctx, fragments, req.SourceID, req.Collection, req.Metadata)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", req.SourceID, err)
	}

	result.Chunks = chunks
	result.Count = len(chunks)
	logger.Info("Stored %d chunks for %q in %q", result.Count, req.SourceID, req.Collection)
	return result, nil
}

// IngestDocument extracts raw and ingests its text under raw.Name.
// With opts.Replace set, chunks already stored for the same source are
// removed once the new ones are stored. A failed insert leaves them in place.
func (r *Retriever) IngestDocument(
	ctx context.Context,
	raw *domain.RawDocument,
	opts driving.IngestOptions,
) (*domain.IngestResult, error) {
	if raw == nil || strings.TrimSpace(raw.Name) == "" {
		return nil, fmt.Errorf("%w: document name is required", domain.ErrValidation)
	}
	if opts.ChunkSize == 0 && opts.ChunkOverlap == 0 {
		opts.ChunkSize = r.defaults.Size
		opts.ChunkOverlap = r.defaults.Overlap
	}
	if err := domain.ValidateUploadChunking(opts.ChunkSize, opts.ChunkOverlap); err != nil {
		return nil, err
	}
	if r.extractors == nil {
		return nil, fmt.Errorf("%w: no extractors configured", domain.ErrUnsupportedType)
	}

	extracted, err := r.extractors.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return nil, fmt.Errorf("%w: no text content found in %s", domain.ErrValidation, raw.Name)
	}

	collection := domain.CollectionOrDefault(opts.Collection)
	var previous []string
	if opts.Replace {
		previous, err = r.store.sourceChunkIDs(ctx, raw.Name, collection)
		if err != nil {
			return nil, fmt.Errorf("replace %s: %w", raw.Name, err)
		}
	}

	metadata := make(map[string]any, len(raw.Metadata)+len(extracted.Metadata)+1)
	maps.Copy(metadata, raw.Metadata)
	maps.Copy(metadata, extracted.Metadata)
	if extracted.Title != "" {
		metadata["title"] = extracted.Title
	}

	result, err := r.Ingest(ctx, domain.IngestRequest{
		Text:         extracted.Text,
		SourceID:     raw.Name,
		Collection:   collection,
		ChunkSize:    opts.ChunkSize,
		ChunkOverlap: opts.ChunkOverlap,
		Metadata:     metadata,
	})
	if err != nil {
		return nil, err
	}

	if len(previous) > 0 {
		if err := r.store.deleteIDs(ctx, collection, previous); err != nil {
			return nil, fmt.Errorf("replace %s: %w", raw.Name, err)
		}
		logger.Debug("Removed %d previous chunks of %q", len(previous), raw.Name)
	}
	return result, nil
}

// Search ranks stored chunks against query.
func (r *Retriever) Search(
	ctx context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.RetrievalResult, error) {
	logger.Section("Search")
	logger.Debug("Query: %q, collection: %q, top_k: %d", query, opts.Collection, opts.TopK)

	results, err := r.store.Query(ctx, query, opts.Collection, opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	logger.Debug("Found %d results", len(results))
	return results, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure ChunkStore implements the interface.
var _ driving.CollectionService = (*ChunkStore)(nil)

// ChunkStore persists chunks in a VectorIndex, partitioned by collection.
type ChunkStore struct {
	index driven.VectorIndex
	newID func() string
}

// NewChunkStore creates a chunk store over index.
func NewChunkStore(index driven.VectorIndex) *ChunkStore {
	return &ChunkStore{
		index: index,
		newID: uuid.NewString,
	}
}

// Insert stores fragments as chunks of sourceID and returns them with their
// generated ids. extra is copied onto every chunk's metadata; the required
// keys (source_id, chunk_index, start_char, end_char) always win.
func (s *ChunkStore) Insert(
	ctx context.Context,
	fragments []domain.Fragment,
	sourceID, collection string,
	extra map[string]any,
) ([]domain.Chunk, error) {
	if strings.TrimSpace(sourceID) == "" {
		return nil, fmt.Errorf("%w: source id is required", domain.ErrValidation)
	}
	collection = domain.CollectionOrDefault(collection)
	if len(fragments) == 0 {
		return []domain.Chunk{}, nil
	}

	chunks := make([]domain.Chunk, len(fragments))
	records := make([]driven.VectorRecord, len(fragments))
	for i, f := range fragments {
		meta := scalarMetadata(extra)
		meta[domain.MetaSourceID] = sourceID
		meta[domain.MetaChunkIndex] = f.Index
		meta[domain.MetaStartChar] = f.StartChar
		meta[domain.MetaEndChar] = f.EndChar

		chunks[i] = domain.Chunk{
			ID:         s.newID(),
			SourceID:   sourceID,
			Collection: collection,
			Content:    f.Content,
			Index:      f.Index,
			StartChar:  f.StartChar,
			EndChar:    f.EndChar,
			Metadata:   meta,
		}
		records[i] = driven.VectorRecord{
			ID:       chunks[i].ID,
			Text:     f.Content,
			Metadata: meta,
		}
	}

	logger.Debug("Inserting %d chunks for %q into %q", len(chunks), sourceID, collection)
	if err := s.index.Upsert(ctx, collection, records); err != nil {
		return nil, unavailable("insert", err)
	}

	return chunks, nil
}

// Query returns up to topK chunks ranked by descending score.
// Unknown or empty collections yield an empty slice.
func (s *ChunkStore) Query(
	ctx context.Context,
	queryText, collection string,
	topK int,
) ([]domain.RetrievalResult, error) {
	collection = domain.CollectionOrDefault(collection)
	if strings.TrimSpace(queryText) == "" {
		return []domain.RetrievalResult{}, nil
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	matches, err := s.index.SimilaritySearch(ctx, collection, queryText, topK)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("Collection %q does not exist, no results", collection)
		return []domain.RetrievalResult{}, nil
	}
	if err != nil {
		return nil, unavailable("query", err)
	}

	results := make([]domain.RetrievalResult, 0, len(matches))
	for i := range matches {
		results = append(results, domain.RetrievalResult{
			Chunk: chunkFromMatch(&matches[i], collection),
			Score: domain.ScoreFromDistance(matches[i].Distance),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// DeleteByID removes one chunk. It returns 1 if the chunk existed, else 0.
func (s *ChunkStore) DeleteByID(ctx context.Context, id, collection string) (int, error) {
	collection = domain.CollectionOrDefault(collection)
	if strings.TrimSpace(id) == "" {
		return 0, fmt.Errorf("%w: chunk id is required", domain.ErrValidation)
	}

	found, err := s.index.GetByIDs(ctx, collection, []string{id})
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable("delete", err)
	}
	if len(found) == 0 {
		return 0, nil
	}

	if err := s.index.Delete(ctx, collection, found); err != nil {
		return 0, unavailable("delete", err)
	}
	return len(found), nil
}

// DeleteBySource removes every chunk whose source_id equals sourceID.
// The matching ids are removed in a single index call, so either all of
// them go or none do.
func (s *ChunkStore) DeleteBySource(ctx context.Context, sourceID, collection string) (int, error) {
	collection = domain.CollectionOrDefault(collection)
	if strings.TrimSpace(sourceID) == "" {
		return 0, fmt.Errorf("%w: source id is required", domain.ErrValidation)
	}

	ids, err := s.sourceChunkIDs(ctx, sourceID, collection)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	logger.Debug("Deleting %d chunks of %q from %q", len(ids), sourceID, collection)
	if err := s.deleteIDs(ctx, collection, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// sourceChunkIDs returns the ids stored for sourceID. A missing collection
// has none.
func (s *ChunkStore) sourceChunkIDs(ctx context.Context, sourceID, collection string) ([]string, error) {
	ids, err := s.index.GetByMetadata(ctx, collection, map[string]any{domain.MetaSourceID: sourceID})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("delete", err)
	}
	return ids, nil
}

func (s *ChunkStore) deleteIDs(ctx context.Context, collection string, ids []string) error {
	if err := s.index.Delete(ctx, collection, ids); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// ListCollections returns every collection name, sorted.
func (s *ChunkStore) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.index.ListCollections(ctx)
	if err != nil {
		return nil, unavailable("list collections", err)
	}
	sort.Strings(names)
	return names, nil
}

// CollectionInfo reports whether name exists and how many chunks it holds.
func (s *ChunkStore) CollectionInfo(ctx context.Context, name string) (domain.CollectionInfo, error) {
	name = domain.CollectionOrDefault(name)
	info := domain.CollectionInfo{Name: name}

	count, err := s.index.Count(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return info, nil
	}
	if err != nil {
		return info, unavailable("collection info", err)
	}

	info.Exists = true
	info.DocumentCount = count
	return info, nil
}

// unavailable classifies an index failure as ErrStoreUnavailable.
func unavailable(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}

// chunkFromMatch rebuilds a chunk from the metadata stored with it.
func chunkFromMatch(m *driven.VectorMatch, collection string) domain.Chunk {
	meta := m.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	sourceID, _ := meta[domain.MetaSourceID].(string)
	return domain.Chunk{
		ID:         m.ID,
		SourceID:   sourceID,
		Collection: collection,
		Content:    m.Text,
		Index:      metaInt(meta, domain.MetaChunkIndex),
		StartChar:  metaInt(meta, domain.MetaStartChar),
		EndChar:    metaInt(meta, domain.MetaEndChar),
		Metadata:   meta,
	}
}

// metaInt reads an integer that may have round-tripped through JSON.
func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float32:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// scalarMetadata copies extra, converting values to the scalar types every
// index backend can store.
func scalarMetadata(extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+4)
	for k, v := range extra {
		switch val := v.(type) {
		case nil:
			continue
		case string, bool, int, int64, float64:
			out[k] = val
		case int32:
			out[k] = int(val)
		case float32:
			out[k] = float64(val)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

type entry struct {
	id       string
	text     string
	metadata map[string]any
	vector   []float32
	seq      int
}

type collection struct {
	entries map[string]*entry
	nextSeq int
}

// VectorIndex is an in-process driven.VectorIndex using brute-force cosine
// distance. Nothing survives a restart.
type VectorIndex struct {
	mu          sync.RWMutex
	embedder    driven.EmbeddingService
	collections map[string]*collection
}

// NewVectorIndex creates an empty index that embeds text with embedder.
func NewVectorIndex(embedder driven.EmbeddingService) *VectorIndex {
	return &VectorIndex{
		embedder:    embedder,
		collections: make(map[string]*collection),
	}
}

// Upsert embeds and stores records, replacing any with the same id.
func (v *VectorIndex) Upsert(ctx context.Context, name string, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	// Embed outside the lock; the embedder may be remote.
	vectors, err := v.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed records: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	coll, ok := v.collections[name]
	if !ok {
		coll = &collection{entries: make(map[string]*entry)}
		v.collections[name] = coll
	}
	for i, r := range records {
		seq := coll.nextSeq
		if existing, ok := coll.entries[r.ID]; ok {
			seq = existing.seq
		} else {
			coll.nextSeq++
		}
		coll.entries[r.ID] = &entry{
			id:       r.ID,
			text:     r.Text,
			metadata: copyMetadata(r.Metadata),
			vector:   vectors[i],
			seq:      seq,
		}
	}
	return nil
}

// SimilaritySearch returns the k entries nearest to queryText.
func (v *VectorIndex) SimilaritySearch(
	ctx context.Context,
	name, queryText string,
	k int,
) ([]driven.VectorMatch, error) {
	v.mu.RLock()
	_, ok := v.collections[name]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}

	query, err := v.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	coll, ok := v.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}

	type scored struct {
		e        *entry
		distance float64
	}
	hits := make([]scored, 0, len(coll.entries))
	for _, e := range coll.entries {
		hits = append(hits, scored{e: e, distance: similarity.CosineDistance(query, e.vector)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].e.seq < hits[j].e.seq
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}

	matches := make([]driven.VectorMatch, len(hits))
	for i, h := range hits {
		matches[i] = driven.VectorMatch{
			ID:       h.e.id,
			Text:     h.e.text,
			Metadata: copyMetadata(h.e.metadata),
			Distance: h.distance,
		}
	}
	return matches, nil
}

// Delete removes ids from the collection.
func (v *VectorIndex) Delete(_ context.Context, name string, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	coll, ok := v.collections[name]
	if !ok {
		return fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}
	for _, id := range ids {
		delete(coll.entries, id)
	}
	return nil
}

// GetByMetadata returns ids whose metadata matches every filter pair.
func (v *VectorIndex) GetByMetadata(_ context.Context, name string, filter map[string]any) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	coll, ok := v.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}

	var ids []string
	for id, e := range coll.entries {
		if matchesFilter(e.metadata, filter) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// GetByIDs returns the ids that exist in the collection.
func (v *VectorIndex) GetByIDs(_ context.Context, name string, ids []string) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	coll, ok := v.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}

	found := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := coll.entries[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

// ListCollections returns every collection name.
func (v *VectorIndex) ListCollections(_ context.Context) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	names := make([]string, 0, len(v.collections))
	for name := range v.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Count returns the number of entries in the collection.
func (v *VectorIndex) Count(_ context.Context, name string) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	coll, ok := v.collections[name]
	if !ok {
		return 0, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}
	return len(coll.entries), nil
}

// Ping always succeeds.
func (v *VectorIndex) Ping(_ context.Context) error {
	return nil
}

// Close drops all collections.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.collections = make(map[string]*collection)
	return nil
}

func matchesFilter(metadata, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func copyMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

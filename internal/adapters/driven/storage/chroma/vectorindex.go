// Package chroma provides a driven.VectorIndex backed by a Chroma server.
//
// Documents and queries are embedded client side with the configured
// embedding service before they are sent. Collections use cosine distance so that 1 - distance is a similarity score
// comparable with the local backends.
package chroma

import (
	"context"
	"fmt"
	"sync"

	chromago "github.com/amikos-tech/chroma-go"
	"github.com/amikos-tech/chroma-go/collection"
	"github.com/amikos-tech/chroma-go/types"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// DefaultURL is the address of a locally running Chroma server.
const DefaultURL = "http://localhost:8000"

// VectorIndex stores chunks in Chroma collections.
type VectorIndex struct {
	client *chromago.Client
	url    string
	embed  *embedFunc

	mu          sync.Mutex
	collections map[string]*chromago.Collection
}

// NewVectorIndex connects to the Chroma server at url. Text is embedded
// with embedder.
func NewVectorIndex(url string, embedder driven.EmbeddingService) (*VectorIndex, error) {
	if url == "" {
		url = DefaultURL
	}
	client, err := chromago.NewClient(chromago.WithBasePath(url))
	if err != nil {
		return nil, fmt.Errorf("%w: create chroma client: %w", domain.ErrStoreUnavailable, err)
	}
	return &VectorIndex{
		client:      client,
		url:         url,
		embed:       &embedFunc{embedder: embedder},
		collections: make(map[string]*chromago.Collection),
	}, nil
}

// Upsert creates the collection if needed and upserts records.
func (v *VectorIndex) Upsert(ctx context.Context, name string, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	coll, err := v.create(ctx, name)
	if err != nil {
		return err
	}

	ids := make([]string, len(records))
	documents := make([]string, len(records))
	metadatas := make([]map[string]interface{}, len(records))
	for i, r := range records {
		ids[i] = r.ID
		documents[i] = r.Text
		metadatas[i] = r.Metadata
	}

	// nil embeddings: the collection's embedFunc fills them in.
	if _, err := coll.Upsert(ctx, nil, metadatas, documents, ids); err != nil {
		return fmt.Errorf("upsert into %q: %w", name, err)
	}
	logger.Debug("Upserted %d records into chroma collection %q", len(records), name)
	return nil
}

// SimilaritySearch queries the collection by text.
func (v *VectorIndex) SimilaritySearch(
	ctx context.Context,
	name, queryText string,
	k int,
) ([]driven.VectorMatch, error) {
	coll, err := v.lookup(ctx, name)
	if err != nil {
		return nil, err
	}

	count, err := coll.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count %q: %w", name, err)
	}
	if count == 0 {
		return []driven.VectorMatch{}, nil
	}
	n := min(int32(k), count)
	if n <= 0 {
		n = count
	}

	results, err := coll.Query(
		ctx,
		[]string{queryText},
		n,
		nil,
		nil,
		[]types.QueryEnum{
			"documents",
			"metadatas",
			"distances",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", name, err)
	}

	var matches []driven.VectorMatch
	if len(results.Ids) == 0 {
		return matches, nil
	}
	for i, id := range results.Ids[0] {
		m := driven.VectorMatch{ID: id, Metadata: map[string]any{}}
		if len(results.Documents) > 0 && len(results.Documents[0]) > i {
			m.Text = results.Documents[0][i]
		}
		if len(results.Distances) > 0 && len(results.Distances[0]) > i {
			m.Distance = float64(results.Distances[0][i])
		}
		if len(results.Metadatas) > 0 && len(results.Metadatas[0]) > i && results.Metadatas[0][i] != nil {
			for key, val := range results.Metadatas[0][i] {
				m.Metadata[key] = val
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Delete removes ids in one request.
func (v *VectorIndex) Delete(ctx context.Context, name string, ids []string) error {
	coll, err := v.lookup(ctx, name)
	if err != nil {
		return err
	}
	// An empty id list with no filter would clear the collection.
	if len(ids) == 0 {
		return nil
	}
	if _, err := coll.Delete(ctx, ids, nil, nil); err != nil {
		return fmt.Errorf("delete from %q: %w", name, err)
	}
	return nil
}

// GetByMetadata returns ids matching every filter pair.
func (v *VectorIndex) GetByMetadata(ctx context.Context, name string, filter map[string]any) ([]string, error) {
	coll, err := v.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	return v.getIDs(ctx, coll, whereClause(filter), nil)
}

// GetByIDs returns the subset of ids present in the collection.
func (v *VectorIndex) GetByIDs(ctx context.Context, name string, ids []string) ([]string, error) {
	coll, err := v.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []string{}, nil
	}
	return v.getIDs(ctx, coll, nil, ids)
}

// ListCollections returns every collection name.
func (v *VectorIndex) ListCollections(ctx context.Context) ([]string, error) {
	colls, err := v.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	names := make([]string, 0, len(colls))
	for _, c := range colls {
		names = append(names, c.Name)
	}
	return names, nil
}

// Count returns the number of records in the collection.
func (v *VectorIndex) Count(ctx context.Context, name string) (int, error) {
	coll, err := v.lookup(ctx, name)
	if err != nil {
		return 0, err
	}
	n, err := coll.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", name, err)
	}
	return int(n), nil
}

// Ping lists collections to check the server answers.
func (v *VectorIndex) Ping(ctx context.Context) error {
	if _, err := v.client.ListCollections(ctx); err != nil {
		return fmt.Errorf("%w: chroma at %s: %w", domain.ErrStoreUnavailable, v.url, err)
	}
	return nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.collections = make(map[string]*chromago.Collection)
	return nil
}

func (v *VectorIndex) getIDs(
	ctx context.Context,
	coll *chromago.Collection,
	where map[string]interface{},
	ids []string,
) ([]string, error) {
	res, err := coll.Get(ctx, where, nil, ids, []types.QueryEnum{})
	if err != nil {
		return nil, fmt.Errorf("get from %q: %w", coll.Name, err)
	}
	out := make([]string, 0, len(res.Ids))
	out = append(out, res.Ids...)
	return out, nil
}

// create returns the named collection, creating it with cosine distance.
func (v *VectorIndex) create(ctx context.Context, name string) (*chromago.Collection, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if coll, ok := v.collections[name]; ok {
		return coll, nil
	}
	coll, err := v.client.NewCollection(
		ctx,
		name,
		collection.WithHNSWDistanceFunction(types.COSINE),
		collection.WithCreateIfNotExist(true),
		collection.WithEmbeddingFunction(v.embed),
	)
	if err != nil {
		return nil, fmt.Errorf("create or get collection %q: %w", name, err)
	}
	v.collections[name] = coll
	return coll, nil
}

// lookup returns an existing collection or domain.ErrNotFound.
func (v *VectorIndex) lookup(ctx context.Context, name string) (*chromago.Collection, error) {
	v.mu.Lock()
	coll, ok := v.collections[name]
	v.mu.Unlock()
	if ok {
		return coll, nil
	}

	names, err := v.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, n := range names {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}

	coll, err = v.client.GetCollection(ctx, name, v.embed)
	if err != nil {
		return nil, fmt.Errorf("get collection %q: %w", name, err)
	}

	v.mu.Lock()
	v.collections[name] = coll
	v.mu.Unlock()
	return coll, nil
}

// whereClause converts an equality filter into Chroma's where syntax.
// Several keys are combined with $and.
func whereClause(filter map[string]any) map[string]interface{} {
	if len(filter) == 0 {
		return nil
	}
	if len(filter) == 1 {
		for k, val := range filter {
			return map[string]interface{}{k: val}
		}
	}
	clauses := make([]map[string]interface{}, 0, len(filter))
	for k, val := range filter {
		clauses = append(clauses, map[string]interface{}{k: val})
	}
	return map[string]interface{}{"$and": clauses}
}

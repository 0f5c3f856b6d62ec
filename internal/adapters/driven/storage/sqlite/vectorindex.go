package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// metadataKey restricts the keys usable in a json_extract path.
var metadataKey = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// VectorIndex implements driven.VectorIndex on top of a Store.
type VectorIndex struct {
	store    *Store
	embedder driven.EmbeddingService
}

// Upsert embeds records and writes them in one transaction.
func (v *VectorIndex) Upsert(ctx context.Context, collection string, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	vectors, err := v.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed records: %w", err)
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := v.ensureCollection(ctx, tx, collection); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, collection, source_id, content, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			source_id = excluded.source_id,
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		sourceID, _ := r.Metadata[domain.MetaSourceID].(string)

		if _, err := stmt.ExecContext(ctx, r.ID, collection, sourceID, r.Text,
			float32SliceToBytes(vectors[i]), string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ensureCollection creates the collection row or checks that it was built
// with the current embedding model.
func (v *VectorIndex) ensureCollection(ctx context.Context, tx *sql.Tx, collection string) error {
	model := v.embedder.ModelName()
	dims := v.embedder.Dimensions()

	var storedModel string
	err := tx.QueryRowContext(ctx,
		"SELECT embedding_model FROM collections WHERE name = ?", collection).Scan(&storedModel)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			"INSERT INTO collections (name, embedding_model, dimensions) VALUES (?, ?, ?)",
			collection, model, dims)
		if err != nil {
			return fmt.Errorf("creating collection: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("reading collection: %w", err)
	case storedModel != "" && storedModel != model:
		return fmt.Errorf("%w: collection %q was embedded with %s, current model is %s",
			domain.ErrValidation, collection, storedModel, model)
	}
	return nil
}

// SimilaritySearch scans the collection's embeddings and returns the k
// nearest by cosine distance. Ties keep insertion order.
func (v *VectorIndex) SimilaritySearch(
	ctx context.Context,
	collection, queryText string,
	k int,
) ([]driven.VectorMatch, error) {
	if err := v.requireCollection(ctx, collection); err != nil {
		return nil, err
	}

	query, err := v.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT id, content, embedding, metadata FROM chunks
		WHERE collection = ?
		ORDER BY rowid
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var matches []driven.VectorMatch
	for rows.Next() {
		var (
			m            driven.VectorMatch
			embeddingRaw []byte
			metadataRaw  string
		)
		if err := rows.Scan(&m.ID, &m.Text, &embeddingRaw, &metadataRaw); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataRaw), &m.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
		m.Distance = similarity.CosineDistance(query, bytesToFloat32Slice(embeddingRaw))
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Delete removes ids in a single transaction.
func (v *VectorIndex) Delete(ctx context.Context, collection string, ids []string) error {
	if err := v.requireCollection(ctx, collection); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM chunks WHERE collection = ? AND id = ?")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, collection, id); err != nil {
			return fmt.Errorf("deleting chunk %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetByMetadata returns ids whose metadata matches every filter pair.
// source_id is served from its indexed column; other keys use json_extract.
func (v *VectorIndex) GetByMetadata(
	ctx context.Context,
	collection string,
	filter map[string]any,
) ([]string, error) {
	if err := v.requireCollection(ctx, collection); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	where := []string{"collection = ?"}
	args := []any{collection}
	for _, k := range keys {
		if k == domain.MetaSourceID {
			where = append(where, "source_id = ?")
			args = append(args, fmt.Sprint(filter[k]))
			continue
		}
		if !metadataKey.MatchString(k) {
			return nil, fmt.Errorf("%w: invalid metadata key %q", domain.ErrValidation, k)
		}
		where = append(where, "json_extract(metadata, '$."+k+"') = ?")
		args = append(args, filter[k])
	}

	//nolint:gosec // G202: keys are validated against metadataKey above.
	query := "SELECT id FROM chunks WHERE " + strings.Join(where, " AND ") + " ORDER BY id"
	return v.queryIDs(ctx, query, args...)
}

// GetByIDs returns the subset of ids present in the collection.
func (v *VectorIndex) GetByIDs(ctx context.Context, collection string, ids []string) ([]string, error) {
	if err := v.requireCollection(ctx, collection); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []string{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, collection)
	for _, id := range ids {
		args = append(args, id)
	}

	//nolint:gosec // G202: only placeholders are concatenated.
	query := "SELECT id FROM chunks WHERE collection = ? AND id IN (" + placeholders + ") ORDER BY id"
	return v.queryIDs(ctx, query, args...)
}

// ListCollections returns every collection name.
func (v *VectorIndex) ListCollections(ctx context.Context) ([]string, error) {
	return v.queryIDs(ctx, "SELECT name FROM collections ORDER BY name")
}

// Count returns the number of chunks in the collection.
func (v *VectorIndex) Count(ctx context.Context, collection string) (int, error) {
	if err := v.requireCollection(ctx, collection); err != nil {
		return 0, err
	}
	var n int
	err := v.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE collection = ?", collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Ping checks the database answers.
func (v *VectorIndex) Ping(ctx context.Context) error {
	return v.store.db.PingContext(ctx)
}

// Close closes the underlying store.
func (v *VectorIndex) Close() error {
	return v.store.Close()
}

func (v *VectorIndex) requireCollection(ctx context.Context, collection string) error {
	var exists int
	err := v.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM collections WHERE name = ?", collection).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("collection %q: %w", collection, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading collection: %w", err)
	}
	return nil
}

func (v *VectorIndex) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := v.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

package chroma

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"down"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewVectorIndex_DefaultURL(t *testing.T) {
	v, err := NewVectorIndex("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, v.url)
	assert.NoError(t, v.Close())
}

func TestUpsert_NoRecords(t *testing.T) {
	v, err := NewVectorIndex(failingServer(t).URL, nil)
	require.NoError(t, err)

	assert.NoError(t, v.Upsert(context.Background(), "docs", nil))
}

func TestPing_ServerError(t *testing.T) {
	v, err := NewVectorIndex(failingServer(t).URL, nil)
	require.NoError(t, err)

	err = v.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestCount_ServerError(t *testing.T) {
	v, err := NewVectorIndex(failingServer(t).URL, nil)
	require.NoError(t, err)

	_, err = v.Count(context.Background(), "docs")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestWhereClause(t *testing.T) {
	assert.Nil(t, whereClause(nil))
	assert.Equal(t, map[string]interface{}{"filename": "a.txt"}, whereClause(map[string]any{"filename": "a.txt"}))

	where := whereClause(map[string]any{"filename": "a.txt", "chunk_index": 2})
	clauses, ok := where["$and"].([]map[string]interface{})
	require.True(t, ok)
	assert.ElementsMatch(t, []map[string]interface{}{
		{"filename": "a.txt"},
		{"chunk_index": 2},
	}, clauses)
}

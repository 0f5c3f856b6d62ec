package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestExtractCollectionName(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid collection URI",
			uri:      "docqa://collections/atlas",
			expected: "atlas",
		},
		{
			name:     "invalid prefix",
			uri:      "file://collections/atlas",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "docqa://collections/atlas/extra",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractCollectionName(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleCollectionsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil collection service returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		result, err := server.handleCollectionsResource(ctx, makeReadResourceRequest("docqa://collections"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns collection names", func(t *testing.T) {
		server := newTestServer(t, &Ports{Collections: &mockCollectionService{names: []string{"atlas", "default"}}})

		result, err := server.handleCollectionsResource(ctx, makeReadResourceRequest("docqa://collections"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.JSONEq(t, `["atlas", "default"]`, result.Contents[0].Text)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("no collections is an empty array", func(t *testing.T) {
		server := newTestServer(t, &Ports{Collections: &mockCollectionService{}})

		result, err := server.handleCollectionsResource(ctx, makeReadResourceRequest("docqa://collections"))

		require.NoError(t, err)
		assert.JSONEq(t, `[]`, result.Contents[0].Text)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Collections: &mockCollectionService{err: errors.New("database error")}})

		_, err := server.handleCollectionsResource(ctx, makeReadResourceRequest("docqa://collections"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing collections")
	})
}

func TestServer_handleCollectionResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns collection info", func(t *testing.T) {
		collections := &mockCollectionService{info: domain.CollectionInfo{Exists: true, DocumentCount: 12}}
		server := newTestServer(t, &Ports{Collections: collections})

		result, err := server.handleCollectionResource(ctx, makeReadResourceRequest("docqa://collections/atlas"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.JSONEq(t, `{"name": "atlas", "exists": true, "document_count": 12}`, result.Contents[0].Text)
	})

	t.Run("unknown collection is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Collections: &mockCollectionService{}})

		_, err := server.handleCollectionResource(ctx, makeReadResourceRequest("docqa://collections/missing"))
		require.Error(t, err)
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Collections: &mockCollectionService{}})

		_, err := server.handleCollectionResource(ctx, makeReadResourceRequest("docqa://other/x"))
		require.Error(t, err)
	})

	t.Run("nil collection service is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, err := server.handleCollectionResource(ctx, makeReadResourceRequest("docqa://collections/atlas"))
		require.Error(t, err)
	})

	t.Run("store failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Collections: &mockCollectionService{err: domain.ErrStoreUnavailable}})

		_, err := server.handleCollectionResource(ctx, makeReadResourceRequest("docqa://collections/atlas"))
		require.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Contains(t, err.Error(), "getting collection info")
	})
}

package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestIngestCmd(t *testing.T) {
	setupTestServices(t, &stubLLM{})
	path := writeFile(t, t.TempDir(), "paris.txt", parisText)

	out, err := execute(t, "ingest", "--chunk-size", "100", "--chunk-overlap", "10", "-c", "atlas", path)

	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+path+": 1 chunks in 'atlas'")
}

func TestIngestCmd_JSON(t *testing.T) {
	setupTestServices(t, &stubLLM{})
	path := writeFile(t, t.TempDir(), "notes.md", "# Notes\n\n"+parisText)

	out, err := execute(t, "ingest", "--json", path)
	require.NoError(t, err)

	var summaries []ingestSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, domain.DefaultCollection, summaries[0].Collection)
	assert.Equal(t, 1, summaries[0].Chunks)
	assert.Len(t, summaries[0].ChunkIDs, 1)
	assert.Empty(t, summaries[0].Error)
}

func TestIngestCmd_Replace(t *testing.T) {
	setupTestServices(t, &stubLLM{})
	path := writeFile(t, t.TempDir(), "paris.txt", parisText)

	_, err := execute(t, "ingest", path)
	require.NoError(t, err)
	resetFlags(rootCmd)
	_, err = execute(t, "ingest", "--replace", path)
	require.NoError(t, err)

	info, err := collectionService.CollectionInfo(t.Context(), domain.DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, info.DocumentCount)
}

func TestIngestCmd_Manifest(t *testing.T) {
	setupTestServices(t, &stubLLM{})
	dir := t.TempDir()
	writeFile(t, dir, "docs/paris.txt", parisText)
	writeFile(t, dir, "docs/faq.md", "# FAQ\n\nAsk anything.")
	manifest := writeFile(t, dir, "manifest.yaml", `collection: handbook
chunk_size: 200
chunk_overlap: 20
documents:
  - path: docs/paris.txt
    metadata:
      team: travel
  - path: docs/faq.md
    collection: faq
`)

	out, err := execute(t, "ingest", "-m", manifest)

	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "docs/paris.txt")+": 1 chunks in 'handbook'")
	assert.Contains(t, out, filepath.Join(dir, "docs/faq.md")+": 1 chunks in 'faq'")

	results, err := searchService.Search(t.Context(), "capital", domain.SearchOptions{Collection: "handbook", TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "travel", results[0].Chunk.Metadata["team"])
}

func TestIngestCmd_ManifestEntryWithoutPath(t *testing.T) {
	setupTestServices(t, &stubLLM{})
	manifest := writeFile(t, t.TempDir(), "manifest.yaml", "documents:\n  - collection: x\n")

	_, err := execute(t, "ingest", "--manifest", manifest)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "manifest entry 1 has no path")
}

func TestIngestCmd_Failures(t *testing.T) {
	tests := []struct {
		name    string
		args    func(dir string) []string
		wantErr string
		wantOut string
	}{
		{
			name:    "no documents",
			args:    func(string) []string { return nil },
			wantErr: "no documents given",
		},
		{
			name:    "missing file",
			args:    func(dir string) []string { return []string{filepath.Join(dir, "missing.txt")} },
			wantErr: "1 of 1 documents failed",
			wantOut: "✗",
		},
		{
			name: "unsupported type",
			args: func(dir string) []string {
				return []string{writeFile(t, dir, "data.bin", "\x00\x01")}
			},
			wantErr: "1 of 1 documents failed",
		},
		{
			name: "chunk size out of range",
			args: func(dir string) []string {
				return []string{"--chunk-size", "50", writeFile(t, dir, "a.txt", parisText)}
			},
			wantErr: "1 of 1 documents failed",
			wantOut: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestServices(t, &stubLLM{})

			out, err := execute(t, append([]string{"ingest"}, tt.args(t.TempDir())...)...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

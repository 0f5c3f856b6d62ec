package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Text         string `json:"text" jsonschema:"the plain text to chunk and store"`
	SourceID     string `json:"source_id" jsonschema:"identifier of the document the text came from"`
	Collection   string `json:"collection,omitempty" jsonschema:"collection to store into (default: default)"`
	ChunkSize    int    `json:"chunk_size,omitempty" jsonschema:"maximum chunk size in characters (default 500)"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty" jsonschema:"characters shared by neighbouring chunks (default 50)"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	SourceID   string   `json:"source_id"`
	Collection string   `json:"collection"`
	Count      int      `json:"count"`
	ChunkIDs   []string `json:"chunk_ids"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"the text to find similar chunks for"`
	Collection string `json:"collection,omitempty" jsonschema:"collection to search (default: default)"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID    string  `json:"chunk_id"`
	SourceID   string  `json:"source_id"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question      string   `json:"question" jsonschema:"the question to answer"`
	Collection    string   `json:"collection,omitempty" jsonschema:"collection to answer from (default: default)"`
	TopK          int      `json:"top_k,omitempty" jsonschema:"number of chunks to consider (default 3)"`
	Threshold     *float64 `json:"similarity_threshold,omitempty" jsonschema:"minimum score for a chunk to count as relevant"`
	AllowFallback bool     `json:"allow_fallback,omitempty" jsonschema:"answer without documents when they do not contain the answer"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string               `json:"answer"`
	Source    string               `json:"source"`
	HasAnswer bool                 `json:"has_answer"`
	Sources   []domain.SourceChunk `json:"sources"`
}

// DeleteInput is the input schema for the delete tool.
type DeleteInput struct {
	Collection string `json:"collection,omitempty" jsonschema:"collection to delete from (default: default)"`
	ChunkID    string `json:"chunk_id,omitempty" jsonschema:"id of a single chunk to delete"`
	SourceID   string `json:"source_id,omitempty" jsonschema:"delete every chunk of this source"`
}

// DeleteOutput is the output schema for the delete tool.
type DeleteOutput struct {
	Collection string `json:"collection"`
	Deleted    int    `json:"deleted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	destructive := true

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Rank the chunks of a collection by similarity to a query and return them with their scores",
		Annotations: &mcp.ToolAnnotations{Title: "Search chunks", ReadOnlyHint: true},
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ingest",
		Description: "Split plain text into overlapping chunks and store them in a collection " +
			"under source_id. Re-ingesting a source adds new chunks; delete the old ones first",
		Annotations: &mcp.ToolAnnotations{Title: "Ingest text"},
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question from the most similar chunks. The result names its source: " +
			"document, generative (only with allow_fallback), none or error",
		Annotations: &mcp.ToolAnnotations{Title: "Ask a question", ReadOnlyHint: true},
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete",
		Description: "Delete one chunk by chunk_id, or every chunk of a source_id. Give exactly one",
		Annotations: &mcp.ToolAnnotations{Title: "Delete chunks", DestructiveHint: &destructive, IdempotentHint: true},
	}, s.handleDelete)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	opts := domain.SearchOptions{Collection: input.Collection, TopK: topK}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			ChunkID:    results[i].Chunk.ID,
			SourceID:   results[i].Chunk.SourceID,
			ChunkIndex: results[i].Chunk.Index,
			Score:      results[i].Score,
			Content:    results[i].Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, fmt.Errorf("ingest: %w", errNotConfigured)
	}

	res, err := s.ports.Ingest.Ingest(ctx, domain.IngestRequest{
		Text:         input.Text,
		SourceID:     input.SourceID,
		Collection:   input.Collection,
		ChunkSize:    input.ChunkSize,
		ChunkOverlap: input.ChunkOverlap,
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	output := IngestOutput{
		SourceID:   res.SourceID,
		Collection: res.Collection,
		Count:      res.Count,
		ChunkIDs:   make([]string, len(res.Chunks)),
	}
	for i := range res.Chunks {
		output.ChunkIDs[i] = res.Chunks[i].ID
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Questions == nil {
		return nil, AskOutput{}, fmt.Errorf("ask: %w", errNotConfigured)
	}

	qa, err := s.ports.Questions.Ask(ctx, domain.QuestionRequest{
		Question:            input.Question,
		Collection:          input.Collection,
		TopK:                input.TopK,
		SimilarityThreshold: input.Threshold,
		AllowFallback:       input.AllowFallback,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:    qa.Answer.Answer,
		Source:    string(qa.Answer.Source),
		HasAnswer: qa.HasAnswer,
		Sources:   qa.Sources,
	}, nil
}

// handleDelete handles the delete tool invocation. Exactly one of chunk_id
// and source_id must be given.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	if s.ports.Collections == nil {
		return nil, DeleteOutput{}, fmt.Errorf("delete: %w", errNotConfigured)
	}

	chunkID := strings.TrimSpace(input.ChunkID)
	sourceID := strings.TrimSpace(input.SourceID)
	if (chunkID == "") == (sourceID == "") {
		return nil, DeleteOutput{}, fmt.Errorf("%w: exactly one of chunk_id or source_id is required",
			domain.ErrValidation)
	}

	var (
		n   int
		err error
	)
	if chunkID != "" {
		n, err = s.ports.Collections.DeleteByID(ctx, chunkID, input.Collection)
	} else {
		n, err = s.ports.Collections.DeleteBySource(ctx, sourceID, input.Collection)
	}
	if err != nil {
		return nil, DeleteOutput{}, err
	}

	return nil, DeleteOutput{
		Collection: domain.CollectionOrDefault(input.Collection),
		Deleted:    n,
	}, nil
}

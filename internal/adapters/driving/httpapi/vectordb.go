package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ChunkInfo describes one stored chunk in an upload response.
type ChunkInfo struct {
	ChunkID    string         `json:"chunk_id"`
	ChunkIndex int            `json:"chunk_index"`
	Content    string         `json:"content"`
	StartChar  int            `json:"start_char"`
	EndChar    int            `json:"end_char"`
	Metadata   map[string]any `json:"metadata"`
}

// AddDocumentResponse is returned by POST /vectordb/add-document.
type AddDocumentResponse struct {
	Filename       string      `json:"filename"`
	CollectionName string      `json:"collection_name"`
	TotalChunks    int         `json:"total_chunks"`
	Chunks         []ChunkInfo `json:"chunks"`
	Success        bool        `json:"success"`
	Message        string      `json:"message"`
}

// QueryRequest is the body of POST /vectordb/query.
type QueryRequest struct {
	Query          string `json:"query"`
	CollectionName string `json:"collection_name"`
	TopK           int    `json:"top_k"`
}

// QueryResult is one ranked chunk in a query response.
type QueryResult struct {
	ChunkID  string         `json:"chunk_id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// QueryResponse is returned by POST /vectordb/query.
type QueryResponse struct {
	Query          string        `json:"query"`
	Answer         string        `json:"answer"`
	AnswerSource   string        `json:"answer_source"`
	FoundInDocs    bool          `json:"found_in_docs"`
	CollectionName string        `json:"collection_name"`
	Results        []QueryResult `json:"results"`
	TotalResults   int           `json:"total_results"`
	Success        bool          `json:"success"`
}

// AskRequest is the body of POST /vectordb/ask.
type AskRequest struct {
	Question            string   `json:"question"`
	CollectionName      string   `json:"collection_name"`
	TopK                int      `json:"top_k"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
	AllowFallback       bool     `json:"allow_fallback"`
}

// AskResponse is returned by POST /vectordb/ask.
type AskResponse struct {
	Question       string               `json:"question"`
	Answer         string               `json:"answer"`
	AnswerSource   string               `json:"answer_source"`
	HasAnswer      bool                 `json:"has_answer"`
	Sources        []domain.SourceChunk `json:"sources"`
	CollectionName string               `json:"collection_name"`
	Success        bool                 `json:"success"`
}

// DeleteRequest is the body of DELETE /vectordb/delete-document.
// Exactly one of DocumentID and Filename must be set.
type DeleteRequest struct {
	CollectionName string `json:"collection_name"`
	DocumentID     string `json:"document_id"`
	Filename       string `json:"filename"`
}

// DeleteResponse is returned by DELETE /vectordb/delete-document.
type DeleteResponse struct {
	CollectionName string `json:"collection_name"`
	DeletedCount   int    `json:"deleted_count"`
	Success        bool   `json:"success"`
	Message        string `json:"message"`
}

// CollectionsResponse is returned by GET /vectordb/collections.
type CollectionsResponse struct {
	Collections      []string `json:"collections"`
	TotalCollections int      `json:"total_collections"`
	Success          bool     `json:"success"`
}

// CollectionInfoResponse is returned by GET /vectordb/collections/{name}.
type CollectionInfoResponse struct {
	CollectionName string `json:"collection_name"`
	DocumentCount  int    `json:"document_count"`
	Success        bool   `json:"success"`
	Message        string `json:"message"`
}

func (s *Server) addDocument(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r, "file")
	if err != nil {
		respondServiceError(w, err)
		return
	}

	size, err := formInt(r, "chunk_size", domain.DefaultChunkSize)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	overlap, err := formInt(r, "chunk_overlap", domain.DefaultChunkOverlap)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	res, err := s.ports.Ingest.IngestDocument(r.Context(), up.rawDocument(), driving.IngestOptions{
		Collection:   r.FormValue("collection_name"),
		ChunkSize:    size,
		ChunkOverlap: overlap,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	chunks := make([]ChunkInfo, len(res.Chunks))
	for i, c := range res.Chunks {
		chunks[i] = ChunkInfo{
			ChunkID:    c.ID,
			ChunkIndex: c.Index,
			Content:    c.Content,
			StartChar:  c.StartChar,
			EndChar:    c.EndChar,
			Metadata:   c.Metadata,
		}
	}

	respond(w, http.StatusOK, AddDocumentResponse{
		Filename:       up.Name,
		CollectionName: res.Collection,
		TotalChunks:    res.Count,
		Chunks:         chunks,
		Success:        true,
		Message:        fmt.Sprintf("Successfully added %d chunks to collection '%s'", res.Count, res.Collection),
	})
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	collection := domain.CollectionOrDefault(req.CollectionName)
	results, answer, err := s.ports.Questions.Query(r.Context(), req.Query, domain.SearchOptions{
		Collection: collection,
		TopK:       req.TopK,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]QueryResult, len(results))
	for i, res := range results {
		out[i] = QueryResult{
			ChunkID:  res.Chunk.ID,
			Content:  res.Chunk.Content,
			Score:    res.Score,
			Metadata: res.Chunk.Metadata,
		}
	}

	respond(w, http.StatusOK, QueryResponse{
		Query:          req.Query,
		Answer:         answer.Answer,
		AnswerSource:   answer.Source.String(),
		FoundInDocs:    answer.Grounded,
		CollectionName: collection,
		Results:        out,
		TotalResults:   len(out),
		Success:        true,
	})
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	qa, err := s.ports.Questions.Ask(r.Context(), domain.QuestionRequest{
		Question:            req.Question,
		Collection:          req.CollectionName,
		TopK:                req.TopK,
		SimilarityThreshold: req.SimilarityThreshold,
		AllowFallback:       req.AllowFallback,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respond(w, http.StatusOK, AskResponse{
		Question:       qa.Question,
		Answer:         qa.Answer.Answer,
		AnswerSource:   qa.Answer.Source.String(),
		HasAnswer:      qa.HasAnswer,
		Sources:        qa.Sources,
		CollectionName: qa.Collection,
		Success:        true,
	})
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	id := strings.TrimSpace(req.DocumentID)
	filename := strings.TrimSpace(req.Filename)
	if id == "" && filename == "" {
		respondError(w, http.StatusBadRequest, errors.New("either document_id or filename must be provided"))
		return
	}
	if id != "" && filename != "" {
		respondError(w, http.StatusBadRequest, errors.New("only one of document_id or filename may be provided"))
		return
	}

	collection := domain.CollectionOrDefault(req.CollectionName)

	var (
		n   int
		err error
	)
	if id != "" {
		n, err = s.ports.Collections.DeleteByID(r.Context(), id, collection)
	} else {
		n, err = s.ports.Collections.DeleteBySource(r.Context(), filename, collection)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respond(w, http.StatusOK, DeleteResponse{
		CollectionName: collection,
		DeletedCount:   n,
		Success:        n > 0,
		Message:        fmt.Sprintf("Deleted %d document(s) from collection '%s'", n, collection),
	})
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	names, err := s.ports.Collections.ListCollections(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	respond(w, http.StatusOK, CollectionsResponse{
		Collections:      names,
		TotalCollections: len(names),
		Success:          true,
	})
}

func (s *Server) collectionInfo(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	info, err := s.ports.Collections.CollectionInfo(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !info.Exists {
		respondError(w, http.StatusNotFound, fmt.Errorf("collection '%s' not found", name))
		return
	}

	respond(w, http.StatusOK, CollectionInfoResponse{
		CollectionName: name,
		DocumentCount:  info.DocumentCount,
		Success:        true,
		Message:        fmt.Sprintf("Collection '%s' contains %d chunks", name, info.DocumentCount),
	})
}

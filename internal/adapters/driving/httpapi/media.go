package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// VoiceResult is one ranked chunk in a voice response.
type VoiceResult struct {
	Chunk           string         `json:"chunk"`
	Metadata        map[string]any `json:"metadata"`
	SimilarityScore float64        `json:"similarity_score"`
}

// VoiceQueryResponse is returned by POST /voice/query.
type VoiceQueryResponse struct {
	TranscribedText string        `json:"transcribed_text"`
	Query           string        `json:"query"`
	Answer          string        `json:"answer"`
	CollectionName  string        `json:"collection_name"`
	Results         []VoiceResult `json:"results"`
	TotalResults    int           `json:"total_results"`
	Source          string        `json:"source"`
	Success         bool          `json:"success"`
	Message         string        `json:"message"`
}

// VoiceHealthResponse is returned by GET /voice/health.
type VoiceHealthResponse struct {
	Status                string   `json:"status"`
	Message               string   `json:"message"`
	VoiceSTTAvailable     bool     `json:"voice_stt_available"`
	RAGAvailable          bool     `json:"rag_available"`
	SupportedAudioFormats []string `json:"supported_audio_formats"`
}

// SummaryResponse is returned by the /ocr/summarize routes.
type SummaryResponse struct {
	Filename   string `json:"filename"`
	Summary    string `json:"summary"`
	TotalPages int    `json:"total_pages,omitempty"`
	Success    bool   `json:"success"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status                 string `json:"status"`
	GenerativeAvailable    bool   `json:"generative_available"`
	TranscriptionAvailable bool   `json:"transcription_available"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, HealthResponse{
		Status:                 "healthy",
		GenerativeAvailable:    s.ports.Health.Generative,
		TranscriptionAvailable: s.ports.Health.Transcription,
	})
}

func (s *Server) voiceQuery(w http.ResponseWriter, r *http.Request) {
	if s.ports.Voice == nil {
		respondError(w, http.StatusServiceUnavailable, errors.New("voice queries are not configured"))
		return
	}

	up, err := readUpload(w, r, "audio_file")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	topK, err := formInt(r, "top_k", domain.DefaultTopK)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	va, err := s.ports.Voice.Ask(r.Context(), up.Content, up.Name, domain.SearchOptions{
		Collection: r.FormValue("collection_name"),
		TopK:       topK,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	results := make([]VoiceResult, len(va.Results))
	for i, res := range va.Results {
		results[i] = VoiceResult{
			Chunk:           res.Chunk.Content,
			Metadata:        res.Chunk.Metadata,
			SimilarityScore: res.Score,
		}
	}

	respond(w, http.StatusOK, VoiceQueryResponse{
		TranscribedText: va.Transcript,
		Query:           va.Transcript,
		Answer:          va.Answer.Answer,
		CollectionName:  va.Collection,
		Results:         results,
		TotalResults:    len(results),
		Source:          va.Answer.Source.String(),
		Success:         va.Answer.Source != domain.SourceError,
		Message:         va.Message,
	})
}

func (s *Server) voiceHealth(w http.ResponseWriter, _ *http.Request) {
	resp := VoiceHealthResponse{
		Status:                "healthy",
		Message:               "Voice query service is ready",
		VoiceSTTAvailable:     s.ports.Voice != nil && s.ports.Health.Transcription,
		RAGAvailable:          true,
		SupportedAudioFormats: []string{},
	}
	if s.ports.Voice != nil {
		resp.SupportedAudioFormats = s.ports.Voice.SupportedFormats()
	}
	if !resp.VoiceSTTAvailable {
		resp.Status = "degraded"
		resp.Message = "Speech-to-text is not configured"
	}

	respond(w, http.StatusOK, resp)
}

func (s *Server) summarizeImage(w http.ResponseWriter, r *http.Request) {
	s.summarizeUpload(w, r, func(u *upload) error {
		if !strings.HasPrefix(u.rawDocument().ContentType(), "image/") {
			return fmt.Errorf("%w: file must be an image", domain.ErrValidation)
		}
		return nil
	})
}

func (s *Server) summarizePDF(w http.ResponseWriter, r *http.Request) {
	s.summarizeUpload(w, r, func(u *upload) error {
		if strings.ToLower(filepath.Ext(u.Name)) != ".pdf" {
			return fmt.Errorf("%w: file must be a PDF", domain.ErrValidation)
		}
		return nil
	})
}

func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	s.summarizeUpload(w, r, nil)
}

// summarizeUpload reads the "file" field, applies check and returns the
// document's summary.
func (s *Server) summarizeUpload(w http.ResponseWriter, r *http.Request, check func(*upload) error) {
	if s.ports.Extraction == nil {
		respondError(w, http.StatusServiceUnavailable, errors.New("document summaries are not configured"))
		return
	}

	up, err := readUpload(w, r, "file")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if check != nil {
		if err := check(up); err != nil {
			respondServiceError(w, err)
			return
		}
	}

	summary, err := s.ports.Extraction.Summarize(r.Context(), up.rawDocument())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respond(w, http.StatusOK, SummaryResponse{
		Filename:   summary.Name,
		Summary:    summary.Summary,
		TotalPages: summary.TotalPages,
		Success:    true,
	})
}

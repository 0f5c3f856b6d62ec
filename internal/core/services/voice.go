package services

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure VoiceService implements the interface.
var _ driving.VoiceService = (*VoiceService)(nil)

// audioFormats are the extensions accepted for spoken questions.
var audioFormats = []string{".mp3", ".wav", ".m4a", ".ogg", ".flac", ".webm"}

// Messages reported alongside a voice answer.
const (
	voiceMessageDocument   = "Answer generated from document collection"
	voiceMessageGenerative = "No relevant documents found. Answer generated using the language model directly."
	voiceMessageNone       = "No relevant documents found."
	voiceMessageWarning    = "Answer generation completed with warnings"
)

// VoiceService answers spoken questions: transcribe, search, resolve.
type VoiceService struct {
	transcriber driven.Transcriber
	search      driving.SearchService
	resolver    driving.AnswerResolver
}

// NewVoiceService creates a voice service. transcriber may be nil, in which
// case Ask fails with domain.ErrCollaboratorUnavailable.
func NewVoiceService(
	transcriber driven.Transcriber,
	search driving.SearchService,
	resolver driving.AnswerResolver,
) *VoiceService {
	return &VoiceService{
		transcriber: transcriber,
		search:      search,
		resolver:    resolver,
	}
}

// SupportedFormats lists accepted audio extensions.
func (s *VoiceService) SupportedFormats() []string {
	return slices.Clone(audioFormats)
}

// Ask transcribes audio and answers the transcript with fallback enabled.
func (s *VoiceService) Ask(
	ctx context.Context,
	audio []byte,
	filename string,
	opts domain.SearchOptions,
) (*domain.VoiceAnswer, error) {
	logger.Section("Voice")

	if !slices.Contains(audioFormats, strings.ToLower(filepath.Ext(filename))) {
		return nil, fmt.Errorf("%w: unsupported audio format, supported formats: %s",
			domain.ErrUnsupportedType, strings.Join(audioFormats, ", "))
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio file", domain.ErrValidation)
	}
	if opts.TopK == 0 {
		opts.TopK = domain.DefaultTopK
	}
	if opts.TopK < 1 || opts.TopK > domain.MaxTopK {
		return nil, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrValidation, domain.MaxTopK)
	}
	if s.transcriber == nil {
		return nil, fmt.Errorf("%w: transcription is not configured", domain.ErrCollaboratorUnavailable)
	}
	opts.Collection = domain.CollectionOrDefault(opts.Collection)

	transcript, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", filename, classify(err))
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, fmt.Errorf("%w: no speech detected in the audio file", domain.ErrValidation)
	}
	logger.Debug("Transcript: %q", transcript)

	results, err := s.search.Search(ctx, transcript, opts)
	if err != nil {
		return nil, err
	}

	answer := s.resolver.Resolve(ctx, transcript, results, true)

	return &domain.VoiceAnswer{
		Transcript: transcript,
		Collection: opts.Collection,
		Results:    results,
		Answer:     answer,
		Message:    voiceMessage(answer.Source),
	}, nil
}

func voiceMessage(source domain.SourceKind) string {
	switch source {
	case domain.SourceDocument:
		return voiceMessageDocument
	case domain.SourceGenerative:
		return voiceMessageGenerative
	case domain.SourceNone:
		return voiceMessageNone
	default:
		return voiceMessageWarning
	}
}

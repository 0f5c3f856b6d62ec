// Package audio turns speech recordings into text through a transcriber.
package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extensions lists the audio formats accepted for transcription.
var Extensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".flac", ".webm"}

// Extractor transcribes audio documents.
type Extractor struct {
	transcriber driven.Transcriber
}

// New creates an audio extractor backed by transcriber.
func New(transcriber driven.Transcriber) *Extractor {
	return &Extractor{transcriber: transcriber}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"audio/mpeg",
		"audio/mp3",
		"audio/wav",
		"audio/x-wav",
		"audio/mp4",
		"audio/x-m4a",
		"audio/ogg",
		"audio/flac",
		"audio/webm",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns the transcript of the recording.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedText, error) {
	if e.transcriber == nil {
		return nil, fmt.Errorf("%w: no transcriber configured", domain.ErrCollaboratorUnavailable)
	}
	if len(raw.Content) == 0 {
		return nil, fmt.Errorf("%w: empty audio", domain.ErrValidation)
	}

	transcript, err := e.transcriber.Transcribe(ctx, raw.Content, filename(raw))
	if err != nil {
		return nil, err
	}

	return &domain.ExtractedText{
		Text:     strings.TrimSpace(transcript),
		Title:    extractors.TitleFromName(raw.Name),
		Metadata: extractors.Metadata("audio"),
	}, nil
}

// IsSupported reports whether name has an accepted audio extension.
func IsSupported(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// filename makes sure the transcriber sees an extension it can detect the
// format from.
func filename(raw *domain.RawDocument) string {
	if IsSupported(raw.Name) {
		return filepath.Base(raw.Name)
	}
	switch raw.ContentType() {
	case "audio/wav", "audio/x-wav":
		return "audio.wav"
	case "audio/mp4", "audio/x-m4a":
		return "audio.m4a"
	case "audio/ogg":
		return "audio.ogg"
	case "audio/flac":
		return "audio.flac"
	case "audio/webm":
		return "audio.webm"
	default:
		return "audio.mp3"
	}
}

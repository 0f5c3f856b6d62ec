// Package openai transcribes speech with OpenAI's Whisper endpoint.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	llmopenai "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Transcriber implements the interface.
var _ driven.Transcriber = (*Transcriber)(nil)

// Config holds configuration for the transcriber.
type Config struct {
	APIKey  string
	BaseURL string

	// Model defaults to whisper-1.
	Model string
}

// Transcriber converts audio to text.
type Transcriber struct {
	client *openai.Client
	model  string
}

// NewTranscriber creates a Whisper transcriber.
func NewTranscriber(cfg Config) (*Transcriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required for transcription",
			domain.ErrCollaboratorUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	return &Transcriber{
		client: llmopenai.NewClient(cfg.APIKey, cfg.BaseURL),
		model:  cfg.Model,
	}, nil
}

// Transcribe uploads audio and returns the trimmed transcript.
// filename must carry the audio extension; Whisper sniffs the format from it.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if filename == "" {
		filename = "audio.wav"
	}
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filepath.Base(filename),
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("%w: whisper: %w", domain.ErrCollaboratorUnavailable, err)
	}
	return strings.TrimSpace(resp.Text), nil
}

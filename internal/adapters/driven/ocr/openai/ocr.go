// Package openai recognises text in images with an OpenAI vision model.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	llmopenai "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure OCREngine implements the interfaces.
var (
	_ driven.OCREngine        = (*OCREngine)(nil)
	_ driven.PromptStoreAware = (*OCREngine)(nil)
)

// DefaultModel is a vision-capable chat model.
const DefaultModel = "gpt-4o-mini"

// noTextMarker is what the prompt asks the model to reply for blank images.
const noTextMarker = "NO_TEXT"

const defaultOCRPrompt = `Transcribe all text visible in this image exactly as written.
Preserve line breaks. Do not describe the image or add commentary.
If the image contains no text, reply with exactly: ` + noTextMarker

// Config holds configuration for the OCR engine.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OCREngine sends images to a vision model and returns the transcription.
type OCREngine struct {
	client      *openai.Client
	model       string
	promptStore driven.PromptStore
}

// NewOCREngine creates an OCR engine.
func NewOCREngine(cfg Config) (*OCREngine, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required for OCR", domain.ErrCollaboratorUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &OCREngine{
		client: llmopenai.NewClient(cfg.APIKey, cfg.BaseURL),
		model:  cfg.Model,
	}, nil
}

// SetPromptStore sets the prompt store for loading a custom OCR prompt.
func (e *OCREngine) SetPromptStore(store driven.PromptStore) {
	e.promptStore = store
}

// RecognizeImage returns the text in image, or "" when there is none.
func (e *OCREngine) RecognizeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", nil
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: e.prompt()},
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailHigh},
				},
			},
		}},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai vision: %w", domain.ErrCollaboratorUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == noTextMarker {
		return "", nil
	}
	return text, nil
}

func (e *OCREngine) prompt() string {
	if e.promptStore == nil {
		return defaultOCRPrompt
	}
	p, err := e.promptStore.Load(driven.PromptOCR)
	if err != nil {
		return defaultOCRPrompt
	}
	return p
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestVoiceService_Ask(t *testing.T) {
	search := &mockSearch{results: parisResults}
	resolver := &mockResolver{answer: documentAnswer()}
	svc := NewVoiceService(&mockTranscriber{text: "  What is the capital of France?\n"}, search, resolver)

	got, err := svc.Ask(context.Background(), []byte("RIFF"), "question.WAV", domain.SearchOptions{})
	require.NoError(t, err)

	assert.Equal(t, "What is the capital of France?", got.Transcript)
	assert.Equal(t, domain.DefaultCollection, got.Collection)
	assert.Equal(t, parisResults, got.Results)
	assert.Equal(t, documentAnswer(), got.Answer)
	assert.Equal(t, voiceMessageDocument, got.Message)

	assert.Equal(t, "What is the capital of France?", search.query)
	assert.Equal(t, domain.DefaultTopK, search.opts.TopK)
	assert.True(t, resolver.allowFallback)
}

func TestVoiceService_Messages(t *testing.T) {
	tests := []struct {
		source domain.SourceKind
		want   string
	}{
		{domain.SourceDocument, voiceMessageDocument},
		{domain.SourceGenerative, voiceMessageGenerative},
		{domain.SourceNone, voiceMessageNone},
		{domain.SourceError, voiceMessageWarning},
	}

	for _, tc := range tests {
		t.Run(string(tc.source), func(t *testing.T) {
			resolver := &mockResolver{answer: domain.AnswerResult{Source: tc.source}}
			svc := NewVoiceService(&mockTranscriber{text: "hello"}, &mockSearch{}, resolver)

			got, err := svc.Ask(context.Background(), []byte("x"), "a.mp3", domain.SearchOptions{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Message)
		})
	}
}

func TestVoiceService_Errors(t *testing.T) {
	tests := []struct {
		name        string
		transcriber *mockTranscriber
		audio       []byte
		filename    string
		opts        domain.SearchOptions
		wantErr     error
	}{
		{
			name:        "unsupported format",
			transcriber: &mockTranscriber{text: "x"},
			audio:       []byte("x"),
			filename:    "notes.txt",
			wantErr:     domain.ErrUnsupportedType,
		},
		{
			name:        "empty audio",
			transcriber: &mockTranscriber{text: "x"},
			filename:    "a.wav",
			wantErr:     domain.ErrValidation,
		},
		{
			name:        "top_k out of range",
			transcriber: &mockTranscriber{text: "x"},
			audio:       []byte("x"),
			filename:    "a.wav",
			opts:        domain.SearchOptions{TopK: domain.MaxTopK + 1},
			wantErr:     domain.ErrValidation,
		},
		{
			name:        "silence",
			transcriber: &mockTranscriber{text: "  "},
			audio:       []byte("x"),
			filename:    "a.ogg",
			wantErr:     domain.ErrValidation,
		},
		{
			name:        "transcriber timeout",
			transcriber: &mockTranscriber{err: context.DeadlineExceeded},
			audio:       []byte("x"),
			filename:    "a.flac",
			wantErr:     domain.ErrCollaboratorTimeout,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolver := &mockResolver{}
			svc := NewVoiceService(tc.transcriber, &mockSearch{}, resolver)

			_, err := svc.Ask(context.Background(), tc.audio, tc.filename, tc.opts)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Zero(t, resolver.calls)
		})
	}
}

func TestVoiceService_NoTranscriber(t *testing.T) {
	svc := NewVoiceService(nil, &mockSearch{}, &mockResolver{})

	_, err := svc.Ask(context.Background(), []byte("x"), "a.m4a", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
}

func TestVoiceService_SearchError(t *testing.T) {
	boom := errors.New("index down")
	svc := NewVoiceService(&mockTranscriber{text: "hi"}, &mockSearch{err: boom}, &mockResolver{})

	_, err := svc.Ask(context.Background(), []byte("x"), "a.webm", domain.SearchOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestVoiceService_SupportedFormats(t *testing.T) {
	svc := NewVoiceService(nil, nil, nil)

	formats := svc.SupportedFormats()
	assert.Equal(t, []string{".mp3", ".wav", ".m4a", ".ogg", ".flac", ".webm"}, formats)

	formats[0] = ".exe"
	assert.Equal(t, ".mp3", svc.SupportedFormats()[0], "callers get a copy")
}

package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestNewTranscriber_RequiresKey(t *testing.T) {
	_, err := NewTranscriber(Config{})
	assert.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
}

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "question.wav", header.Filename)
		body, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "RIFF", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  What is the capital of France?\n"}`))
	}))
	defer server.Close()

	tr, err := NewTranscriber(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	text, err := tr.Transcribe(context.Background(), []byte("RIFF"), "/uploads/question.wav")
	require.NoError(t, err)
	assert.Equal(t, "What is the capital of France?", text)
}

func TestTranscribe_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer server.Close()

	tr, err := NewTranscriber(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = tr.Transcribe(context.Background(), []byte("RIFF"), "")
	assert.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
}

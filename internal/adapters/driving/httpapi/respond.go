package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Detail  string `json:"detail"`
	Success bool   `json:"success"`
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Warn("encoding response: %v", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	respond(w, status, errorResponse{Detail: err.Error()})
}

// respondServiceError maps a domain error onto its HTTP status.
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err)
}

// statusFor classifies err by the domain error it wraps.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCollaboratorTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, domain.ErrCollaboratorUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", domain.ErrValidation, err)
	}
	return nil
}

// upload is a file read from a multipart form.
type upload struct {
	Name        string
	ContentType string
	Content     []byte
}

// readUpload parses the multipart form and reads the named file field.
func readUpload(w http.ResponseWriter, r *http.Request, field string) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("%w: invalid multipart form: %w", domain.ErrValidation, err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%w: form field %q must carry a file", domain.ErrValidation, field)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: reading upload: %w", domain.ErrValidation, err)
	}

	return &upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

// rawDocument converts an upload into the domain's document type.
func (u *upload) rawDocument() *domain.RawDocument {
	return &domain.RawDocument{
		Name:     u.Name,
		MIMEType: u.ContentType,
		Content:  u.Content,
	}
}

// formInt reads an integer form value, returning def when it is absent.
func formInt(r *http.Request, key string, def int) (int, error) {
	v := r.FormValue(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrValidation, key, v)
	}
	return n, nil
}

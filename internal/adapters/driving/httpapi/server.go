package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/docqa/internal/logger"
)

// APIPrefix is the path prefix of every versioned route.
const APIPrefix = "/api/v1"

// DefaultAddr is used when no listen address is configured.
const DefaultAddr = "127.0.0.1:8000"

// maxUploadBytes bounds multipart request bodies.
const maxUploadBytes = 50 << 20

// Server is the HTTP API server.
type Server struct {
	ports  *Ports
	server *http.Server
}

// NewServer creates a server listening on addr. A bare port such as "8000"
// binds to all interfaces.
func NewServer(addr string, ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	if addr == "" {
		addr = DefaultAddr
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort("0.0.0.0", addr)
	}

	s := &Server{ports: ports}

	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix(APIPrefix).Subrouter()

	api.HandleFunc("/vectordb/add-document", s.addDocument).Methods(http.MethodPost)
	api.HandleFunc("/vectordb/query", s.query).Methods(http.MethodPost)
	api.HandleFunc("/vectordb/ask", s.ask).Methods(http.MethodPost)
	api.HandleFunc("/vectordb/delete-document", s.deleteDocument).Methods(http.MethodDelete)
	api.HandleFunc("/vectordb/collections", s.listCollections).Methods(http.MethodGet)
	api.HandleFunc("/vectordb/collections/{name}", s.collectionInfo).Methods(http.MethodGet)

	api.HandleFunc("/voice/query", s.voiceQuery).Methods(http.MethodPost)
	api.HandleFunc("/voice/health", s.voiceHealth).Methods(http.MethodGet)

	api.HandleFunc("/ocr/summarize-image", s.summarizeImage).Methods(http.MethodPost)
	api.HandleFunc("/ocr/summarize-pdf", s.summarizePDF).Methods(http.MethodPost)
	api.HandleFunc("/ocr/summarize", s.summarize).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("No route matched: %s %s", r.Method, r.URL.Path)
		respondError(w, http.StatusNotFound, errors.New("not found"))
	})

	s.server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	logger.Info("Serving API on http://%s", listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Debug("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

// logRequests logs each request with its status and duration.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

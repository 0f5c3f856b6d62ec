package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

const shutdownTimeout = 5 * time.Second

// Server exposes docqa collections to MCP clients: tools to ingest, search,
// ask and delete, and resources describing the collections.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates an MCP server over ports. Only Search is required;
// tools backed by a missing port fail with errNotConfigured and the server
// instructions say so.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "docqa",
		Title:   "docqa document question answering",
		Version: Version,
	}

	s := &Server{
		ports: ports,
		server: mcp.NewServer(impl, &mcp.ServerOptions{
			Instructions: instructions(ports),
		}),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// instructions tells the client how answers are grounded and which tools
// are usable with the wired ports.
func instructions(ports *Ports) string {
	var b strings.Builder
	fmt.Fprintf(&b, "docqa stores documents as overlapping text chunks in named collections "+
		"(collection %q when none is given) and ranks them by similarity to a query.\n", domain.DefaultCollection)
	b.WriteString("Use search to see the matching chunks and their scores. ")
	b.WriteString("Use ask for an answer: its source is \"document\" when drawn from the chunks, " +
		"\"generative\" when allow_fallback let the model answer from general knowledge, " +
		"\"none\" when nothing was retrieved and \"error\" when the model failed.\n")
	fmt.Fprintf(&b, "Without fallback a grounded reply of %s means the chunks did not contain the answer.\n",
		domain.NotFoundSentinel)

	var missing []string
	if ports.Ingest == nil {
		missing = append(missing, "ingest")
	}
	if ports.Questions == nil {
		missing = append(missing, "ask")
	}
	if ports.Collections == nil {
		missing = append(missing, "delete")
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "Not available in this session: %s.\n", strings.Join(missing, ", "))
	}
	return b.String()
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("mcp: serving over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is
// cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: shutdown: %v", err)
		}
	}()

	logger.Info("mcp: listening on %s", addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

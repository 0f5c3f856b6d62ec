// Package mcp provides an MCP (Model Context Protocol) server adapter for docqa.
// It lets AI assistants ingest text into collections, search them and ask
// grounded questions over them.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// errNotConfigured is returned by tools whose port was not wired.
var errNotConfigured = errors.New("mcp: tool is not configured")

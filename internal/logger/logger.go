// Package logger is the process-wide diagnostic log for docqa.
//
// Warnings are always written. Debug, info and section output only appear in
// verbose mode (the --verbose flag), where they trace each step of the
// ingest, retrieval and answer pipeline. Output goes to stderr so that it
// never mixes with command output or the MCP stdio transport.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	quiet   bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetQuiet suppresses warnings as well. Verbose output still wins.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// SetOutput redirects log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug logs pipeline detail in verbose mode.
func Debug(format string, args ...any) {
	logf(true, "[DEBUG] ", format, args...)
}

// Info logs a notable event in verbose mode.
func Info(format string, args ...any) {
	logf(true, "[INFO] ", format, args...)
}

// Warn logs a degraded but recoverable condition.
func Warn(format string, args ...any) {
	logf(false, "[WARN] ", format, args...)
}

// Section starts a named block of verbose output.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed logs how long a step took once the returned func is called:
//
//	defer logger.Timed("embed query")()
func Timed(step string) func() {
	if !IsVerbose() {
		return func() {}
	}
	start := time.Now()
	return func() {
		Debug("%s took %s", step, time.Since(start).Round(time.Millisecond))
	}
}

// logf holds the write lock so concurrent lines never interleave.
func logf(verboseOnly bool, prefix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	switch {
	case verbose:
	case verboseOnly, quiet:
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

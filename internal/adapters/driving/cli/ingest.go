package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var (
	ingestCollection   string
	ingestChunkSize    int
	ingestChunkOverlap int
	ingestManifest     string
	ingestReplace      bool
	ingestJSON         bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Add documents to a collection",
	Long: `Extracts the text of each file, splits it into overlapping chunks and
stores the chunks in a collection. Supported formats are plain text, Markdown,
HTML, PDF, DOCX, images (OCR) and audio (transcription).

A manifest lists many documents at once:

  collection: handbook
  chunk_size: 800
  documents:
    - path: docs/onboarding.pdf
    - path: docs/faq.md
      collection: faq
      metadata:
        team: support`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestCollection, "collection", "c", "", "collection to store into (default \"default\")")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "chunk size in characters, 100-5000 (default from config)")
	ingestCmd.Flags().IntVar(&ingestChunkOverlap, "chunk-overlap", 0, "characters shared by neighbouring chunks, 0-500")
	ingestCmd.Flags().StringVarP(&ingestManifest, "manifest", "m", "", "YAML manifest listing documents to ingest")
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "remove chunks previously stored for the same file")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

// Manifest lists documents for a batch ingest.
type Manifest struct {
	Collection   string          `yaml:"collection"`
	ChunkSize    int             `yaml:"chunk_size"`
	ChunkOverlap int             `yaml:"chunk_overlap"`
	Replace      bool            `yaml:"replace"`
	Documents    []ManifestEntry `yaml:"documents"`
}

// ManifestEntry is one document in a manifest. Relative paths are resolved
// against the manifest's directory.
type ManifestEntry struct {
	Path       string         `yaml:"path"`
	Collection string         `yaml:"collection"`
	Metadata   map[string]any `yaml:"metadata"`
}

// ingestSummary is the JSON shape of one ingested file.
type ingestSummary struct {
	File       string   `json:"file"`
	Collection string   `json:"collection"`
	Chunks     int      `json:"chunks"`
	ChunkIDs   []string `json:"chunk_ids"`
	Error      string   `json:"error,omitempty"`
}

// ingestJob is one file to ingest with its effective options.
type ingestJob struct {
	path     string
	opts     driving.IngestOptions
	metadata map[string]any
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	jobs, err := ingestJobs(args)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return errors.New("no documents given: pass files or --manifest")
	}

	ctx := cmd.Context()
	summaries := make([]ingestSummary, 0, len(jobs))
	failed := 0
	for _, job := range jobs {
		summary := ingestSummary{File: job.path, Collection: domain.CollectionOrDefault(job.opts.Collection)}

		res, err := ingestFile(ctx, job)
		if err != nil {
			failed++
			summary.Error = err.Error()
		} else {
			summary.Collection = res.Collection
			summary.Chunks = res.Count
			summary.ChunkIDs = make([]string, len(res.Chunks))
			for i := range res.Chunks {
				summary.ChunkIDs[i] = res.Chunks[i].ID
			}
		}
		summaries = append(summaries, summary)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
	} else {
		for _, s := range summaries {
			if s.Error != "" {
				cmd.Printf("  ✗ %s: %s\n", s.File, s.Error)
				continue
			}
			cmd.Printf("  ✓ %s: %d chunks in '%s'\n", s.File, s.Chunks, s.Collection)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(jobs))
	}
	return nil
}

// ingestJobs combines the positional files and the manifest entries.
func ingestJobs(args []string) ([]ingestJob, error) {
	flagOpts := driving.IngestOptions{
		Collection:   ingestCollection,
		ChunkSize:    ingestChunkSize,
		ChunkOverlap: ingestChunkOverlap,
		Replace:      ingestReplace,
	}

	jobs := make([]ingestJob, 0, len(args))
	for _, path := range args {
		jobs = append(jobs, ingestJob{path: path, opts: flagOpts})
	}

	if ingestManifest == "" {
		return jobs, nil
	}

	manifest, err := loadManifest(ingestManifest)
	if err != nil {
		return nil, err
	}
	base := filepath.Dir(ingestManifest)
	for _, entry := range manifest.Documents {
		opts := driving.IngestOptions{
			Collection:   firstNonEmpty(entry.Collection, manifest.Collection, ingestCollection),
			ChunkSize:    manifest.ChunkSize,
			ChunkOverlap: manifest.ChunkOverlap,
			Replace:      manifest.Replace || ingestReplace,
		}
		if opts.ChunkSize == 0 {
			opts.ChunkSize = ingestChunkSize
			opts.ChunkOverlap = ingestChunkOverlap
		}

		path := entry.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		jobs = append(jobs, ingestJob{path: path, opts: opts, metadata: entry.Metadata})
	}
	return jobs, nil
}

// loadManifest reads and validates a YAML manifest.
func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parsing manifest %s: %w", domain.ErrValidation, path, err)
	}
	for i, entry := range m.Documents {
		if entry.Path == "" {
			return nil, fmt.Errorf("%w: manifest entry %d has no path", domain.ErrValidation, i+1)
		}
	}
	return &m, nil
}

// ingestFile reads one file and stores it under its base name.
func ingestFile(ctx context.Context, job ingestJob) (*domain.IngestResult, error) {
	content, err := os.ReadFile(job.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", job.path, err)
	}

	metadata := map[string]any{"path": job.path}
	for k, v := range job.metadata {
		metadata[k] = v
	}

	return ingestService.IngestDocument(ctx, &domain.RawDocument{
		Name:     filepath.Base(job.path),
		MIMEType: domain.MIMETypeForName(job.path),
		Content:  content,
		Metadata: metadata,
	}, job.opts)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

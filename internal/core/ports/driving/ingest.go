package driving

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// IngestOptions configures an ingestion run.
type IngestOptions struct {
	// Replace removes existing entries of each document before adding.
	Replace bool
}

// FileResult is the outcome of ingesting one file.
type FileResult struct {
	Path     string `json:"path"`
	Document string `json:"document"`
	Pages    int    `json:"pages"`
	Chunks   int    `json:"chunks"`
	Removed  int    `json:"removed,omitempty"`
	Err      error  `json:"-"`
}

// Failed reports whether the file was skipped.
func (r FileResult) Failed() bool {
	return r.Err != nil
}

// IngestReport summarises an ingestion run.
type IngestReport struct {
	Files []FileResult         `json:"files"`
	Stats domain.DocumentStats `json:"stats"`
}

// Failures returns the results of files that could not be ingested.
func (r IngestReport) Failures() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Failed() {
			out = append(out, f)
		}
	}
	return out
}

// IngestService loads files into the vector index.
type IngestService interface {
	// IngestFiles extracts, chunks, embeds and indexes each file.
	// A failing file is recorded in the report and does not stop the batch.
	// An error is returned only when nothing could be attempted.
	IngestFiles(ctx context.Context, paths []string, opts IngestOptions) (IngestReport, error)

	// ExtractChunks extracts and chunks a file without indexing it.
	ExtractChunks(ctx context.Context, path string) ([]domain.Chunk, error)
}

package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs files through extract, chunk, embed and index.
// Runs are serialised so the index only ever sees one writer.
type IngestService struct {
	mu         sync.Mutex
	extractors driven.ExtractorRegistry
	chunker    driven.Chunker
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
}

// NewIngestService creates an ingest service.
func NewIngestService(
	extractors driven.ExtractorRegistry,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
) *IngestService {
	return &IngestService{
		extractors: extractors,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
	}
}

// IngestFiles ingests each path in order. A file that fails is recorded in
// the report and the batch continues.
func (s *IngestService) IngestFiles(
	ctx context.Context, paths []string, opts driving.IngestOptions,
) (driving.IngestReport, error) {
	if len(paths) == 0 {
		return driving.IngestReport{}, fmt.Errorf("%w: no files to ingest", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Section("Ingestion")
	logger.Info("Ingesting %d file(s), replace=%t", len(paths), opts.Replace)
	start := time.Now()

	report := driving.IngestReport{Files: make([]driving.FileResult, 0, len(paths))}
	var indexed []domain.Chunk

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			report.Stats = domain.ComputeDocumentStats(indexed)
			return report, err
		}

		result, chunks := s.ingestFile(ctx, path, opts)
		if result.Failed() {
			logger.Warn("Skipping %s: %v", path, result.Err)
		} else {
			indexed = append(indexed, chunks...)
		}
		report.Files = append(report.Files, result)
	}

	report.Stats = domain.ComputeDocumentStats(indexed)
	logger.Info("Ingested %d chunk(s) from %d document(s) in %s, %d failure(s)",
		report.Stats.TotalChunks, report.Stats.Documents,
		time.Since(start).Round(time.Millisecond), len(report.Failures()))
	return report, nil
}

// ExtractChunks extracts and chunks a file without touching the index.
func (s *IngestService) ExtractChunks(ctx context.Context, path string) ([]domain.Chunk, error) {
	_, chunks, err := s.extract(ctx, path)
	return chunks, err
}

// ingestFile processes one file. The returned chunks are those written to
// the index.
func (s *IngestService) ingestFile(
	ctx context.Context, path string, opts driving.IngestOptions,
) (driving.FileResult, []domain.Chunk) {
	result := driving.FileResult{Path: path, Document: filepath.Base(path)}
	logger.Debug("File: %s", path)

	pages, chunks, err := s.extract(ctx, path)
	result.Pages = pages
	if err != nil {
		result.Err = err
		return result, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		result.Err = fmt.Errorf("embed chunks: %w", err)
		return result, nil
	}
	if len(vectors) != len(chunks) {
		result.Err = fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingUnavailable, len(vectors), len(chunks))
		return result, nil
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.IndexEntry{
			ChunkID:   c.ChunkID,
			Embedding: vectors[i],
			Text:      c.Text,
			Metadata:  c.Metadata(),
		}
	}
	if opts.Replace {
		removed, err := s.index.ReplaceDocument(ctx, s.embedder.ModelName(), result.Document, entries)
		if err != nil {
			result.Err = fmt.Errorf("replace previous entries: %w", err)
			return result, nil
		}
		result.Removed = removed
		logger.Debug("  replaced %d previous entries", removed)
	} else if err := s.index.Add(ctx, s.embedder.ModelName(), entries); err != nil {
		result.Err = fmt.Errorf("index chunks: %w", err)
		return result, nil
	}

	result.Chunks = len(chunks)
	logger.Debug("  %d page(s), %d chunk(s)", result.Pages, result.Chunks)
	return result, chunks
}

// extract reads and chunks one file, returning the page count.
func (s *IngestService) extract(ctx context.Context, path string) (int, []domain.Chunk, error) {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	if info.IsDir() {
		return 0, nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	extractor, err := s.extractors.ForFile(name)
	if err != nil {
		return 0, nil, err
	}

	pages, err := extractor.Extract(ctx, path, name)
	if err != nil {
		return 0, nil, err
	}

	chunks := s.chunker.ChunkPages(name, extractor.SourceType(), pages)
	if len(chunks) == 0 {
		return len(pages), nil, fmt.Errorf("%w: no text found in %s", domain.ErrExtraction, name)
	}
	return len(pages), chunks, nil
}

package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourceType identifies the file format a chunk was extracted from.
type SourceType string

// Supported source types.
const (
	SourceTypePDF  SourceType = "pdf"
	SourceTypeDOCX SourceType = "docx"
	SourceTypeTXT  SourceType = "txt"
)

// IsValid returns true if the source type is recognised.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypePDF, SourceTypeDOCX, SourceTypeTXT:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// SourceTypeFromFilename derives the source type from a file extension.
// The returned extension is lower-cased and includes the leading dot.
func SourceTypeFromFilename(filename string) (SourceType, string) {
	ext := strings.ToLower(filepath.Ext(filename))
	t := SourceType(strings.TrimPrefix(ext, "."))
	if !t.IsValid() {
		return "", ext
	}
	return t, ext
}

// Page is the text of one page produced by an extractor.
// Number is one-based; formats without pagination report a single page.
type Page struct {
	Text       string
	Number     int
	TotalPages int
}

// Chunk is a bounded span of document text with attached provenance.
// Chunks are created at ingestion time and are immutable thereafter.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// Document is the original filename.
	Document string

	// Page is the one-based page the chunk was cut from.
	Page int

	// ChunkID is the deterministic primary key, see ChunkID.
	ChunkID string

	// SourceType is the format of the originating file.
	SourceType SourceType
}

// Metadata returns the provenance stored alongside the chunk in the index.
func (c Chunk) Metadata() ChunkMetadata {
	return ChunkMetadata{
		Document:   c.Document,
		Page:       c.Page,
		ChunkID:    c.ChunkID,
		SourceType: c.SourceType,
	}
}

// ChunkID builds the identifier "<document>_page<page>_chunk<index>".
// Re-ingesting a document yields the same ids, so entries are overwritten
// rather than duplicated.
func ChunkID(document string, page, index int) string {
	return fmt.Sprintf("%s_page%d_chunk%d", document, page, index)
}

// DocumentStats summarises a set of chunks.
type DocumentStats struct {
	TotalChunks     int     `json:"total_chunks"`
	TotalCharacters int     `json:"total_characters"`
	AvgChunkSize    float64 `json:"avg_chunk_size"`
	Documents       int     `json:"documents"`
}

// ComputeDocumentStats counts chunks, characters and distinct documents.
func ComputeDocumentStats(chunks []Chunk) DocumentStats {
	stats := DocumentStats{TotalChunks: len(chunks)}
	docs := make(map[string]struct{})
	for _, c := range chunks {
		stats.TotalCharacters += len([]rune(c.Text))
		docs[c.Document] = struct{}{}
	}
	if len(chunks) > 0 {
		stats.AvgChunkSize = float64(stats.TotalCharacters) / float64(len(chunks))
	}
	stats.Documents = len(docs)
	return stats
}

package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file extension no extractor handles.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrExtraction indicates a supported file could not be read.
	ErrExtraction = errors.New("extraction failed")

	// ErrLLMUnavailable indicates the language model backend is not reachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates no vector index could be opened.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// Index Errors.

	// ErrIncompatibleStore indicates the on-disk store is corrupted or was
	// written by a newer schema.
	ErrIncompatibleStore = errors.New("incompatible vector store")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// dimension the index was bound to.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingModelMismatch indicates an add with a different embedding
	// model than the one the index was built with.
	ErrEmbeddingModelMismatch = errors.New("embedding model mismatch")
)

// Package domain defines the core business entities for DocuMind.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Page: Text extracted from one page of an uploaded file
//   - Chunk: A bounded span of page text with provenance, the unit indexed
//   - IndexEntry / SearchResult: What the vector index stores and returns
//   - Answer / Citation / ChatTurn: What the question-answering flow produces
//   - WorkerAvailability: The generation worker's one-time probe outcome
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

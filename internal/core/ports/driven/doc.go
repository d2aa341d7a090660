// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Extractor / ExtractorRegistry: Read page text out of uploaded files
//   - EmbeddingService: Maps text to fixed-dimension vectors
//   - VectorIndex: Persistent (id, vector, text, metadata) store with top-k query
//   - GenerationWorker: Isolated boundary to the language model
//   - ConfigStore: Application configuration
//
// # Supporting Interfaces
//
//   - LLMService: Language model client, used only inside the worker process
//   - CommandRunner: Launches external programs (worker, pdftotext)
//   - PromptStore: User-editable prompt templates
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven

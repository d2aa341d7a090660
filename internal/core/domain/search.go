package domain

// ChunkMetadata is the provenance persisted with every index entry.
type ChunkMetadata struct {
	Document   string     `json:"document"`
	Page       int        `json:"page,omitempty"`
	ChunkID    string     `json:"chunk_id"`
	SourceType SourceType `json:"source_type,omitempty"`
}

// IndexEntry is one record in the vector index.
type IndexEntry struct {
	ChunkID   string
	Embedding []float32
	Text      string
	Metadata  ChunkMetadata
}

// SearchResult is a single nearest-neighbour hit. Lower distance is closer.
type SearchResult struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float64       `json:"distance"`
}

// IndexStats describes the contents of a vector index.
type IndexStats struct {
	Count          int    `json:"count"`
	Name           string `json:"name"`
	Path           string `json:"path,omitempty"`
	Dimension      int    `json:"dimension,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

// RecoveryStep records which step of the open chain produced the index.
type RecoveryStep string

// Steps of the index open chain, in the order they are attempted.
const (
	RecoveryPrimary        RecoveryStep = "primary"
	RecoveryReinitialized  RecoveryStep = "reinitialized"
	RecoveryFreshNamespace RecoveryStep = "fresh_namespace"

	// RecoveryInMemory means no on-disk store could be opened and entries
	// will not outlive the process.
	RecoveryInMemory RecoveryStep = "in_memory"
)

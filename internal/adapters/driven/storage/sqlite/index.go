package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/custodia-labs/documind/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/logger"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// binding is the dimension and model a collection is bound to.
type binding struct {
	dimension int
	model     string
}

// Add upserts entries. The first add to an empty collection binds its
// dimension and embedding model.
func (v *VectorIndex) Add(ctx context.Context, model string, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := v.write(ctx, model, "", entries)
	return err
}

// ReplaceDocument deletes a document's entries and upserts entries in a
// single transaction.
func (v *VectorIndex) ReplaceDocument(
	ctx context.Context, model, document string, entries []domain.IndexEntry,
) (int, error) {
	if document == "" {
		return 0, fmt.Errorf("%w: empty document name", domain.ErrInvalidInput)
	}
	return v.write(ctx, model, document, entries)
}

// write runs one write transaction. A non-empty document has its entries
// deleted before entries are upserted. Returns the number deleted.
func (v *VectorIndex) write(
	ctx context.Context, model, document string, entries []domain.IndexEntry,
) (int, error) {
	dim, err := validateEntries(entries)
	if err != nil {
		return 0, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	removed := 0
	if document != "" {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM entries WHERE collection = ? AND document = ?
		`, v.collection, document)
		if err != nil {
			return 0, fmt.Errorf("deleting document %s: %w", document, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("counting deleted entries: %w", err)
		}
		removed = int(n)
	}

	if len(entries) > 0 {
		if err := v.upsert(ctx, tx, model, dim, entries); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing entries: %w", err)
	}
	return removed, nil
}

// validateEntries checks ids and dimensions and returns the batch dimension.
func validateEntries(entries []domain.IndexEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	dim := len(entries[0].Embedding)
	if dim == 0 {
		return 0, fmt.Errorf("%w: entry %s has no embedding", domain.ErrInvalidInput, entries[0].ChunkID)
	}
	for _, e := range entries {
		if e.ChunkID == "" {
			return 0, fmt.Errorf("%w: entry without chunk id", domain.ErrInvalidInput)
		}
		if len(e.Embedding) != dim {
			return 0, fmt.Errorf("%w: entry %s has %d dimensions, batch has %d",
				domain.ErrDimensionMismatch, e.ChunkID, len(e.Embedding), dim)
		}
	}
	return dim, nil
}

// upsert binds the collection if needed and saves entries within tx.
func (v *VectorIndex) upsert(
	ctx context.Context, tx *sql.Tx, model string, dim int, entries []domain.IndexEntry,
) error {
	bound, err := v.binding(ctx, tx)
	if err != nil {
		return err
	}
	if err := checkBinding(bound, dim, model); err != nil {
		return err
	}

	if bound.dimension == 0 || (bound.model == "" && model != "") {
		if _, err := tx.ExecContext(ctx, `
			UPDATE collections SET dimension = ?, embedding_model = ? WHERE name = ?
		`, dim, model, v.collection); err != nil {
			return fmt.Errorf("binding collection: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (collection, id, document, embedding, text, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, id) DO UPDATE SET
			document = excluded.document,
			embedding = excluded.embedding,
			text = excluded.text,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		md := e.Metadata
		if md.ChunkID == "" {
			md.ChunkID = e.ChunkID
		}
		mdJSON, err := json.Marshal(md)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, v.collection, e.ChunkID, md.Document,
			float32SliceToBytes(e.Embedding), e.Text, string(mdJSON)); err != nil {
			return fmt.Errorf("saving entry %s: %w", e.ChunkID, err)
		}
	}
	return nil
}

// checkBinding rejects vectors that do not fit the collection.
func checkBinding(bound binding, dim int, model string) error {
	if bound.dimension != 0 && bound.dimension != dim {
		return fmt.Errorf("%w: index holds %d-dimensional vectors, got %d",
			domain.ErrDimensionMismatch, bound.dimension, dim)
	}
	if bound.model != "" && model != "" && bound.model != model {
		return fmt.Errorf("%w: index was built with %q, got %q; clear the index to switch models",
			domain.ErrEmbeddingModelMismatch, bound.model, model)
	}
	return nil
}

// Query returns the k nearest entries by cosine distance.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return []domain.SearchResult{}, nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	bound, err := v.binding(ctx, v.db)
	if err != nil {
		return nil, err
	}
	if bound.dimension == 0 {
		// Nothing has been added yet.
		return []domain.SearchResult{}, nil
	}
	if len(vector) != bound.dimension {
		return nil, fmt.Errorf("%w: index holds %d-dimensional vectors, query has %d",
			domain.ErrDimensionMismatch, bound.dimension, len(vector))
	}

	rows, err := v.db.QueryContext(ctx, `
		SELECT id, embedding, text, metadata FROM entries WHERE collection = ?
	`, v.collection)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	results := []domain.SearchResult{}
	for rows.Next() {
		var (
			id, text, mdJSON string
			blob             []byte
		)
		if err := rows.Scan(&id, &blob, &text, &mdJSON); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}

		emb := bytesToFloat32Slice(blob)
		if len(emb) != len(vector) {
			logger.Warn("skipping entry %s: stored embedding has %d dimensions, index has %d",
				id, len(emb), len(vector))
			continue
		}

		var md domain.ChunkMetadata
		if err := json.Unmarshal([]byte(mdJSON), &md); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata of %s: %w", id, err)
		}
		if md.ChunkID == "" {
			md.ChunkID = id
		}

		results = append(results, domain.SearchResult{
			Text:     text,
			Metadata: md,
			Distance: vecmath.CosineDistance(vector, emb),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return vecmath.TopK(results, k), nil
}

// Clear removes all entries and unbinds the collection.
func (v *VectorIndex) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE collection = ?", v.collection); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE collections SET dimension = 0, embedding_model = '' WHERE name = ?
	`, v.collection); err != nil {
		return fmt.Errorf("unbinding collection: %w", err)
	}
	return tx.Commit()
}

// Stats returns the entry count and collection details.
func (v *VectorIndex) Stats(ctx context.Context) (domain.IndexStats, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	bound, err := v.binding(ctx, v.db)
	if err != nil {
		return domain.IndexStats{}, err
	}

	var count int
	if err := v.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries WHERE collection = ?", v.collection,
	).Scan(&count); err != nil {
		return domain.IndexStats{}, fmt.Errorf("counting entries: %w", err)
	}

	return domain.IndexStats{
		Count:          count,
		Name:           v.collection,
		Path:           v.dir,
		Dimension:      bound.dimension,
		EmbeddingModel: bound.model,
	}, nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// binding reads the collection's bound dimension and model.
func (v *VectorIndex) binding(ctx context.Context, q querier) (binding, error) {
	var b binding
	err := q.QueryRowContext(ctx, `
		SELECT dimension, embedding_model FROM collections WHERE name = ?
	`, v.collection).Scan(&b.dimension, &b.model)
	if isMissing(err) {
		return binding{}, fmt.Errorf("collection %s: %w", v.collection, domain.ErrNotFound)
	}
	if err != nil {
		return binding{}, fmt.Errorf("reading collection: %w", err)
	}
	return b, nil
}

// float32SliceToBytes converts []float32 to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

package sqlite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/logger"
)

const testModel = "test-model"

// setupTestIndex opens an index in a temporary directory.
func setupTestIndex(t *testing.T) *VectorIndex {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "chroma_db"), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func entry(id, document string, page int, vec ...float32) domain.IndexEntry {
	return domain.IndexEntry{
		ChunkID:   id,
		Embedding: vec,
		Text:      "text of " + id,
		Metadata: domain.ChunkMetadata{
			Document:   document,
			Page:       page,
			ChunkID:    id,
			SourceType: domain.SourceTypeTXT,
		},
	}
}

func TestOpen_Primary(t *testing.T) {
	idx := setupTestIndex(t)

	assert.Equal(t, domain.RecoveryPrimary, idx.Recovery())

	stats, err := idx.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, domain.DefaultCollection, stats.Name)
	assert.Equal(t, idx.Path(), stats.Path)
}

func TestOpen_EmptyDir(t *testing.T) {
	_, err := Open("", Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpen_CollectionMetadataIsCosine(t *testing.T) {
	idx := setupTestIndex(t)

	var md string
	require.NoError(t, idx.db.QueryRow("SELECT metadata FROM collections WHERE name = ?", idx.collection).Scan(&md))
	assert.JSONEq(t, `{"hnsw:space":"cosine"}`, md)
}

func TestOpen_ReinitializesCorruptStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chroma_db")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DBFileName), []byte("this is not a sqlite database, just garbage bytes"), 0600))

	idx, err := Open(dir, Options{})
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, domain.RecoveryReinitialized, idx.Recovery())
	assert.Equal(t, dir, idx.Path())

	stats, err := idx.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
}

func TestOpen_ReinitializesNewerSchema(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chroma_db")
	idx, err := Open(dir, Options{})
	require.NoError(t, err)
	require.NoError(t, idx.Add(context.Background(), testModel, []domain.IndexEntry{entry("a", "doc", 1, 1, 0)}))
	_, err = idx.db.Exec("INSERT INTO schema_migrations (version) VALUES (999)")
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	idx, err = Open(dir, Options{})
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, domain.RecoveryReinitialized, idx.Recovery())
	stats, err := idx.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
}

func TestOpen_FallsBackToFreshNamespace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chroma_db")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DBFileName), []byte("garbage garbage garbage garbage garbage"), 0600))

	orig := removeAll
	removeAll = func(string) error { return errors.New("permission denied") }
	t.Cleanup(func() { removeAll = orig })

	now := time.Unix(1700000000, 0)
	idx, err := Open(dir, Options{Now: func() time.Time { return now }})
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, domain.RecoveryFreshNamespace, idx.Recovery())
	assert.Equal(t, fmt.Sprintf("%s_%d", dir, now.Unix()), idx.Path())

	// The unrecoverable store is left untouched.
	data, err := os.ReadFile(filepath.Join(dir, DBFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "garbage")
}

func TestOpen_AllStepsFail(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(parent, []byte("a regular file"), 0600))

	_, err := Open(filepath.Join(parent, "chroma_db"), Options{})
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestOpen_DurableAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "chroma_db")

	idx, err := Open(dir, Options{})
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{
		entry("a", "doc.txt", 1, 1, 0, 0),
		entry("b", "doc.txt", 2, 0, 1, 0),
	}))
	require.NoError(t, idx.Close())

	idx, err = Open(dir, Options{})
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, domain.RecoveryPrimary, idx.Recovery())
	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 3, stats.Dimension)
	assert.Equal(t, testModel, stats.EmbeddingModel)

	results, err := idx.Query(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Metadata.ChunkID)
	assert.Equal(t, 2, results[0].Metadata.Page)
}

func TestQuery_SelfSimilarityIsZero(t *testing.T) {
	ctx := context.Background()
	idx := setupTestIndex(t)
	v := []float32{0.25, -0.5, 0.75, 0.1}

	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{entry("only", "doc", 1, v...)}))

	results, err := idx.Query(ctx, v, 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "only", results[0].Metadata.ChunkID)
	assert.Equal(t, 0.0, results[0].Distance)
	assert.Equal(t, "text of only", results[0].Text)
}

func TestQuery_OrdersByAscendingDistance(t *testing.T) {
	ctx := context.Background()
	idx := setupTestIndex(t)

	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{
		entry("far", "d", 1, -1, 0),
		entry("near", "d", 1, 1, 0.1),
		entry("mid", "d", 1, 0, 1),
	}))

	results, err := idx.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "near", results[0].Metadata.ChunkID)
	assert.Equal(t, "mid", results[1].Metadata.ChunkID)
	assert.Equal(t, "far", results[2].Metadata.ChunkID)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
	assert.LessOrEqual(t, results[1].Distance, results[2].Distance)
}

func TestQuery_FewerThanK(t *testing.T) {
	ctx := context.Background()
	idx := setupTestIndex(t)

	results, err := idx.Query(ctx, []float32{1, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{
		entry("a", "d", 1, 1, 0),
		entry("b", "d", 1, 0, 1),
	}))

	results, err = idx.Query(ctx, []float32{1, 0}, 4)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = idx.Query(ctx, []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAdd_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	idx := setupTestIndex(t)

	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{entry("a", "d", 1, 1, 0)}))
	replacement := entry("a", "d", 1, 0, 1)
	replacement.Text = "replaced"
	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{replacement}))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)

	results, err := idx.Query(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "replaced", results[0].Text)
	assert.Equal(t, 0.0, results[0].Distance)
}

func TestAdd_Empty(t *testing.T) {
	idx := setupTestIndex(t)
	assert.NoError(t, idx.Add(context.Background(), testModel, nil))
}

func TestAdd_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := setupTestIndex(t)

	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{entry("a", "d", 1, 1, 0)}))

	err := idx.Add(ctx, testModel, []domain.IndexEntry{entry("b", "d", 1, 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	err = idx.Add(ctx, testModel, []domain.IndexEntry{entry("c", "d", 1, 1, 0), entry("e", "d", 1, 1)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = idx.Query(ctx, []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestAdd_InvalidEntries(t *testing.T) {
	ctx := context.Background()
	idx := setupTestIndex(t)

	assert.ErrorIs(t, idx.Add(ctx, testModel, []domain.IndexEntry{{ChunkID: "a"}}), domain.ErrInvalidInput)
	assert.ErrorIs(t, idx.Add(ctx, testModel, []domain.IndexEntry{{Embedding: []float32{1}}}), domain.ErrInvalidInput)
}

func TestAdd_ModelMismatch(t *testing.T) {
	ctx := context.Background()
	idx := setupTestIndex(t)

	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{entry("a", "d", 1, 1, 0)}))

	err := idx.Add(ctx, "other-model", []domain.IndexEntry{entry("b", "d", 1, 0, 1)})
	assert.ErrorIs(t, err, domain.ErrEmbeddingModelMismatch)

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
}

func TestClear_UnbindsCollection(t *testing.T) {
	ctx := context.Background()
	idx := setupTestIndex(t)

	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{entry("a", "d", 1, 1, 0)}))
	require.NoError(t, idx.Clear(ctx))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, 0, stats.Dimension)
	assert.Empty(t, stats.EmbeddingModel)

	// A different model and dimension is accepted after clearing.
	require.NoError(t, idx.Add(ctx, "other-model", []domain.IndexEntry{entry("b", "d", 1, 1, 0, 0)}))
}

func TestReplaceDocument(t *testing.T) {
	ctx := context.Background()
	idx := setupTestIndex(t)

	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{
		entry("a1", "a.txt", 1, 1, 0),
		entry("a2", "a.txt", 2, 1, 1),
		entry("b1", "b.txt", 1, 0, 1),
	}))

	n, err := idx.ReplaceDocument(ctx, testModel, "a.txt", []domain.IndexEntry{
		entry("a3", "a.txt", 1, 1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = idx.ReplaceDocument(ctx, testModel, "missing.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)

	results, err := idx.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Metadata.ChunkID
	}
	assert.ElementsMatch(t, []string{"a3", "b1"}, ids)
}

func TestReplaceDocument_FailureKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	idx := setupTestIndex(t)

	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{
		entry("a1", "a.txt", 1, 1, 0),
		entry("a2", "a.txt", 2, 1, 1),
	}))

	_, err := idx.ReplaceDocument(ctx, testModel, "a.txt", []domain.IndexEntry{
		entry("a3", "a.txt", 1, 1, 0, 0),
	})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = idx.ReplaceDocument(ctx, "other-model", "a.txt", []domain.IndexEntry{
		entry("a3", "a.txt", 1, 1, 0),
	})
	require.ErrorIs(t, err, domain.ErrEmbeddingModelMismatch)

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
}

func TestReplaceDocument_EmptyName(t *testing.T) {
	idx := setupTestIndex(t)

	_, err := idx.ReplaceDocument(context.Background(), testModel, "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuery_SkipsMalformedEmbedding(t *testing.T) {
	ctx := context.Background()
	idx := setupTestIndex(t)

	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{
		entry("good", "a.txt", 1, 1, 0),
		entry("bad", "a.txt", 2, 0, 1),
	}))
	_, err := idx.db.ExecContext(ctx,
		"UPDATE entries SET embedding = ? WHERE collection = ? AND id = ?",
		float32SliceToBytes([]float32{0, 1, 0}), idx.collection, "bad")
	require.NoError(t, err)

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)
	t.Cleanup(func() {
		logger.SetVerbose(false)
		logger.SetOutput(os.Stderr)
	})

	results, err := idx.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "good", results[0].Metadata.ChunkID)
	assert.Contains(t, buf.String(), "[WARN] skipping entry bad")
}

func TestConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	idx := setupTestIndex(t)

	require.NoError(t, idx.Add(ctx, testModel, []domain.IndexEntry{
		entry("a", "d", 1, 1, 0),
		entry("b", "d", 1, 0, 1),
	}))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := idx.Query(ctx, []float32{1, 0}, 2)
			if err == nil && len(results) != 2 {
				err = fmt.Errorf("got %d results", len(results))
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestFloat32Encoding(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4028235e38}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, bytesToFloat32Slice(nil))
}

package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/documind/internal/core/domain"
)

func TestIndexStatsCommand(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.stats = domain.IndexStats{
		Count: 12, Name: "documind_collection", Path: "/data/chroma_db",
		Dimension: 384, EmbeddingModel: "all-minilm",
	}

	out, err := execute(t, "index", "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Collection: documind_collection")
	assert.Contains(t, out, "Passages:   12")
	assert.Contains(t, out, "Location:   /data/chroma_db")
	assert.Contains(t, out, "Embedding:  all-minilm (384 dimensions)")
	assert.Contains(t, out, "Opened via: primary")
	assert.NotContains(t, out, "will not persist")
}

func TestIndexStatsCommand_InMemoryWarning(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.stats = domain.IndexStats{Name: "documind_collection"}
	ts.index.recovery = domain.RecoveryInMemory

	out, err := execute(t, "index", "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Opened via: in_memory")
	assert.Contains(t, out, "will not persist")
}

func TestIndexStatsCommand_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.stats = domain.IndexStats{Count: 3, Name: "c"}
	ts.index.recovery = domain.RecoveryFreshNamespace

	out, err := execute(t, "index", "stats", "--json")

	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 3.0, got["count"], 1e-9)
	assert.Equal(t, "fresh_namespace", got["recovery"])
}

func TestIndexStatsCommand_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.err = errors.New("closed")

	_, err := execute(t, "index", "stats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get index stats")
}

func TestIndexClearCommand(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "index", "clear")

	require.NoError(t, err)
	assert.True(t, ts.index.cleared)
	assert.Contains(t, out, "Index cleared.")
}

func TestIndexClearCommand_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := execute(t, "index", "clear")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index service not configured")
}

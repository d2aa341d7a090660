// Package vecmath holds the distance and ranking rules shared by the
// vector index implementations.
package vecmath

import (
	"math"
	"sort"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// Space is the distance function tag stored with every collection.
const Space = "cosine"

// CosineDistance returns 1 - cos(a, b). Identical non-zero vectors have
// distance exactly 0. A zero vector is at distance 1 from everything.
// The vectors must have equal length.
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	// sqrt(na*nb) keeps self-similarity exact: sqrt(x*x) == x.
	d := 1 - dot/math.Sqrt(na*nb)
	if d < 0 {
		return 0
	}
	return d
}

// TopK sorts results by ascending distance, ties broken by chunk id, and
// returns at most k of them. k <= 0 returns nil.
func TopK(results []domain.SearchResult, k int) []domain.SearchResult {
	if k <= 0 {
		return nil
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Metadata.ChunkID < results[j].Metadata.ChunkID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

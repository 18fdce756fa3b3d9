package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"comptadoc/src/core/document"
)

// Match is one vector index hit.
type Match struct {
	ID         string
	Similarity float64
}

// VectorIndex caches every stored document embedding keyed by document id, so
// a semantic query costs one map scan instead of a storage round trip per
// request. It is invalidated whenever a document is created, re-analyzed or
// deleted and lazily reloaded from the store on the next search.
type VectorIndex struct {
	mu      sync.RWMutex
	vectors map[string][]float32
	loaded  bool
}

func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

// Invalidate drops the cached vectors.
func (ix *VectorIndex) Invalidate() {
	ix.mu.Lock()
	ix.loaded = false
	ix.vectors = nil
	ix.mu.Unlock()
}

// snapshot returns the current vector map, reloading it from the store when
// stale. The returned map is never mutated after publication.
func (ix *VectorIndex) snapshot(ctx context.Context, store document.Store) (map[string][]float32, error) {
	ix.mu.RLock()
	if ix.loaded {
		m := ix.vectors
		ix.mu.RUnlock()
		return m, nil
	}
	ix.mu.RUnlock()

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.loaded {
		return ix.vectors, nil
	}

	docs, _, err := store.FindVisible(ctx, nil, document.Filter{RequireEmbedding: true}, document.Sort{}, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}
	m := make(map[string][]float32, len(docs))
	for i := range docs {
		if docs[i].HasEmbedding() {
			m[docs[i].ID] = docs[i].Embedding
		}
	}
	ix.vectors = m
	ix.loaded = true
	return m, nil
}

// Search returns documents whose embedding similarity to query is at least
// threshold, best first, capped at limit. Documents without an embedding are
// not in the index and therefore never scored.
func (ix *VectorIndex) Search(ctx context.Context, store document.Store, query []float32, threshold float64, limit int) ([]Match, error) {
	vectors, err := ix.snapshot(ctx, store)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(vectors))
	for id, vec := range vectors {
		sim := Cosine(query, vec)
		if sim >= threshold {
			matches = append(matches, Match{ID: id, Similarity: sim})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Cosine computes cosine similarity between two vectors. Mismatched lengths
// or zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

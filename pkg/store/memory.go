package store

import (
	"context"
	"sort"
	"sync"

	"reglex/internal/mathutil"
	"reglex/internal/models"
)

// MemoryIndex is an in-process VectorIndex with the same ranking
// contract as the pgvector store. Used for tests and single-shot local
// runs with no database configured.
type MemoryIndex struct {
	mu     sync.RWMutex
	chunks []models.Chunk
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (m *MemoryIndex) ReplaceDocument(_ context.Context, documentID string, chunks []models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.chunks[:0]
	for _, c := range m.chunks {
		if c.SourceDocumentID != documentID {
			kept = append(kept, c)
		}
	}
	m.chunks = append(kept, chunks...)
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, vector []float32, region, jurisdiction string, topK int, minRelevance float64) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []models.SearchResult
	for _, c := range m.chunks {
		if c.Region != region {
			continue
		}
		if jurisdiction != "" && c.Jurisdiction != jurisdiction {
			continue
		}
		score := mathutil.CosineSimilarity(vector, c.Embedding)
		if score < minRelevance {
			continue
		}
		results = append(results, models.SearchResult{
			Content:          c.Content,
			Jurisdiction:     c.Jurisdiction,
			SourceDocumentID: c.SourceDocumentID,
			ChunkNumber:      c.ChunkNumber,
			RelevanceScore:   score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].ChunkNumber < results[j].ChunkNumber
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *MemoryIndex) ListJurisdictions(_ context.Context, region string) ([]models.JurisdictionCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := map[string]int{}
	for _, c := range m.chunks {
		if c.Region == region {
			counts[c.Jurisdiction]++
		}
	}

	out := make([]models.JurisdictionCount, 0, len(counts))
	for j, n := range counts {
		out = append(out, models.JurisdictionCount{Jurisdiction: j, ChunkCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChunkCount != out[j].ChunkCount {
			return out[i].ChunkCount > out[j].ChunkCount
		}
		return out[i].Jurisdiction < out[j].Jurisdiction
	})
	return out, nil
}

func (m *MemoryIndex) Close() {}

// MemoryCache is the in-process EmbeddingCache counterpart, with the
// same insert-if-absent semantics as the Postgres table.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[cacheKey][]float32
}

type cacheKey struct {
	hash    string
	version string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[cacheKey][]float32{}}
}

func (c *MemoryCache) Get(_ context.Context, contentHash, modelVersion string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[cacheKey{contentHash, modelVersion}]
	return v, ok, nil
}

func (c *MemoryCache) Put(_ context.Context, contentHash, modelVersion string, vector []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey{contentHash, modelVersion}
	if _, exists := c.entries[key]; exists {
		return nil
	}
	c.entries[key] = vector
	return nil
}

// Len reports the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

package llm

import (
	"context"
	"fmt"

	"reglex/internal/types"
)

// CachedEncoder puts a content-hash cache in front of an Embedder. Texts
// already embedded under the current model version are never sent to the
// model again; all misses go out in one batched call. It implements
// types.Embedder and is a drop-in replacement anywhere one is needed.
type CachedEncoder struct {
	inner types.Embedder
	cache types.EmbeddingCache
}

func NewCachedEncoder(inner types.Embedder, cache types.EmbeddingCache) *CachedEncoder {
	return &CachedEncoder{inner: inner, cache: cache}
}

func (c *CachedEncoder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	version := c.inner.ModelVersion()
	out := make([][]float32, len(texts))

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		vector, ok, err := c.cache.Get(ctx, HashText(documentPrefix+text), version)
		if err != nil {
			return nil, fmt.Errorf("embedding cache lookup: %w", err)
		}
		if ok {
			out[i] = vector
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) > 0 {
		vectors, err := c.inner.EmbedDocuments(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, vector := range vectors {
			out[missIdx[j]] = vector
			// Insert-if-absent: a concurrent writer storing the same
			// hash first is fine, the value is identical by
			// construction.
			if err := c.cache.Put(ctx, HashText(documentPrefix+missTexts[j]), version, vector); err != nil {
				return nil, fmt.Errorf("embedding cache insert: %w", err)
			}
		}
	}
	return out, nil
}

func (c *CachedEncoder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	version := c.inner.ModelVersion()
	key := HashText(queryPrefix + text)

	vector, ok, err := c.cache.Get(ctx, key, version)
	if err != nil {
		return nil, fmt.Errorf("embedding cache lookup: %w", err)
	}
	if ok {
		return vector, nil
	}

	vector, err = c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(ctx, key, version, vector); err != nil {
		return nil, fmt.Errorf("embedding cache insert: %w", err)
	}
	return vector, nil
}

func (c *CachedEncoder) Dimension() int {
	return c.inner.Dimension()
}

func (c *CachedEncoder) ModelVersion() string {
	return c.inner.ModelVersion()
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingCache is the Postgres-backed embedding cache, keyed by
// (content_hash, model_version). Rows are immutable; a duplicate insert
// is resolved as a no-op because deterministic embedding guarantees the
// loser holds the same value.
type EmbeddingCache struct {
	store *VectorStore
}

func NewEmbeddingCache(store *VectorStore) *EmbeddingCache {
	return &EmbeddingCache{store: store}
}

func (c *EmbeddingCache) Get(ctx context.Context, contentHash, modelVersion string) ([]float32, bool, error) {
	query := fmt.Sprintf(
		"SELECT embedding FROM %s WHERE content_hash = $1 AND model_version = $2",
		c.store.config.CacheTable)

	var vector pgvector.Vector
	err := c.store.pool.QueryRow(ctx, query, contentHash, modelVersion).Scan(&vector)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read embedding cache: %w", err)
	}
	return vector.Slice(), true, nil
}

// Put inserts if absent. ON CONFLICT DO NOTHING is the named path for
// the insert race: the losing writer's row never lands and that is fine.
func (c *EmbeddingCache) Put(ctx context.Context, contentHash, modelVersion string, vector []float32) error {
	stmt := fmt.Sprintf(`
		INSERT INTO %s (content_hash, model_version, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (content_hash, model_version) DO NOTHING`,
		c.store.config.CacheTable)

	if _, err := c.store.pool.Exec(ctx, stmt, contentHash, modelVersion, pgvector.NewVector(vector)); err != nil {
		return fmt.Errorf("failed to insert embedding cache entry: %w", err)
	}
	return nil
}

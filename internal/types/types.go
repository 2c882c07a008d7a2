package types

import (
	"context"

	"reglex/internal/models"
)

// Embedder converts text into fixed-dimension vectors. One instance is
// constructed per process and shared by reference; components never
// re-instantiate it.
type Embedder interface {
	// EmbedDocuments embeds texts with document framing, batched.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query with query framing. Query and
	// document vectors share the same space and dimension.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension is the pipeline-wide vector dimension invariant.
	Dimension() int

	// ModelVersion identifies the model; cache entries are keyed by it.
	ModelVersion() string
}

// EmbeddingCache stores vectors keyed by (content hash, model version).
// Entries are insert-if-absent and never mutated; a duplicate insert is
// a no-op, not an error.
type EmbeddingCache interface {
	Get(ctx context.Context, contentHash, modelVersion string) ([]float32, bool, error)
	Put(ctx context.Context, contentHash, modelVersion string, vector []float32) error
}

// VectorIndex persists chunk records and serves filtered nearest-neighbor
// queries over their vectors.
type VectorIndex interface {
	// ReplaceDocument atomically swaps a document's chunks: prior rows
	// for the document ID are removed, the new set inserted.
	ReplaceDocument(ctx context.Context, documentID string, chunks []models.Chunk) error

	// Search returns up to topK chunks in the region (and jurisdiction,
	// when non-empty) ranked by relevance to the query vector, strictly
	// descending, ties broken by chunk number ascending.
	Search(ctx context.Context, vector []float32, region, jurisdiction string, topK int, minRelevance float64) ([]models.SearchResult, error)

	// ListJurisdictions aggregates chunk counts per jurisdiction within
	// a region, ordered by count descending.
	ListJurisdictions(ctx context.Context, region string) ([]models.JurisdictionCount, error)

	Close()
}

// BoundaryDetector decides the sentence indices at which chunks start.
// The returned slice always begins with 0 and is strictly increasing.
type BoundaryDetector interface {
	Boundaries(ctx context.Context, sentences []Sentence) ([]int, error)
}

// Sentence is one segmented sentence with its provenance in the source
// text. Start is the byte offset of the sentence within the normalized
// document; ParaBreak marks a blank line before the sentence.
type Sentence struct {
	Text      string
	Start     int
	ParaBreak bool
}

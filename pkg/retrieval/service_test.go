package retrieval_test

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reglex/internal/models"
	"reglex/pkg/retrieval"
	"reglex/pkg/store"
)

type hashEmbedder struct{}

func (hashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t)
	}
	return out, nil
}

func (hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return hashVector("query: " + text), nil
}

func (hashEmbedder) Dimension() int { return 8 }

func (hashEmbedder) ModelVersion() string { return "test-v1" }

func hashVector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	v := make([]float32, 8)
	for i := range v {
		v[i] = float32(sum[i])/255 - 0.5
	}
	return v
}

func seed(t *testing.T, idx *store.MemoryIndex) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, idx.ReplaceDocument(ctx, "doc-a", []models.Chunk{
		{SourceDocumentID: "doc-a", ChunkNumber: 0, Jurisdiction: "Springfield", Region: "ZZ",
			Content: "Setback rules.", Embedding: []float32{1, 0, 0, 0, 0, 0, 0, 0}},
	}))
	require.NoError(t, idx.ReplaceDocument(ctx, "doc-b", []models.Chunk{
		{SourceDocumentID: "doc-b", ChunkNumber: 0, Jurisdiction: "Shelbyville", Region: "ZZ",
			Content: "Fence rules.", Embedding: []float32{0, 1, 0, 0, 0, 0, 0, 0}},
	}))
}

func TestSearchRequiresRegion(t *testing.T) {
	svc := retrieval.New(hashEmbedder{}, store.NewMemoryIndex())

	_, err := svc.Search(context.Background(), models.SearchRequest{Query: "setbacks"})
	assert.ErrorIs(t, err, retrieval.ErrRegionRequired)

	_, err = svc.ListJurisdictions(context.Background(), "")
	assert.ErrorIs(t, err, retrieval.ErrRegionRequired)
}

func TestSearchJurisdictionFilter(t *testing.T) {
	idx := store.NewMemoryIndex()
	seed(t, idx)
	svc := retrieval.New(hashEmbedder{}, idx)

	results, err := svc.Search(context.Background(), models.SearchRequest{
		Query:        "anything at all",
		Jurisdiction: "Springfield",
		Region:       "ZZ",
		TopK:         5,
		MinRelevance: -1,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Springfield", results[0].Jurisdiction)
}

func TestSearchEmptyResultIsNotError(t *testing.T) {
	svc := retrieval.New(hashEmbedder{}, store.NewMemoryIndex())

	results, err := svc.Search(context.Background(), models.SearchRequest{
		Query:  "setbacks",
		Region: "ZZ",
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchDefaultTopK(t *testing.T) {
	ctx := context.Background()
	idx := store.NewMemoryIndex()
	var chunks []models.Chunk
	for i := 0; i < 8; i++ {
		chunks = append(chunks, models.Chunk{
			SourceDocumentID: "doc", ChunkNumber: i, Jurisdiction: "Springfield", Region: "ZZ",
			Content: "text", Embedding: []float32{1, 0, 0, 0, 0, 0, 0, float32(i)},
		})
	}
	require.NoError(t, idx.ReplaceDocument(ctx, "doc", chunks))

	svc := retrieval.New(hashEmbedder{}, idx)
	results, err := svc.Search(ctx, models.SearchRequest{Query: "q", Region: "ZZ", MinRelevance: -1})
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestListJurisdictions(t *testing.T) {
	idx := store.NewMemoryIndex()
	seed(t, idx)
	svc := retrieval.New(hashEmbedder{}, idx)

	counts, err := svc.ListJurisdictions(context.Background(), "ZZ")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 1, counts[0].ChunkCount)
}

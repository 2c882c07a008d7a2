package pipeline

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"reglex/internal/models"
	"reglex/internal/types"
	"reglex/pkg/chunker"
	"reglex/pkg/llm"
	"reglex/pkg/metadata"
	"reglex/pkg/normalize"
	"reglex/pkg/segment"
)

// Config is the per-ingestion chunking configuration.
type Config struct {
	TargetWords           int
	MaxWords              int
	OverlapSentences      int
	SemanticThreshold     float64
	UseSemanticBoundaries bool
}

func (c Config) chunkerConfig() chunker.Config {
	return chunker.Config{
		TargetWords:       c.TargetWords,
		MaxWords:          c.MaxWords,
		OverlapSentences:  c.OverlapSentences,
		SemanticThreshold: c.SemanticThreshold,
	}
}

// Ingestor runs the full document pipeline: normalize, segment, detect
// boundaries, assemble, extract metadata, score coherence, embed, and
// persist. Documents may be ingested concurrently; the cache and index
// tolerate concurrent inserts.
type Ingestor struct {
	encoder   types.Embedder
	index     types.VectorIndex
	segmenter *segment.Segmenter
}

func NewIngestor(encoder types.Embedder, index types.VectorIndex) *Ingestor {
	return &Ingestor{
		encoder:   encoder,
		index:     index,
		segmenter: segment.New(),
	}
}

// Ingest processes one document and returns the number of chunks
// written. Re-ingesting a document ID replaces its prior chunks
// entirely. An empty or unparseable document is a logged skip, not an
// error.
func (ing *Ingestor) Ingest(ctx context.Context, doc models.Document, cfg Config) (int, error) {
	chunks, err := ing.Process(ctx, doc, cfg)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := ing.index.ReplaceDocument(ctx, doc.ID, chunks); err != nil {
		return 0, fmt.Errorf("ingest %s: index write: %w", doc.ID, err)
	}
	return len(chunks), nil
}

// Process runs every pipeline stage short of persistence and returns
// the finished chunk records.
func (ing *Ingestor) Process(ctx context.Context, doc models.Document, cfg Config) ([]models.Chunk, error) {
	text := normalize.Normalize(doc.Content)
	sentences := ing.segmenter.Segment(text)
	if len(sentences) == 0 {
		log.Printf("skipping document %s: no sentences after normalization", doc.ID)
		return nil, nil
	}

	boundaries, err := ing.detector(cfg).Boundaries(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: boundary detection: %w", doc.ID, err)
	}

	chunks := chunker.NewAssembler(cfg.chunkerConfig()).Assemble(sentences, boundaries, len(text))

	if err := extractMetadata(ctx, chunks); err != nil {
		return nil, fmt.Errorf("ingest %s: metadata extraction: %w", doc.ID, err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := ing.encoder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: chunk embedding: %w", doc.ID, err)
	}

	coherence := coherenceScores(vectors)
	for i := range chunks {
		chunks[i].SourceDocumentID = doc.ID
		chunks[i].Jurisdiction = doc.Jurisdiction
		chunks[i].Region = doc.Region
		chunks[i].ContentHash = llm.HashText(chunks[i].Content)
		chunks[i].Embedding = vectors[i]
		chunks[i].CoherenceScore = coherence[i]
	}
	return chunks, nil
}

func (ing *Ingestor) detector(cfg Config) types.BoundaryDetector {
	if cfg.UseSemanticBoundaries && ing.encoder != nil {
		return chunker.NewSemanticDetector(cfg.chunkerConfig(), ing.encoder)
	}
	return chunker.NewStructuralDetector(cfg.chunkerConfig())
}

// extractMetadata runs the per-chunk classifiers in parallel; each chunk
// depends only on its own text.
func extractMetadata(ctx context.Context, chunks []models.Chunk) error {
	g, _ := errgroup.WithContext(ctx)
	for i := range chunks {
		i := i
		g.Go(func() error {
			ex := metadata.Extract(chunks[i].Content)
			chunks[i].ContentType = ex.ContentType
			chunks[i].HasTable = ex.HasTable
			chunks[i].HasList = ex.HasList
			chunks[i].HasDefinition = ex.HasDefinition
			chunks[i].HasCitation = ex.HasCitation
			chunks[i].Definitions = ex.Definitions
			chunks[i].Citations = ex.Citations
			chunks[i].CrossReferences = ex.CrossReferences
			chunks[i].LegalEntities = ex.LegalEntities
			chunks[i].KeyPhrases = ex.KeyPhrases
			chunks[i].SemanticDensity = ex.SemanticDensity
			return nil
		})
	}
	return g.Wait()
}

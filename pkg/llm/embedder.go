package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"
)

// Framing prefixes for the nomic embedding family. Queries and documents
// share one vector space but must be embedded with different framing.
const (
	documentPrefix = "search_document: "
	queryPrefix    = "search_query: "
)

type EmbedderConfig struct {
	Model     string
	BaseURL   string
	Dimension int
	BatchSize int
	RateLimit float64 // model calls per second, 0 = unlimited
}

// Embedder wraps an Ollama embedding model. It batches requests, rate
// limits the model calls, and enforces the pipeline-wide vector
// dimension.
type Embedder struct {
	config  EmbedderConfig
	model   *ollama.LLM
	limiter *rate.Limiter
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Dimension == 0 {
		config.Dimension = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 32
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding model: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &Embedder{config: config, model: model, limiter: limiter}, nil
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = documentPrefix + t
	}
	return e.embed(ctx, prefixed)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{queryPrefix + text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) Dimension() int {
	return e.config.Dimension
}

func (e *Embedder) ModelVersion() string {
	return e.config.Model
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		vectors, err := e.model.CreateEmbedding(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding call failed: %w", err)
		}

		for _, v := range vectors {
			if len(v) != e.config.Dimension {
				return nil, &DimensionError{Want: e.config.Dimension, Got: len(v), Model: e.config.Model}
			}
			out = append(out, v)
		}
	}
	return out, nil
}

package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Embedding config
	if c.Embedding.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "embedding.base_url",
			Message: "Ollama base URL is required",
		})
	}

	if c.Embedding.Dimension < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.dimension",
			Message: "dimension must be positive",
		})
	}

	if c.Embedding.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Embedding.RateLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "embedding.rate_limit",
			Message: "rate_limit must be non-negative",
		})
	}

	// Validate Database config
	if c.Database.Backend != "postgres" && c.Database.Backend != "memory" {
		errors = append(errors, ValidationError{
			Field:   "database.backend",
			Message: "backend must be postgres or memory",
		})
	}

	if c.Database.Backend == "postgres" && c.Database.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "database.url",
			Message: "database URL is required for the postgres backend",
		})
	}

	// Validate Chunking config
	if c.Chunking.TargetWords < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunking.target_words",
			Message: "target_words must be positive",
		})
	}

	if c.Chunking.MaxWords < c.Chunking.TargetWords {
		errors = append(errors, ValidationError{
			Field:   "chunking.max_words",
			Message: "max_words must be at least target_words",
		})
	}

	if c.Chunking.OverlapSentences < 0 {
		errors = append(errors, ValidationError{
			Field:   "chunking.overlap_sentences",
			Message: "overlap_sentences must be non-negative",
		})
	}

	if c.Chunking.SemanticThreshold < 0 || c.Chunking.SemanticThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "chunking.semantic_threshold",
			Message: "semantic_threshold must be between 0 and 1",
		})
	}

	// Validate base URL format
	if _, err := url.Parse(c.Embedding.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "embedding.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	return errors
}

package llm

import "fmt"

// DimensionError reports an embedding vector whose length does not match
// the configured dimension. It indicates a model or version
// misconfiguration and is fatal for the batch, never retried.
type DimensionError struct {
	Want  int
	Got   int
	Model string
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch for model %q: want %d, got %d", e.Model, e.Want, e.Got)
}

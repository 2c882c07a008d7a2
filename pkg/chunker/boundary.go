package chunker

import (
	"context"
	"fmt"
	"regexp"

	"reglex/internal/mathutil"
	"reglex/internal/types"
)

// Config controls chunk sizing for both boundary strategies.
type Config struct {
	TargetWords       int
	MaxWords          int
	OverlapSentences  int
	SemanticThreshold float64
}

func (c Config) withDefaults() Config {
	if c.TargetWords == 0 {
		c.TargetWords = 300
	}
	if c.MaxWords == 0 {
		c.MaxWords = 500
	}
	if c.OverlapSentences == 0 {
		c.OverlapSentences = 2
	}
	if c.SemanticThreshold == 0 {
		c.SemanticThreshold = 0.55
	}
	return c
}

// SemanticDetector places boundaries where adjacent-sentence embedding
// similarity drops, once a chunk has reached its target size.
type SemanticDetector struct {
	config   Config
	embedder types.Embedder
}

func NewSemanticDetector(config Config, embedder types.Embedder) *SemanticDetector {
	return &SemanticDetector{config: config.withDefaults(), embedder: embedder}
}

func (d *SemanticDetector) Boundaries(ctx context.Context, sentences []types.Sentence) ([]int, error) {
	if len(sentences) <= 1 {
		return starts(sentences), nil
	}

	texts := make([]string, len(sentences))
	for i, s := range sentences {
		texts[i] = s.Text
	}
	vectors, err := d.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("boundary detection: embedding sentences: %w", err)
	}

	// similarity[i] relates sentence i to sentence i+1.
	similarity := make([]float64, len(sentences)-1)
	for i := 0; i < len(vectors)-1; i++ {
		similarity[i] = mathutil.CosineSimilarity(vectors[i], vectors[i+1])
	}

	return walk(sentences, d.config, func(i int) bool {
		return similarity[i] < d.config.SemanticThreshold
	}), nil
}

// Section-header shapes seen in municipal codes: "ARTICLE IV",
// "3.2 — Accessory Uses", "§ 12-401".
var headerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^ARTICLE\s+[IVXLCDM]+\b`),
	regexp.MustCompile(`^\d+\.\d+\s*[—–-]`),
	regexp.MustCompile(`^§+\s*[\d-]`),
	regexp.MustCompile(`^(?:SECTION|Section)\s+\d`),
}

// StructuralDetector is the fallback strategy when no embedding model is
// configured: the soft break triggers on a heading or paragraph break in
// the next sentence instead of a similarity drop.
type StructuralDetector struct {
	config Config
}

func NewStructuralDetector(config Config) *StructuralDetector {
	return &StructuralDetector{config: config.withDefaults()}
}

func (d *StructuralDetector) Boundaries(_ context.Context, sentences []types.Sentence) ([]int, error) {
	if len(sentences) <= 1 {
		return starts(sentences), nil
	}
	return walk(sentences, d.config, func(i int) bool {
		next := sentences[i+1]
		if next.ParaBreak {
			return true
		}
		return isHeader(next.Text)
	}), nil
}

func isHeader(text string) bool {
	for _, p := range headerPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// walk accumulates a word counter over sentences and emits a chunk-start
// index whenever a break is due. softBreak(i) reports whether the
// transition from sentence i to i+1 is a natural break point. The hard
// cap looks one sentence ahead so that no chunk exceeds MaxWords, except
// a single sentence that alone exceeds it, which becomes its own
// oversized chunk.
func walk(sentences []types.Sentence, config Config, softBreak func(i int) bool) []int {
	boundaries := []int{0}
	words := 0

	for i := 0; i < len(sentences); i++ {
		words += sizeWords(sentences[i].Text)
		if i == len(sentences)-1 {
			break
		}
		switch {
		case words+sizeWords(sentences[i+1].Text) > config.MaxWords:
			boundaries = append(boundaries, i+1)
			words = 0
		case words >= config.TargetWords && softBreak(i):
			boundaries = append(boundaries, i+1)
			words = 0
		}
	}
	return boundaries
}

func starts(sentences []types.Sentence) []int {
	if len(sentences) == 0 {
		return nil
	}
	return []int{0}
}

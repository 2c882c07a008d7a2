package pipeline

import "reglex/internal/mathutil"

// coherenceScores computes each chunk's mean cosine similarity to its
// available neighbors from the already-batched chunk vectors. First and
// last chunks have one neighbor; a lone chunk scores zero.
func coherenceScores(vectors [][]float32) []float64 {
	scores := make([]float64, len(vectors))
	if len(vectors) < 2 {
		return scores
	}
	for i := range vectors {
		sum, n := 0.0, 0
		if i > 0 {
			sum += mathutil.CosineSimilarity(vectors[i], vectors[i-1])
			n++
		}
		if i < len(vectors)-1 {
			sum += mathutil.CosineSimilarity(vectors[i], vectors[i+1])
			n++
		}
		scores[i] = sum / float64(n)
	}
	return scores
}

package mathutil

import "math"

// DotProduct computes the dot product of two vectors.
func DotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm computes the L2 norm of a vector.
func Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(DotProduct(v, v))))
}

// CosineSimilarity computes cosine similarity between two vectors.
// Returns 1 for identical directions, 0 for perpendicular or zero
// vectors, -1 for opposite.
func CosineSimilarity(a, b []float32) float64 {
	dot := DotProduct(a, b)
	normA := Norm(a)
	normB := Norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return float64(dot) / (float64(normA) * float64(normB))
}

// CosineDistance converts cosine similarity to a distance metric.
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

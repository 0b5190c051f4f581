// Package similarity scores embedding vectors for the brute-force indexes.
package similarity

import "math"

// Cosine returns the cosine similarity of a and b, or 0 when either vector
// has zero length or they differ in dimension.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

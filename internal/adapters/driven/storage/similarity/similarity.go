// Package similarity holds the vector math shared by the local index backends.
package similarity

import "math"

// CosineDistance returns 1 - cos(a, b), in [0, 2]. A zero vector is at
// distance 1 from everything. Extra trailing components are ignored.
func CosineDistance(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := range n {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

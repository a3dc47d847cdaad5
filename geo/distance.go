package geo

import "math"

// SquaredDistance returns the squared Euclidean distance between a and b.
// No root is taken; ordering by it matches ordering by Distance.
func SquaredDistance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Distance returns the Euclidean (L2) distance between a and b.
func Distance(a, b Point) float64 {
	return math.Sqrt(SquaredDistance(a, b))
}

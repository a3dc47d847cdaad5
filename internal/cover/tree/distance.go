package tree

import "github.com/viant/vec/search"

// DistanceFunc computes the distance between two points. It must be a metric
// (triangle inequality holds) for pruning to stay exact.
type DistanceFunc func(p1, p2 *Point) float32

// EuclideanDistance returns the Euclidean distance between two points.
func EuclideanDistance(p1, p2 *Point) float32 {
	return search.Float32s(p1.Vector).EuclideanDistance(p2.Vector)
}

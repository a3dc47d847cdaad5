package search

import (
	"math/rand"

	"github.com/viant/hotelsearch/geo"
)

// Extent bounds generated coordinates and values to [0, Extent).
const Extent = 100.0

// NewSource returns the invocation-local random stream for brand.
func NewSource(brand Brand) *rand.Rand {
	return rand.New(rand.NewSource(brand.Seed()))
}

// Candidates regenerates the candidate set of a run. The same brand always
// yields coordinate-identical points.
func Candidates(brand Brand, n int) []geo.Point {
	return generate(NewSource(brand), n)
}

// generate draws n points, x before y, from rng.
func generate(rng *rand.Rand, n int) []geo.Point {
	if n <= 0 {
		return nil
	}
	points := make([]geo.Point, n)
	for i := range points {
		x := rng.Float64() * Extent
		y := rng.Float64() * Extent
		points[i] = geo.Pt(x, y)
	}
	return points
}

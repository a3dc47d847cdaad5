package search

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/viant/hotelsearch/geo"
	"github.com/viant/hotelsearch/index/bruteforce"
	"github.com/viant/hotelsearch/metrics"
)

// Result is one decorated neighbour.
type Result struct {
	Brand  Brand     `json:"brand"`
	Coords geo.Point `json:"coords"`
	Value  float64   `json:"value"`
}

// Response lists results nearest first.
type Response struct {
	Points []Result `json:"points"`
}

// Run executes a search under a freshly drawn brand.
func Run(req Request) (*Response, error) {
	cfg, err := req.Config()
	if err != nil {
		return nil, err
	}
	return RunWithBrand(NewBrand(), cfg)
}

// RunWithBrand executes a search for cfg under brand. The outcome is fully
// determined by brand and cfg; an invalid cfg fails with ErrInvalidArgument.
func RunWithBrand(brand Brand, cfg Config) (*Response, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	rng := NewSource(brand)
	candidates := generate(rng, cfg.N)
	results, err := Nearest(brand, rng, candidates, cfg.Query, cfg.K)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(started)
	metrics.ObserveSearch(elapsed, len(results))
	logrus.Debugf("search %s: n=%d k=%d query=%v results=%d in %s",
		brand, cfg.N, cfg.K, cfg.Query, len(results), elapsed)
	return &Response{Points: results}, nil
}

// Nearest selects the k candidates closest to query by squared Euclidean
// distance, nearest first, ties in candidate order, and decorates each with a
// value drawn from rng and the brand. k above len(candidates) is clamped.
func Nearest(brand Brand, rng *rand.Rand, candidates []geo.Point, query geo.Point, k int) ([]Result, error) {
	if k < 0 {
		return nil, fmt.Errorf("%w: k must be >= 0, got %d", ErrInvalidArgument, k)
	}
	if !query.Valid() {
		return nil, fmt.Errorf("%w: query %v is not finite", ErrInvalidArgument, query)
	}
	results := make([]Result, 0, min(k, len(candidates)))
	if k == 0 || len(candidates) == 0 {
		return results, nil
	}
	idx := bruteforce.New(candidates)
	neighbors, err := idx.Query(query, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	for _, n := range neighbors {
		results = append(results, Result{
			Brand:  brand,
			Coords: idx.Point(int(n.ID)),
			Value:  rng.Float64() * Extent,
		})
	}
	return results, nil
}

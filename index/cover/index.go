package cover

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/viant/hotelsearch/geo"
	"github.com/viant/hotelsearch/index"
	"github.com/viant/hotelsearch/index/bruteforce"
	"github.com/viant/hotelsearch/internal/cover/tree"
)

// Magic prefixes serialized cover indexes.
var Magic = []byte("COV1")

// Option configures an Index.
type Option func(*Index)

// WithBase sets the cover-tree level expansion base (must be > 1).
func WithBase(base float32) Option {
	return func(i *Index) {
		if base > 1 {
			i.base = base
		}
	}
}

// WithBoundStrategy selects the pruning bound.
func WithBoundStrategy(s tree.BoundStrategy) Option {
	return func(i *Index) { i.bound = s }
}

// WithBestFirst switches queries to best-first traversal.
func WithBestFirst(enabled bool) Option {
	return func(i *Index) { i.bestFirst = enabled }
}

// Index implements a Euclidean kNN index on top of a cover tree.
type Index struct {
	ids       []int64
	points    []geo.Point
	base      float32
	bound     tree.BoundStrategy
	bestFirst bool
	tree      *tree.Tree[int]
}

// New creates an empty cover index.
func New(opts ...Option) *Index {
	i := &Index{base: tree.DefaultBase, bound: tree.BoundPerNode}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Build inserts every point into a fresh tree.
func (i *Index) Build(ids []int64, points []geo.Point) error {
	if len(ids) != len(points) {
		return fmt.Errorf("cover: ids and points length mismatch: %d != %d", len(ids), len(points))
	}
	for j, p := range points {
		if !p.Valid() {
			return fmt.Errorf("cover: point %d (%v) is not finite", ids[j], p)
		}
	}
	if i.base <= 1 {
		i.base = tree.DefaultBase
	}
	t := tree.NewTree[int](i.base, tree.EuclideanDistance)
	t.SetBoundStrategy(i.bound)
	for j, p := range points {
		t.Insert(j, tree.NewPoint(p.Float32s()...))
	}
	i.ids = append([]int64(nil), ids...)
	i.points = append([]geo.Point(nil), points...)
	i.tree = t
	return nil
}

// Len reports the number of indexed points.
func (i *Index) Len() int { return len(i.points) }

// Query returns up to k neighbors ordered by ascending squared distance,
// equidistant points by id.
func (i *Index) Query(query geo.Point, k int) ([]index.Neighbor, error) {
	if i.tree == nil || len(i.points) == 0 {
		return nil, nil
	}
	if !query.Valid() {
		return nil, fmt.Errorf("cover: query point %v is not finite", query)
	}
	if k <= 0 || k > len(i.points) {
		k = len(i.points)
	}
	// Over-fetch so float32 near-ties at the cut are settled in float64.
	fetch := k + k/4 + 4
	q := tree.NewPoint(query.Float32s()...)
	var hits []*tree.Neighbor
	if i.bestFirst {
		hits = i.tree.KNearestNeighborsBestFirst(q, fetch)
	} else {
		hits = i.tree.KNearestNeighbors(q, fetch)
	}
	out := make([]index.Neighbor, 0, len(hits))
	for _, h := range hits {
		pos := i.tree.Value(h.Point)
		out = append(out, index.Neighbor{ID: i.ids[pos], Distance: geo.SquaredDistance(query, i.points[pos])})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Distance != out[b].Distance {
			return out[a].Distance < out[b].Distance
		}
		return out[a].ID < out[b].ID
	})
	if len(out) > k {
		out = out[:k:k]
	}
	return out, nil
}

// MarshalBinary uses the brute-force format behind the COV1 prefix.
func (i *Index) MarshalBinary() ([]byte, error) {
	bf := &bruteforce.Index{}
	if err := bf.Build(i.ids, i.points); err != nil {
		return nil, err
	}
	data, err := bf.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), Magic...), data...), nil
}

// UnmarshalBinary decodes the COV1 blob and rebuilds the tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	if !IsCoverBlob(data) {
		return errors.New("cover: missing COV1 prefix")
	}
	ids, points, err := bruteforce.Decode(data[len(Magic):])
	if err != nil {
		return err
	}
	return i.Build(ids, points)
}

// IsCoverBlob reports whether data was produced by Index.MarshalBinary.
func IsCoverBlob(data []byte) bool {
	return len(data) >= len(Magic) && bytes.Equal(data[:len(Magic)], Magic)
}

var _ index.Index = (*Index)(nil)

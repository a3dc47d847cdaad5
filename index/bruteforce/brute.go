package bruteforce

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/viant/hotelsearch/geo"
	"github.com/viant/hotelsearch/index"
)

// recordSize is id(int64) + x(float64) + y(float64).
const recordSize = 24

// Index is a brute-force point index.
type Index struct {
	ids    []int64
	points []geo.Point
}

// New returns an index built from points, using their positions as ids.
func New(points []geo.Point) *Index {
	ids := make([]int64, len(points))
	for i := range ids {
		ids[i] = int64(i)
	}
	return &Index{ids: ids, points: append([]geo.Point(nil), points...)}
}

// Build loads ids and points.
func (i *Index) Build(ids []int64, points []geo.Point) error {
	if len(ids) != len(points) {
		return fmt.Errorf("bruteforce: ids and points length mismatch: %d != %d", len(ids), len(points))
	}
	if len(ids) == 0 {
		i.ids, i.points = nil, nil
		return nil
	}
	i.ids = append([]int64(nil), ids...)
	i.points = append([]geo.Point(nil), points...)
	return nil
}

// Len reports the number of indexed points.
func (i *Index) Len() int { return len(i.points) }

// Point returns the point stored at position pos.
func (i *Index) Point(pos int) geo.Point { return i.points[pos] }

// Query returns the k nearest points by squared Euclidean distance. The sort
// is stable so equidistant points keep build order.
func (i *Index) Query(query geo.Point, k int) ([]index.Neighbor, error) {
	if len(i.points) == 0 {
		return nil, nil
	}
	if !query.Valid() {
		return nil, fmt.Errorf("bruteforce: query point %v is not finite", query)
	}
	scored := make([]index.Neighbor, len(i.points))
	for j, p := range i.points {
		scored[j] = index.Neighbor{ID: i.ids[j], Distance: geo.SquaredDistance(query, p)}
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Distance < scored[b].Distance })
	if k <= 0 || k > len(scored) {
		k = len(scored)
	}
	return scored[:k:k], nil
}

// MarshalBinary stores: n(uint32), then for each item id(int64), x, y
// (float64), all little-endian.
func (i *Index) MarshalBinary() ([]byte, error) {
	out := make([]byte, 4, 4+recordSize*len(i.points))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(i.points)))
	rec := make([]byte, recordSize)
	for j, p := range i.points {
		binary.LittleEndian.PutUint64(rec[0:8], uint64(i.ids[j]))
		binary.LittleEndian.PutUint64(rec[8:16], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(rec[16:24], math.Float64bits(p.Y))
		out = append(out, rec...)
	}
	return out, nil
}

// UnmarshalBinary restores the index from bytes.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, points, err := Decode(data)
	if err != nil {
		return err
	}
	return i.Build(ids, points)
}

// Decode parses the brute-force binary format.
func Decode(data []byte) ([]int64, []geo.Point, error) {
	if len(data) < 4 {
		return nil, nil, errors.New("bruteforce: invalid data")
	}
	n := int(binary.LittleEndian.Uint32(data[0:4]))
	if len(data)-4 != n*recordSize {
		return nil, nil, fmt.Errorf("bruteforce: truncated data: %d records need %d bytes, have %d", n, n*recordSize, len(data)-4)
	}
	ids := make([]int64, n)
	points := make([]geo.Point, n)
	off := 4
	for j := 0; j < n; j++ {
		ids[j] = int64(binary.LittleEndian.Uint64(data[off : off+8]))
		points[j] = geo.Point{
			X: math.Float64frombits(binary.LittleEndian.Uint64(data[off+8 : off+16])),
			Y: math.Float64frombits(binary.LittleEndian.Uint64(data[off+16 : off+24])),
		}
		off += recordSize
	}
	return ids, points, nil
}

var _ index.Index = (*Index)(nil)

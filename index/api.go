package index

import "github.com/viant/hotelsearch/geo"

// Neighbor is a single kNN hit. Distance is the squared Euclidean distance
// to the query point.
type Neighbor struct {
	ID       int64
	Distance float64
}

// Index defines a generic point index with basic lifecycle methods.
type Index interface {
	// Build constructs the index from the given ids and points.
	// ids and points must have the same length.
	Build(ids []int64, points []geo.Point) error

	// Query runs a kNN search and returns up to k neighbors ordered by
	// ascending distance. When k <= 0 every indexed point is returned.
	Query(query geo.Point, k int) ([]Neighbor, error)

	// Len reports the number of indexed points.
	Len() int

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}

// Kind names an index implementation.
type Kind string

const (
	KindBrute Kind = "brute"
	KindCover Kind = "cover"
	KindAuto  Kind = "auto"
)

// AutoCoverMinPoints is the size from which KindAuto resolves to a cover tree.
const AutoCoverMinPoints = 4000

// Resolve maps KindAuto (or an empty kind) to a concrete kind for n points.
func (k Kind) Resolve(n int) Kind {
	switch k {
	case KindBrute, KindCover:
		return k
	}
	if n >= AutoCoverMinPoints {
		return KindCover
	}
	return KindBrute
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindBrute, KindCover, KindAuto:
		return Kind(s), true
	case "":
		return KindAuto, true
	}
	return "", false
}

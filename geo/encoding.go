package geo

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodedSize is the BLOB length of an encoded point.
const EncodedSize = 16

// EncodePoint encodes p into a BLOB suitable for storage in SQLite: two
// little-endian IEEE 754 float64 values, x first.
func EncodePoint(p Point) []byte {
	b := make([]byte, EncodedSize)
	binary.LittleEndian.PutUint64(b[0:8], math.Float64bits(p.X))
	binary.LittleEndian.PutUint64(b[8:16], math.Float64bits(p.Y))
	return b
}

// DecodePoint decodes a BLOB produced by EncodePoint.
func DecodePoint(b []byte) (Point, error) {
	if len(b) != EncodedSize {
		return Point{}, fmt.Errorf("geo: invalid point blob length %d (want %d)", len(b), EncodedSize)
	}
	return Point{
		X: math.Float64frombits(binary.LittleEndian.Uint64(b[0:8])),
		Y: math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])),
	}, nil
}

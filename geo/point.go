package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is an ordered pair of real coordinates. It is passed by value and
// never mutated once created.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Valid reports whether both coordinates are finite.
func (p Point) Valid() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Float32s returns the point as a float32 vector.
func (p Point) Float32s() []float32 { return []float32{float32(p.X), float32(p.Y)} }

// String formats the point as "x,y".
func (p Point) String() string {
	return strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64)
}

// MarshalJSON encodes the point as a two element array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes a two element array.
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("geo: invalid point %s: %w", string(data), err)
	}
	p.X, p.Y = pair[0], pair[1]
	return nil
}

// ParsePoint accepts "x,y" or a JSON array "[x, y]".
func ParsePoint(raw string) (Point, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Point{}, fmt.Errorf("geo: point string is empty")
	}
	if strings.HasPrefix(s, "[") {
		var p Point
		if err := p.UnmarshalJSON([]byte(s)); err != nil {
			return Point{}, err
		}
		return p, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("geo: point %q must have 2 coordinates, got %d", raw, len(parts))
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("geo: invalid x in %q: %w", raw, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("geo: invalid y in %q: %w", raw, err)
	}
	return Point{X: x, Y: y}, nil
}

package catalog

import (
	"errors"

	"github.com/viant/hotelsearch/geo"
)

// ErrNotFound is returned when a hotel id does not exist.
var ErrNotFound = errors.New("catalog: hotel not found")

// DefaultCapacity is the room count of generated and imported hotels.
const DefaultCapacity = 10

// Brands and Cities used by Generate.
var (
	Brands = []string{"品牌1", "品牌2", "品牌3", "品牌4", "品牌5", "品牌6", "品牌7"}
	Cities = []string{"地点01", "地点02", "地点03", "地点04", "地点05", "地点06", "地点07", "地点08", "地点09", "地点10"}
)

// Hotel is a catalogue entry.
type Hotel struct {
	ID       int64     `json:"id"`
	Brand    string    `json:"brand"`
	Name     string    `json:"name"`
	City     string    `json:"city,omitempty"`
	Location geo.Point `json:"location"`
	Price    int       `json:"price"`
	Rating   float64   `json:"rating"`
	Capacity int       `json:"capacity"`
}

// Match is a hotel returned by a location search. Distance is the Euclidean
// distance to the search point rounded to two decimals.
type Match struct {
	Hotel
	Distance float64 `json:"distance"`
}

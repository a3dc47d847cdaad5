package catalog

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/viant/hotelsearch/geo"
)

// Generate returns n synthetic hotels with ids 1..n drawn from rng.
func Generate(rng *rand.Rand, n int) []Hotel {
	if n <= 0 {
		return nil
	}
	hotels := make([]Hotel, n)
	for i := range hotels {
		brand := Brands[rng.Intn(len(Brands))]
		city := Cities[rng.Intn(len(Cities))]
		x := round2(rng.Float64() * 100)
		y := round2(rng.Float64() * 100)
		hotels[i] = Hotel{
			ID:       int64(i + 1),
			Brand:    brand,
			Name:     fmt.Sprintf("%s %s Hotel #%d", brand, city, i+1),
			City:     city,
			Location: geo.Pt(x, y),
			Price:    200 + rng.Intn(1301),
			Rating:   math.Round((3.0+rng.Float64()*2.0)*10) / 10,
			Capacity: DefaultCapacity,
		}
	}
	return hotels
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

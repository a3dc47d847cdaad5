package search

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// Brand identifies a single search run. It tags every result of the run and
// is the only source of the run's randomness.
type Brand uuid.UUID

// NewBrand draws a fresh random (version 4) brand.
func NewBrand() Brand { return Brand(uuid.New()) }

// ParseBrand parses the canonical UUID text form.
func ParseBrand(s string) (Brand, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Brand{}, err
	}
	return Brand(id), nil
}

// Seed derives the 64-bit seed for the run's random source (FNV-1a over the
// brand bytes).
func (b Brand) Seed() int64 {
	h := fnv.New64a()
	h.Write(b[:])
	return int64(h.Sum64())
}

func (b Brand) String() string { return uuid.UUID(b).String() }

// MarshalText implements encoding.TextMarshaler.
func (b Brand) MarshalText() ([]byte, error) { return uuid.UUID(b).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Brand) UnmarshalText(data []byte) error {
	var id uuid.UUID
	if err := id.UnmarshalText(data); err != nil {
		return err
	}
	*b = Brand(id)
	return nil
}

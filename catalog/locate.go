package catalog

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/viant/hotelsearch/geo"
)

// DefaultLocation is searched when the caller gives no place name.
const DefaultLocation = "Beijing"

// LocateFunc maps a place name to catalogue coordinates.
type LocateFunc func(ctx context.Context, location string) (geo.Point, error)

// HashLocation deterministically places a name on the 100x100 grid: the MD5
// hex digest's first and second 8-digit groups, mod 100, give x and y.
func HashLocation(location string) geo.Point {
	sum := md5.Sum([]byte(location))
	digest := hex.EncodeToString(sum[:])
	x, _ := strconv.ParseUint(digest[0:8], 16, 64)
	y, _ := strconv.ParseUint(digest[8:16], 16, 64)
	return geo.Pt(float64(x%100), float64(y%100))
}

// HashLocator is a LocateFunc backed by HashLocation. An empty name resolves
// DefaultLocation.
func HashLocator(_ context.Context, location string) (geo.Point, error) {
	if strings.TrimSpace(location) == "" {
		location = DefaultLocation
	}
	return HashLocation(location), nil
}

package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/viant/hotelsearch/geo"
	sqlite "modernc.org/sqlite"
)

var registerOnce sync.Once

// RegisterGeoFunctions registers geo_dist2 and geo_dist with the driver so
// they are available on new connections opened after this call.
// Note: existing open connections will not see new functions.
//
//	geo_dist2(a BLOB, b BLOB) REAL  squared Euclidean distance
//	geo_dist(a BLOB, b BLOB)  REAL  Euclidean distance
//
// Both arguments must be produced by geo.EncodePoint; NULL yields NULL.
func RegisterGeoFunctions(_ *sql.DB) error {
	var err error
	registerOnce.Do(func() {
		if err = sqlite.RegisterDeterministicScalarFunction("geo_dist2", 2, geoDist2Impl); err != nil {
			return
		}
		err = sqlite.RegisterDeterministicScalarFunction("geo_dist", 2, geoDistImpl)
	})
	return err
}

func asPoint(arg driver.Value) (*geo.Point, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		p, err := geo.DecodePoint(v)
		if err != nil {
			return nil, err
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("geo: unsupported argument type %T for point; want BLOB", arg)
	}
}

func pointArgs(name string, args []driver.Value) (*geo.Point, *geo.Point, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
	}
	a, err := asPoint(args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := asPoint(args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func geoDist2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := pointArgs("geo_dist2", args)
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	return geo.SquaredDistance(*a, *b), nil
}

func geoDistImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := pointArgs("geo_dist", args)
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	return geo.Distance(*a, *b), nil
}

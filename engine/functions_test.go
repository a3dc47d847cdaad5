package engine

import (
	"math"
	"testing"

	"github.com/viant/hotelsearch/geo"
)

func TestRegisterGeoFunctionsAndUse(t *testing.T) {
	// Register globally before first connection so functions are available.
	if err := RegisterGeoFunctions(nil); err != nil {
		t.Fatalf("RegisterGeoFunctions failed: %v", err)
	}
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	// Idempotent.
	if err := RegisterGeoFunctions(db); err != nil {
		t.Fatalf("RegisterGeoFunctions (second call) failed: %v", err)
	}

	zero := geo.EncodePoint(geo.Pt(0, 0))
	threeFour := geo.EncodePoint(geo.Pt(3, 4))

	var d2 float64
	if err := db.QueryRow(`SELECT geo_dist2(?, ?)`, zero, threeFour).Scan(&d2); err != nil {
		t.Fatalf("geo_dist2 query failed: %v", err)
	}
	if d2 != 25 {
		t.Fatalf("geo_dist2 = %v, want 25", d2)
	}

	var d float64
	if err := db.QueryRow(`SELECT geo_dist(?, ?)`, zero, threeFour).Scan(&d); err != nil {
		t.Fatalf("geo_dist query failed: %v", err)
	}
	if math.Abs(d-5) > 1e-9 {
		t.Fatalf("geo_dist = %v, want 5", d)
	}

	// NULL propagates.
	var null *float64
	if err := db.QueryRow(`SELECT geo_dist(NULL, ?)`, zero).Scan(&null); err != nil {
		t.Fatalf("geo_dist NULL query failed: %v", err)
	}
	if null != nil {
		t.Fatalf("geo_dist(NULL, p) = %v, want NULL", *null)
	}

	// Malformed blobs are rejected.
	if err := db.QueryRow(`SELECT geo_dist2(X'0102', ?)`, zero).Scan(&d2); err == nil {
		t.Fatalf("expected error for malformed blob")
	}
}

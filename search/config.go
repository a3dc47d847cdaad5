package search

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/viant/hotelsearch/geo"
)

// Defaults applied to absent request fields.
const (
	DefaultN      = 1000
	DefaultK      = 10
	DefaultQueryX = 10.0
	DefaultQueryY = 20.0
)

// Request is the caller-facing input; every field is optional.
type Request struct {
	N      *int     `json:"n,omitempty" yaml:"n,omitempty"`
	K      *int     `json:"k,omitempty" yaml:"k,omitempty"`
	QueryX *float64 `json:"query_x,omitempty" yaml:"query_x,omitempty"`
	QueryY *float64 `json:"query_y,omitempty" yaml:"query_y,omitempty"`
}

// Config is a validated, fully populated search configuration.
type Config struct {
	// N is the candidate count.
	N int
	// K is the result count; values above N are clamped.
	K int
	// Query is the point neighbours are measured from.
	Query geo.Point
}

// DefaultConfig returns n=1000, k=10, query=(10,20).
func DefaultConfig() Config {
	return Config{N: DefaultN, K: DefaultK, Query: geo.Pt(DefaultQueryX, DefaultQueryY)}
}

// Validate checks the configuration; failures wrap ErrInvalidArgument.
func (c Config) Validate() error {
	if c.N < 0 {
		return fmt.Errorf("%w: n must be >= 0, got %d", ErrInvalidArgument, c.N)
	}
	if c.K < 0 {
		return fmt.Errorf("%w: k must be >= 0, got %d", ErrInvalidArgument, c.K)
	}
	if !c.Query.Valid() {
		return fmt.Errorf("%w: query %v is not finite", ErrInvalidArgument, c.Query)
	}
	return nil
}

// ResultCount returns min(K, N).
func (c Config) ResultCount() int {
	return min(c.K, c.N)
}

// Config applies defaults to absent fields and validates the result.
func (r Request) Config() (Config, error) {
	cfg := DefaultConfig()
	if r.N != nil {
		cfg.N = *r.N
	}
	if r.K != nil {
		cfg.K = *r.K
	}
	if r.QueryX != nil {
		cfg.Query.X = *r.QueryX
	}
	if r.QueryY != nil {
		cfg.Query.Y = *r.QueryY
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DecodeRequest reads a JSON request. Malformed input, including
// non-numeric fields, wraps ErrInvalidArgument.
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && err != io.EOF {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return req, nil
}

package search

import "errors"

// ErrInvalidArgument is returned for negative counts and non-finite or
// non-numeric query coordinates.
var ErrInvalidArgument = errors.New("search: invalid argument")

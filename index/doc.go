// Package index defines a minimal abstraction for spatial indexes that can be
// built from (id, point) pairs, queried for kNN, and serialized for
// persistence. Implementations in this module include a brute-force baseline
// and a cover tree.
package index

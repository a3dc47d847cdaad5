// Package search implements the nearest-neighbour run at the heart of the
// hotel demo: a fresh run identifier (brand) seeds an invocation-local
// random source, n candidate points are drawn uniformly from [0,100)², the k
// nearest to the query by squared Euclidean distance are kept (stable, ties in
// generation order), and each is decorated with a synthetic value and the
// run brand.
//
// Nothing on the search path is shared between invocations, so concurrent
// runs are independent.
package search

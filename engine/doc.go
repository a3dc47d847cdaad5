// Package engine provides helpers for working with the modernc.org/sqlite
// driver in this module: opening connections and registering the geo_*
// SQL scalar functions used by the hotel catalogue.
package engine

// Package geo defines the planar point model shared by this module. It
// includes:
//   - Point: an immutable (x, y) pair with a compact JSON form
//   - Squared and true Euclidean distance
//   - BLOB encoding used by the SQLite-backed catalogue
package geo

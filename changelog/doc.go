// Package changelog records row-level changes of a watched SQLite table into
// an append-only log stamped with a monotonically increasing SCN (system
// change number). SQLite triggers produce the entries, so every writer of the
// table is captured, including ones that bypass this module.
//
// Readers use LatestSCN as a cheap version of the table: an index built at
// SCN n is current for as long as LatestSCN still returns n.
package changelog

// Package bruteforce provides a simple point index that answers kNN queries
// by scanning all points and ordering them by squared Euclidean distance.
// Ties keep build order. It supports a compact binary format for persistence.
package bruteforce

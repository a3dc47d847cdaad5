// Package cover provides a cover-tree point index. Queries are exact: the
// tree prunes with true Euclidean bounds and hits are re-scored in float64
// squared distance before they are returned. It persists using the
// brute-force encoding behind a COV1 magic prefix.
package cover

// Package knnvt exposes catalogue nearest-hotel search as a SQLite virtual
// table, so hotels near a point can be joined and filtered in plain SQL:
//
//	CREATE VIRTUAL TABLE near USING hotel_knn(hotel_id);
//	SELECT n.hotel_id, n.distance, h.name
//	FROM near n JOIN hotels h ON h.id = n.hotel_id
//	WHERE n.hotel_id MATCH '10,20'
//	LIMIT 5;
//
// The MATCH argument is a point as "x,y", "[x,y]" or a geo.EncodePoint
// BLOB. Rows come nearest first; distance is a hidden column holding the
// Euclidean distance rounded to two decimals. Without MATCH the table lists
// every hotel in id order with a NULL distance.
//
// The module queries the catalogue through its own pool connections, so the
// database must allow more than one connection (a file database, ideally in
// WAL mode).
package knnvt

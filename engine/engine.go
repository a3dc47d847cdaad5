package engine

import (
	"database/sql"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./hotels.sqlite". For in-memory
// databases, pass ":memory:". Every pooled connection to ":memory:" gets its
// own database, so in-memory handles are pinned to a single connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenGeo registers the geo SQL functions and then opens dsn.
func OpenGeo(dsn string) (*sql.DB, error) {
	if err := RegisterGeoFunctions(nil); err != nil {
		return nil, err
	}
	return Open(dsn)
}

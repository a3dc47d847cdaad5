package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/hotelsearch/changelog"
)

// HotelsTable is the catalogue table watched by the change log.
const HotelsTable = "hotels"

const hotelsSchema = `
CREATE TABLE IF NOT EXISTS hotels (
    id       INTEGER PRIMARY KEY,
    brand    TEXT NOT NULL,
    name     TEXT NOT NULL,
    city     TEXT NOT NULL DEFAULT '',
    x        REAL NOT NULL,
    y        REAL NOT NULL,
    loc      BLOB NOT NULL,
    price    INTEGER NOT NULL,
    rating   REAL NOT NULL,
    capacity INTEGER NOT NULL DEFAULT 10
);
`

const indexStorageSchema = `
CREATE TABLE IF NOT EXISTS index_storage (
    name       TEXT PRIMARY KEY,
    kind       TEXT NOT NULL,
    scn        INTEGER NOT NULL,
    data       BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// hotelsSource versions the catalogue by location changes only; bookings
// update capacity without invalidating indexes.
var hotelsSource = changelog.Source{
	Table:        HotelsTable,
	IDColumn:     "id",
	Columns:      []string{"id", "brand", "name", "x", "y"},
	WatchColumns: []string{"x", "y"},
}

// EnsureSchema creates the catalogue tables and change-log triggers if they
// do not already exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, ddl := range []string{hotelsSchema, indexStorageSchema} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("catalog: ensure schema: %w", err)
		}
	}
	return changelog.Install(ctx, db, hotelsSource)
}

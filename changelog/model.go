package changelog

import "time"

// Operations recorded in the log.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// LogEntry mirrors a single row of the log table.
type LogEntry struct {
	Table     string
	SCN       int64
	Op        string
	RowID     int64
	Payload   []byte
	CreatedAt time.Time
}

// Source describes the watched table.
type Source struct {
	// Table is the watched table name (e.g. "hotels").
	Table string

	// IDColumn is the integer key recorded as LogEntry.RowID.
	IDColumn string

	// Columns are serialised into the JSON payload of every entry.
	Columns []string

	// WatchColumns restricts the update trigger to these columns; empty
	// means any update is logged.
	WatchColumns []string
}

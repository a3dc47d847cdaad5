package changelog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const (
	// DefaultLogTable is the change-log table populated by the triggers.
	DefaultLogTable = "hotel_log"

	// DefaultSeqTable stores the current SCN per watched table.
	DefaultSeqTable = "hotel_scn"
)

// LogTableDDL returns the DDL for the log table.
func LogTableDDL(logTable string) string {
	if logTable == "" {
		logTable = DefaultLogTable
	}
	return `CREATE TABLE IF NOT EXISTS ` + logTable + ` (
    table_name TEXT NOT NULL,
    scn        INTEGER NOT NULL,
    op         TEXT NOT NULL,
    row_id     INTEGER NOT NULL,
    payload    BLOB NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (CAST(strftime('%s','now') AS INTEGER)),
    PRIMARY KEY(table_name, scn)
);`
}

// SeqTableDDL returns the DDL for tracking the SCN per table.
func SeqTableDDL(seqTable string) string {
	if seqTable == "" {
		seqTable = DefaultSeqTable
	}
	return `CREATE TABLE IF NOT EXISTS ` + seqTable + ` (
    table_name TEXT PRIMARY KEY,
    next_scn   INTEGER NOT NULL
);`
}

// SQLiteTriggers returns the trigger DDL capturing inserts, updates and
// deletes against src.Table. The payload is a JSON object of src.Columns.
func SQLiteTriggers(src Source, seqTable, logTable string) []string {
	if seqTable == "" {
		seqTable = DefaultSeqTable
	}
	if logTable == "" {
		logTable = DefaultLogTable
	}
	base := sanitizeIdentifier(src.Table)
	payload := func(alias string) string {
		if len(src.Columns) == 0 {
			return "json_object()"
		}
		pairs := make([]string, 0, len(src.Columns))
		for _, col := range src.Columns {
			pairs = append(pairs, fmt.Sprintf("'%s', %s.%s", col, alias, col))
		}
		return "json_object(\n        " + strings.Join(pairs, ",\n        ") + "\n    )"
	}
	advance := fmt.Sprintf(`INSERT INTO %s(table_name, next_scn)
    VALUES ('%s', 1)
    ON CONFLICT(table_name) DO UPDATE SET next_scn = next_scn + 1;`, seqTable, src.Table)
	scnExpr := fmt.Sprintf(`(SELECT next_scn FROM %s WHERE table_name = '%s')`, seqTable, src.Table)

	trigger := func(suffix, event, op, alias string) string {
		return fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_%s AFTER %s ON %s
BEGIN
    %s
    INSERT INTO %s(table_name, scn, op, row_id, payload)
    VALUES (
        '%s',
        %s,
        '%s',
        %s.%s,
        %s
    );
END;`, base, suffix, event, src.Table, advance, logTable, src.Table, scnExpr, op, alias, src.IDColumn, payload(alias))
	}

	updateEvent := "UPDATE"
	if len(src.WatchColumns) > 0 {
		updateEvent = "UPDATE OF " + strings.Join(src.WatchColumns, ", ")
	}
	return []string{
		trigger("ai", "INSERT", OpInsert, "NEW"),
		trigger("au", updateEvent, OpUpdate, "NEW"),
		trigger("ad", "DELETE", OpDelete, "OLD"),
	}
}

// Install creates the log and sequence tables and the triggers for src.
// The watched table must already exist.
func Install(ctx context.Context, db *sql.DB, src Source) error {
	if src.Table == "" || src.IDColumn == "" {
		return fmt.Errorf("changelog: table and id column are required")
	}
	stmts := append([]string{SeqTableDDL(""), LogTableDDL("")}, SQLiteTriggers(src, "", "")...)
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("changelog: install on %s: %w", src.Table, err)
		}
	}
	return nil
}

func sanitizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	replacer := strings.NewReplacer(".", "_", "-", "_")
	return replacer.Replace(name)
}

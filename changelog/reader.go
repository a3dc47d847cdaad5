package changelog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LatestSCN returns the current SCN of table, or 0 when the table has never
// changed.
func LatestSCN(ctx context.Context, db *sql.DB, table string) (int64, error) {
	var scn int64
	err := db.QueryRowContext(ctx, `SELECT next_scn FROM `+DefaultSeqTable+` WHERE table_name = ?`, table).Scan(&scn)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("changelog: latest scn for %s: %w", table, err)
	}
	return scn, nil
}

// Entries returns up to limit entries of table with SCN greater than since,
// in SCN order. limit <= 0 means no limit.
func Entries(ctx context.Context, db *sql.DB, table string, since int64, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `SELECT table_name, scn, op, row_id, payload, created_at
FROM `+DefaultLogTable+`
WHERE table_name = ? AND scn > ?
ORDER BY scn
LIMIT ?`, table, since, limit)
	if err != nil {
		return nil, fmt.Errorf("changelog: entries for %s: %w", table, err)
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var created int64
		if err := rows.Scan(&e.Table, &e.SCN, &e.Op, &e.RowID, &e.Payload, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

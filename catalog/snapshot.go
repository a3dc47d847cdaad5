package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/viant/hotelsearch/geo"
	"github.com/viant/hotelsearch/index"
	"github.com/viant/hotelsearch/index/bruteforce"
	"github.com/viant/hotelsearch/index/cover"
)

// snapshotName keys the catalogue index in index_storage.
const snapshotName = HotelsTable

var (
	snapshotEncoder *zstd.Encoder
	snapshotDecoder *zstd.Decoder
)

func init() {
	var err error
	if snapshotEncoder, err = zstd.NewWriter(nil); err != nil {
		panic(err)
	}
	if snapshotDecoder, err = zstd.NewReader(nil); err != nil {
		panic(err)
	}
}

// snapshot is an index built from the catalogue at a given SCN.
type snapshot struct {
	scn  int64
	kind index.Kind
	idx  index.Index
}

// points reads the catalogue coordinates and the SCN they belong to in one
// transaction.
func (s *SQLiteStore) points(ctx context.Context) (int64, []int64, []geo.Point, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var scn int64
	err = tx.QueryRowContext(ctx, `SELECT next_scn FROM hotel_scn WHERE table_name = ?`, HotelsTable).Scan(&scn)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, nil, nil, err
	}
	rows, err := tx.QueryContext(ctx, `SELECT id, x, y FROM hotels ORDER BY id`)
	if err != nil {
		return 0, nil, nil, err
	}
	defer rows.Close()

	var ids []int64
	var pts []geo.Point
	for rows.Next() {
		var id int64
		var p geo.Point
		if err := rows.Scan(&id, &p.X, &p.Y); err != nil {
			return 0, nil, nil, err
		}
		ids = append(ids, id)
		pts = append(pts, p)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, nil, err
	}
	return scn, ids, pts, nil
}

// saveSnapshot persists snap zstd-compressed.
func (s *SQLiteStore) saveSnapshot(ctx context.Context, snap *snapshot) error {
	raw, err := snap.idx.MarshalBinary()
	if err != nil {
		return err
	}
	data := snapshotEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
	_, err = s.db.ExecContext(ctx, `INSERT INTO index_storage(name, kind, scn, data, updated_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, scn = excluded.scn, data = excluded.data, updated_at = excluded.updated_at`,
		snapshotName, string(snap.kind), snap.scn, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("catalog: save index snapshot: %w", err)
	}
	return nil
}

// loadSnapshot returns the persisted index when it was built at scn, or nil.
func (s *SQLiteStore) loadSnapshot(ctx context.Context, scn int64, coverOpts []cover.Option) (*snapshot, error) {
	var kind string
	var storedSCN int64
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT kind, scn, data FROM index_storage WHERE name = ?`, snapshotName).Scan(&kind, &storedSCN, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if storedSCN != scn {
		return nil, nil
	}
	raw, err := snapshotDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: decompress index snapshot: %w", err)
	}
	var idx index.Index
	if cover.IsCoverBlob(raw) {
		idx = cover.New(coverOpts...)
	} else {
		idx = &bruteforce.Index{}
	}
	if err := idx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("catalog: decode index snapshot: %w", err)
	}
	return &snapshot{scn: storedSCN, kind: index.Kind(kind), idx: idx}, nil
}

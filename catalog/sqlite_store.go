package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/viant/hotelsearch/changelog"
	"github.com/viant/hotelsearch/geo"
)

const hotelColumns = `id, brand, name, city, x, y, price, rating, capacity`

// SQLiteStore keeps the catalogue in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over db and ensures the catalogue schema
// exists.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("catalog: db is nil")
	}
	if err := EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// DB returns the underlying database handle.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// AddHotels inserts or replaces hotels and returns their ids. A zero
// Hotel.ID is assigned by the database; a zero Capacity becomes
// DefaultCapacity.
func (s *SQLiteStore) AddHotels(ctx context.Context, hotels []Hotel) ([]int64, error) {
	if len(hotels) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO hotels(id, brand, name, city, x, y, loc, price, rating, capacity)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    brand = excluded.brand, name = excluded.name, city = excluded.city,
    x = excluded.x, y = excluded.y, loc = excluded.loc,
    price = excluded.price, rating = excluded.rating, capacity = excluded.capacity`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(hotels))
	for _, h := range hotels {
		if h.Name == "" {
			return nil, fmt.Errorf("catalog: hotel name is required")
		}
		if !h.Location.Valid() {
			return nil, fmt.Errorf("catalog: hotel %q location %v is not finite", h.Name, h.Location)
		}
		if h.Capacity == 0 {
			h.Capacity = DefaultCapacity
		}
		var id any
		if h.ID != 0 {
			id = h.ID
		}
		res, err := stmt.ExecContext(ctx, id, h.Brand, h.Name, h.City,
			h.Location.X, h.Location.Y, geo.EncodePoint(h.Location), h.Price, h.Rating, h.Capacity)
		if err != nil {
			return nil, err
		}
		if h.ID == 0 {
			if h.ID, err = res.LastInsertId(); err != nil {
				return nil, err
			}
		}
		ids = append(ids, h.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Hotel loads one hotel by id.
func (s *SQLiteStore) Hotel(ctx context.Context, id int64) (*Hotel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE id = ?`, id)
	h, err := scanHotel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Hotels returns the whole catalogue ordered by id.
func (s *SQLiteStore) Hotels(ctx context.Context) ([]Hotel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+hotelColumns+` FROM hotels ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHotels(rows)
}

// HotelsByID loads the given hotels keyed by id. Unknown ids are skipped.
func (s *SQLiteStore) HotelsByID(ctx context.Context, ids []int64) (map[int64]Hotel, error) {
	out := make(map[int64]Hotel, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hotels, err := scanHotels(rows)
	if err != nil {
		return nil, err
	}
	for _, h := range hotels {
		out[h.ID] = h
	}
	return out, nil
}

// Move relocates a hotel.
func (s *SQLiteStore) Move(ctx context.Context, id int64, loc geo.Point) error {
	if !loc.Valid() {
		return fmt.Errorf("catalog: location %v is not finite", loc)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE hotels SET x = ?, y = ?, loc = ? WHERE id = ?`, loc.X, loc.Y, geo.EncodePoint(loc), id)
	if err != nil {
		return err
	}
	return expectRow(res, id)
}

// Remove deletes a hotel by id.
func (s *SQLiteStore) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hotels WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res, id)
}

// NearestSQL ranks hotels inside SQLite with geo_dist2. It needs the geo
// functions registered (engine.OpenGeo) and serves as the reference for the
// in-memory indexes.
func (s *SQLiteStore) NearestSQL(ctx context.Context, p geo.Point, k int) ([]Match, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("catalog: query %v is not finite", p)
	}
	if k <= 0 {
		k = -1
	}
	blob := geo.EncodePoint(p)
	rows, err := s.db.QueryContext(ctx, `SELECT `+hotelColumns+`, geo_dist(loc, ?) AS d
FROM hotels
ORDER BY geo_dist2(loc, ?), id
LIMIT ?`, blob, blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Brand, &m.Name, &m.City, &m.Location.X, &m.Location.Y,
			&m.Price, &m.Rating, &m.Capacity, &m.Distance); err != nil {
			return nil, err
		}
		m.Distance = round2(m.Distance)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SoldOut returns the ids of hotels with no capacity left.
func (s *SQLiteStore) SoldOut(ctx context.Context) (*roaring64.Bitmap, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM hotels WHERE capacity <= 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bm := roaring64.New()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		bm.Add(uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bm, nil
}

// SCN returns the current catalogue version.
func (s *SQLiteStore) SCN(ctx context.Context) (int64, error) {
	return changelog.LatestSCN(ctx, s.db, HotelsTable)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHotel(row rowScanner) (*Hotel, error) {
	var h Hotel
	if err := row.Scan(&h.ID, &h.Brand, &h.Name, &h.City, &h.Location.X, &h.Location.Y,
		&h.Price, &h.Rating, &h.Capacity); err != nil {
		return nil, err
	}
	return &h, nil
}

func scanHotels(rows *sql.Rows) ([]Hotel, error) {
	var out []Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func expectRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

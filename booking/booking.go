// Package booking reserves rooms in catalogue hotels.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/viant/hotelsearch/catalog"
	"github.com/viant/hotelsearch/metrics"
)

var (
	// ErrSoldOut is returned when the hotel has no rooms left.
	ErrSoldOut = errors.New("booking: hotel is sold out")

	// ErrInvalidRequest is returned for malformed booking requests.
	ErrInvalidRequest = errors.New("booking: invalid request")
)

const bookingsSchema = `
CREATE TABLE IF NOT EXISTS bookings (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    confirmation_id TEXT NOT NULL,
    hotel_id        INTEGER NOT NULL,
    guest           TEXT NOT NULL,
    booked_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS bookings_hotel_id ON bookings(hotel_id);
`

// Request asks for one room in a hotel.
type Request struct {
	HotelID int64  `json:"hotel_id" yaml:"hotel_id"`
	Guest   string `json:"guest,omitempty" yaml:"guest,omitempty"`
}

// Booking is a confirmed reservation.
type Booking struct {
	ID             int64     `json:"id"`
	ConfirmationID string    `json:"confirmation_id"`
	HotelID        int64     `json:"hotel_id"`
	HotelName      string    `json:"hotel_name"`
	Guest          string    `json:"guest"`
	Remaining      int       `json:"remaining"`
	BookedAt       time.Time `json:"booked_at"`
}

// ConfirmationID derives the confirmation code for a hotel name:
// "CONF-" followed by FNV-1a 32 of the name modulo 1,000,000.
func ConfirmationID(hotelName string) string {
	h := fnv.New32a()
	h.Write([]byte(hotelName))
	return fmt.Sprintf("CONF-%d", h.Sum32()%1000000)
}

// Service books rooms against the catalogue tables.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

// NewService ensures the catalogue and bookings schema on db.
func NewService(ctx context.Context, db *sql.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("booking: db is nil")
	}
	if err := catalog.EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, bookingsSchema); err != nil {
		return nil, fmt.Errorf("booking: ensure schema: %w", err)
	}
	return &Service{db: db, now: time.Now}, nil
}

// Book reserves one room: capacity is checked and decremented and the
// booking recorded in a single transaction.
func (s *Service) Book(ctx context.Context, req Request) (*Booking, error) {
	b, err := s.book(ctx, req)
	switch {
	case err == nil:
		metrics.ObserveBooking(metrics.OutcomeConfirmed)
		logrus.Infof("booking confirmed for %s (%s), %d rooms left", b.HotelName, b.ConfirmationID, b.Remaining)
	case errors.Is(err, ErrSoldOut):
		metrics.ObserveBooking(metrics.OutcomeSoldOut)
	case errors.Is(err, catalog.ErrNotFound):
		metrics.ObserveBooking(metrics.OutcomeNotFound)
	default:
		metrics.ObserveBooking(metrics.OutcomeError)
	}
	return b, err
}

func (s *Service) book(ctx context.Context, req Request) (*Booking, error) {
	if req.HotelID <= 0 {
		return nil, fmt.Errorf("%w: hotel id must be positive, got %d", ErrInvalidRequest, req.HotelID)
	}
	guest := req.Guest
	if guest == "" {
		guest = "guest"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var name string
	var capacity int
	err = tx.QueryRowContext(ctx, `SELECT name, capacity FROM hotels WHERE id = ?`, req.HotelID).Scan(&name, &capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", catalog.ErrNotFound, req.HotelID)
	}
	if err != nil {
		return nil, err
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrSoldOut, name)
	}
	res, err := tx.ExecContext(ctx, `UPDATE hotels SET capacity = capacity - 1 WHERE id = ? AND capacity > 0`, req.HotelID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSoldOut, name)
	}

	b := &Booking{
		ConfirmationID: ConfirmationID(name),
		HotelID:        req.HotelID,
		HotelName:      name,
		Guest:          guest,
		Remaining:      capacity - 1,
		BookedAt:       s.now().UTC().Truncate(time.Second),
	}
	res, err = tx.ExecContext(ctx, `INSERT INTO bookings(confirmation_id, hotel_id, guest, booked_at) VALUES(?, ?, ?, ?)`,
		b.ConfirmationID, b.HotelID, b.Guest, b.BookedAt.Unix())
	if err != nil {
		return nil, err
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return b, nil
}

// Bookings lists the reservations of a hotel in booking order.
func (s *Service) Bookings(ctx context.Context, hotelID int64) ([]Booking, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT b.id, b.confirmation_id, b.hotel_id, COALESCE(h.name, ''), b.guest, b.booked_at
FROM bookings b LEFT JOIN hotels h ON h.id = b.hotel_id
WHERE b.hotel_id = ?
ORDER BY b.id`, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		var bookedAt int64
		if err := rows.Scan(&b.ID, &b.ConfirmationID, &b.HotelID, &b.HotelName, &b.Guest, &bookedAt); err != nil {
			return nil, err
		}
		b.BookedAt = time.Unix(bookedAt, 0).UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

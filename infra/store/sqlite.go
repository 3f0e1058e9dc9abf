package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sambhavthakkar/PulseDrive/core/ledger"
	"github.com/sambhavthakkar/PulseDrive/core/model"
)

// SQLiteStore persists reservations in a SQLite database. A partial unique
// index allows a single confirmed reservation per slot id.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS reservations (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        booking_id TEXT NOT NULL UNIQUE,
        vehicle_id TEXT NOT NULL,
        slot_id TEXT NOT NULL,
        status TEXT NOT NULL,
        created_at INTEGER NOT NULL,
        record TEXT NOT NULL
    );
    CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_active_slot
        ON reservations(slot_id) WHERE status = 'confirmed';`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// List returns all reservations ordered by insertion.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, status, record FROM reservations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Reservation
	for rows.Next() {
		var (
			id     int64
			status string
			data   string
		)
		if err := rows.Scan(&id, &status, &data); err != nil {
			return nil, err
		}
		var r model.Reservation
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("decode reservation %d: %w", id, err)
		}
		r.Status = model.ReservationStatus(status)
		r.StoreRef = strconv.FormatInt(id, 10)
		res = append(res, r)
	}
	return res, rows.Err()
}

// Create inserts the reservation. A second confirmed reservation for the
// same slot fails with ledger.ErrSlotUnavailable.
func (s *SQLiteStore) Create(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	if r.Status == "" {
		r.Status = model.StatusConfirmed
	}
	r.StoreRef = ""
	b, err := json.Marshal(r)
	if err != nil {
		return model.Reservation{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reservations (booking_id, vehicle_id, slot_id, status, created_at, record) VALUES (?, ?, ?, ?, ?, ?)`,
		r.BookingID, r.VehicleID, r.SlotID, string(r.Status), r.CreatedAt.UnixNano(), string(b))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Reservation{}, fmt.Errorf("slot %s: %w", r.SlotID, ledger.ErrSlotUnavailable)
		}
		return model.Reservation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Reservation{}, err
	}
	r.StoreRef = strconv.FormatInt(id, 10)
	return r, nil
}

// Remove marks the reservation cancelled, freeing its slot in the index.
func (s *SQLiteStore) Remove(ctx context.Context, r model.Reservation) error {
	r.Status = model.StatusCancelled
	ref := r.StoreRef
	r.StoreRef = ""
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	var res sql.Result
	if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		res, err = s.db.ExecContext(ctx,
			`UPDATE reservations SET status = ?, record = ? WHERE id = ?`, string(r.Status), string(b), id)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE reservations SET status = ?, record = ? WHERE booking_id = ?`, string(r.Status), string(b), r.BookingID)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

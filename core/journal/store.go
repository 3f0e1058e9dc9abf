// Package journal keeps an append-only audit trail of booking activity:
// confirmations, rejections and cancellations. Entries are written by a bus
// consumer and can be queried by time range, vehicle and kind.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/sambhavthakkar/PulseDrive/config"
)

// Entry kinds.
const (
	KindConfirmed = "confirmed"
	KindRejected  = "rejected"
	KindCancelled = "cancelled"
)

// Entry is one journal line.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	Kind        string    `json:"kind"`
	BookingID   string    `json:"booking_id,omitempty"`
	VehicleID   string    `json:"vehicle_id"`
	SlotID      string    `json:"slot_id,omitempty"`
	CenterID    string    `json:"center_id,omitempty"`
	ServiceType string    `json:"service_type,omitempty"`
	SlotTime    time.Time `json:"slot_time,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Query filters entries. Zero values match everything.
type Query struct {
	Start     time.Time
	End       time.Time
	VehicleID string
	Kind      string
}

// Match reports whether e satisfies q.
func (q Query) Match(e Entry) bool {
	if !q.Start.IsZero() && e.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.Timestamp.After(q.End) {
		return false
	}
	if q.VehicleID != "" && e.VehicleID != q.VehicleID {
		return false
	}
	if q.Kind != "" && e.Kind != q.Kind {
		return false
	}
	return true
}

// Store persists entries and supports querying.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, q Query) ([]Entry, error)
	Close() error
}

// Open creates the store selected by cfg. The "none" backend returns a
// store that discards writes.
func Open(cfg config.JournalConfig) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "jsonl":
		if cfg.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return NewJSONLStore(cfg.Path)
	case "none":
		return discard{}, nil
	}
	return nil, fmt.Errorf("unknown journal backend %s", cfg.Backend)
}

type discard struct{}

func (discard) Append(context.Context, Entry) error           { return nil }
func (discard) Query(context.Context, Query) ([]Entry, error) { return nil, nil }
func (discard) Close() error                                  { return nil }

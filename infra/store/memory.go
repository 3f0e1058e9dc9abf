// Package store provides reservation store backends for the ledger: an
// in-memory store, a SQLite store and an adapter for the remote booking API.
package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/sambhavthakkar/PulseDrive/core/ledger"
	"github.com/sambhavthakkar/PulseDrive/core/model"
)

// MemoryStore keeps reservations in process memory. It enforces one active
// reservation per slot like the durable stores do.
type MemoryStore struct {
	mu      sync.Mutex
	records []model.Reservation
	seq     int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) List(ctx context.Context) ([]model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reservation, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return model.Reservation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.Active() && existing.SlotID == r.SlotID {
			return model.Reservation{}, fmt.Errorf("slot %s held by %s: %w", r.SlotID, existing.BookingID, ledger.ErrSlotUnavailable)
		}
	}
	s.seq++
	r.StoreRef = strconv.Itoa(s.seq)
	s.records = append(s.records, r)
	return r, nil
}

// Remove marks the reservation cancelled. The record is kept so listings
// report the cancellation.
func (s *MemoryStore) Remove(ctx context.Context, r model.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		rec := &s.records[i]
		if (r.StoreRef != "" && rec.StoreRef == r.StoreRef) || (r.BookingID != "" && rec.BookingID == r.BookingID) {
			rec.Status = model.StatusCancelled
			return nil
		}
	}
	return ledger.ErrNotFound
}

package ledger

import (
	"context"
	"time"

	"github.com/sambhavthakkar/PulseDrive/core/model"
)

// Store persists reservations. Implementations must be safe for concurrent
// use and may be slow or unreliable.
type Store interface {
	// List returns every reservation known to the store, including
	// cancelled ones when the store keeps them.
	List(ctx context.Context) ([]model.Reservation, error)
	// Create persists a new reservation and returns the stored record. A
	// store that detects the slot is already held returns an error wrapping
	// ErrSlotUnavailable.
	Create(ctx context.Context, r model.Reservation) (model.Reservation, error)
}

// Remover is implemented by stores that can release a reservation.
type Remover interface {
	Remove(ctx context.Context, r model.Reservation) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

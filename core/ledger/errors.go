package ledger

import (
	"context"
	"errors"
)

var (
	// ErrSlotUnavailable means the slot is already held by another reservation.
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrInvalidSlot means the slot id is malformed or outside the current window.
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrInvalidRequest means required booking fields are missing.
	ErrInvalidRequest = errors.New("invalid booking request")
	// ErrNotFound means no active reservation has the given booking id.
	ErrNotFound = errors.New("booking not found")
	// ErrStoreUnavailable means the reservation store could not be reached.
	ErrStoreUnavailable = errors.New("reservation store unavailable")
)

// Outcome maps an operation error to the short label used in metrics, events
// and the booking journal.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrInvalidSlot):
		return "invalid_slot"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

package events

import (
	"time"

	"github.com/sambhavthakkar/PulseDrive/core/model"
)

// Event is any value published on the scheduling bus.
type Event interface{}

// BookingConfirmed is published after a reservation is durably recorded.
type BookingConfirmed struct {
	Reservation model.Reservation
	Latency     time.Duration
}

// BookingRejected is published when a confirm attempt does not produce a
// reservation. Outcome is a short machine readable reason such as
// "slot_unavailable".
type BookingRejected struct {
	VehicleID   string
	SlotID      string
	CenterID    string
	ServiceType string
	Outcome     string
	Err         error
	At          time.Time
}

// BookingCancelled is published after a reservation releases its slot.
type BookingCancelled struct {
	Reservation model.Reservation
	At          time.Time
}

// AvailabilityQueried reports the outcome of an availability query.
// Available holds the number of free slots per center before any limit.
type AvailabilityQueried struct {
	Available map[string]int
	Degraded  bool
	Latency   time.Duration
}

// StoreDegraded reports a failed reservation store operation.
type StoreDegraded struct {
	Op  string
	Err error
	At  time.Time
}

// BatchCompleted summarises a batch scheduling run.
type BatchCompleted struct {
	Requests      int
	Assigned      int
	Unassigned    int
	Retries       int
	MeanLeadHours float64
	Duration      time.Duration
}

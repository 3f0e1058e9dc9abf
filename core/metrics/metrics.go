package metrics

import "time"

// BookingEvent is the outcome of a single confirm attempt.
type BookingEvent struct {
	BookingID   string
	VehicleID   string
	CenterID    string
	ServiceType string
	// Outcome is "confirmed" or a rejection label such as "slot_unavailable".
	Outcome    string
	CostAmount float64
	Latency    time.Duration
	Time       time.Time
}

// MetricsSink records scheduling activity.
type MetricsSink interface {
	RecordBooking(ev BookingEvent) error
}

// CancellationEvent describes a released reservation.
type CancellationEvent struct {
	BookingID string
	VehicleID string
	CenterID  string
	SlotID    string
	Time      time.Time
}

// CancellationRecorder records cancellations.
type CancellationRecorder interface {
	RecordCancellation(ev CancellationEvent) error
}

// AvailabilityEvent describes an availability query.
type AvailabilityEvent struct {
	Available map[string]int
	Degraded  bool
	Latency   time.Duration
	Time      time.Time
}

// AvailabilityRecorder records availability queries.
type AvailabilityRecorder interface {
	RecordAvailability(ev AvailabilityEvent) error
}

// StoreFailureEvent describes a failed reservation store call.
type StoreFailureEvent struct {
	Op    string
	Error string
	Time  time.Time
}

// StoreFailureRecorder records store failures.
type StoreFailureRecorder interface {
	RecordStoreFailure(ev StoreFailureEvent) error
}

// BatchEvent summarises a batch scheduling run.
type BatchEvent struct {
	Requests      int
	Assigned      int
	Unassigned    int
	Retries       int
	MeanLeadHours float64
	Duration      time.Duration
	Time          time.Time
}

// BatchRecorder records batch runs.
type BatchRecorder interface {
	RecordBatch(ev BatchEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordBooking(BookingEvent) error           { return nil }
func (NopSink) RecordCancellation(CancellationEvent) error { return nil }
func (NopSink) RecordAvailability(AvailabilityEvent) error { return nil }
func (NopSink) RecordStoreFailure(StoreFailureEvent) error { return nil }
func (NopSink) RecordBatch(BatchEvent) error               { return nil }

package metrics

import (
	"errors"
	"io"
)

// MultiSink fans events out to several sinks. Every sink is called even when
// an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordBooking(ev BookingEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordBooking(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordCancellation(ev CancellationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(CancellationRecorder); ok {
			errs = append(errs, r.RecordCancellation(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordAvailability(ev AvailabilityEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(AvailabilityRecorder); ok {
			errs = append(errs, r.RecordAvailability(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordStoreFailure(ev StoreFailureEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(StoreFailureRecorder); ok {
			errs = append(errs, r.RecordStoreFailure(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordBatch(ev BatchEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(BatchRecorder); ok {
			errs = append(errs, r.RecordBatch(ev))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

package journal

import (
	"context"
	"time"

	"github.com/sambhavthakkar/PulseDrive/core/events"
	"github.com/sambhavthakkar/PulseDrive/core/logger"
	"github.com/sambhavthakkar/PulseDrive/core/monitoring"
	"github.com/sambhavthakkar/PulseDrive/internal/eventbus"
)

// FromEvent converts a booking event to a journal entry. Events that are not
// about bookings report false.
func FromEvent(ev events.Event) (Entry, bool) {
	switch e := ev.(type) {
	case events.BookingConfirmed:
		r := e.Reservation
		ts := r.CreatedAt
		if ts.IsZero() {
			ts = time.Now()
		}
		return Entry{
			Timestamp:   ts,
			Kind:        KindConfirmed,
			BookingID:   r.BookingID,
			VehicleID:   r.VehicleID,
			SlotID:      r.SlotID,
			CenterID:    r.CenterID,
			ServiceType: r.ServiceType,
			SlotTime:    r.SlotTime,
			Outcome:     KindConfirmed,
		}, true
	case events.BookingRejected:
		en := Entry{
			Timestamp:   e.At,
			Kind:        KindRejected,
			VehicleID:   e.VehicleID,
			SlotID:      e.SlotID,
			CenterID:    e.CenterID,
			ServiceType: e.ServiceType,
			Outcome:     e.Outcome,
		}
		if e.Err != nil {
			en.Error = e.Err.Error()
		}
		return en, true
	case events.BookingCancelled:
		r := e.Reservation
		return Entry{
			Timestamp:   e.At,
			Kind:        KindCancelled,
			BookingID:   r.BookingID,
			VehicleID:   r.VehicleID,
			SlotID:      r.SlotID,
			CenterID:    r.CenterID,
			ServiceType: r.ServiceType,
			SlotTime:    r.SlotTime,
			Outcome:     KindCancelled,
		}, true
	}
	return Entry{}, false
}

// StartRecorder appends every booking event from bus to store until ctx is
// cancelled or the bus closes. The returned channel is closed on exit.
func StartRecorder(ctx context.Context, bus *eventbus.Bus[events.Event], store Store, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || store == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.SubscribeQueued()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				en, ok := FromEvent(ev)
				if !ok {
					continue
				}
				if err := store.Append(ctx, en); err != nil {
					log.Errorf("journal append %s %s: %v", en.Kind, en.VehicleID, err)
					monitoring.Capture(err, "journal", "append")
				}
			}
		}
	}()
	return done
}

package metrics

import (
	"context"
	"time"

	"github.com/sambhavthakkar/PulseDrive/core/events"
	"github.com/sambhavthakkar/PulseDrive/core/ledger"
	coremetrics "github.com/sambhavthakkar/PulseDrive/core/metrics"
	"github.com/sambhavthakkar/PulseDrive/infra/logger"
	"github.com/sambhavthakkar/PulseDrive/internal/eventbus"
)

// StartEventCollector subscribes to the bus and records every scheduling
// event on sink until ctx is cancelled or the bus closes. The returned
// channel is closed once the collector has stopped.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.SubscribeBuffered(64)
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
				if err := record(sink, ev); err != nil {
					log.Warnf("metrics sink: %v", err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event) error {
	switch e := ev.(type) {
	case events.BookingConfirmed:
		r := e.Reservation
		return sink.RecordBooking(coremetrics.BookingEvent{
			BookingID:   r.BookingID,
			VehicleID:   r.VehicleID,
			CenterID:    r.CenterID,
			ServiceType: r.ServiceType,
			Outcome:     ledger.Outcome(nil),
			CostAmount:  r.CostAmount,
			Latency:     e.Latency,
			Time:        r.CreatedAt,
		})
	case events.BookingRejected:
		return sink.RecordBooking(coremetrics.BookingEvent{
			VehicleID:   e.VehicleID,
			CenterID:    e.CenterID,
			ServiceType: e.ServiceType,
			Outcome:     e.Outcome,
			Time:        e.At,
		})
	case events.BookingCancelled:
		if r, ok := sink.(coremetrics.CancellationRecorder); ok {
			return r.RecordCancellation(coremetrics.CancellationEvent{
				BookingID: e.Reservation.BookingID,
				VehicleID: e.Reservation.VehicleID,
				CenterID:  e.Reservation.CenterID,
				SlotID:    e.Reservation.SlotID,
				Time:      e.At,
			})
		}
	case events.AvailabilityQueried:
		if r, ok := sink.(coremetrics.AvailabilityRecorder); ok {
			return r.RecordAvailability(coremetrics.AvailabilityEvent{
				Available: e.Available,
				Degraded:  e.Degraded,
				Latency:   e.Latency,
				Time:      time.Now(),
			})
		}
	case events.StoreDegraded:
		if r, ok := sink.(coremetrics.StoreFailureRecorder); ok {
			msg := ""
			if e.Err != nil {
				msg = e.Err.Error()
			}
			return r.RecordStoreFailure(coremetrics.StoreFailureEvent{Op: e.Op, Error: msg, Time: e.At})
		}
	case events.BatchCompleted:
		if r, ok := sink.(coremetrics.BatchRecorder); ok {
			return r.RecordBatch(coremetrics.BatchEvent{
				Requests:      e.Requests,
				Assigned:      e.Assigned,
				Unassigned:    e.Unassigned,
				Retries:       e.Retries,
				MeanLeadHours: e.MeanLeadHours,
				Duration:      e.Duration,
				Time:          time.Now(),
			})
		}
	}
	return nil
}

// Package notify turns booking events into owner notifications and hands
// them to pluggable transports.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/sambhavthakkar/PulseDrive/core/events"
	"github.com/sambhavthakkar/PulseDrive/core/factory"
	"github.com/sambhavthakkar/PulseDrive/core/logger"
	"github.com/sambhavthakkar/PulseDrive/core/model"
	"github.com/sambhavthakkar/PulseDrive/core/monitoring"
	"github.com/sambhavthakkar/PulseDrive/internal/eventbus"
)

// Notification kinds.
const (
	KindConfirmed = "confirmed"
	KindCancelled = "cancelled"
)

// Notification is the message sent to a vehicle owner.
type Notification struct {
	MessageID     string    `json:"message_id"`
	Kind          string    `json:"kind"`
	BookingID     string    `json:"booking_id"`
	VehicleID     string    `json:"vehicle_id"`
	OwnerName     string    `json:"owner_name,omitempty"`
	OwnerContact  string    `json:"owner_contact,omitempty"`
	SlotID        string    `json:"slot_id"`
	CenterID      string    `json:"center_id"`
	CenterName    string    `json:"center_name,omitempty"`
	SlotTime      time.Time `json:"slot_time"`
	ServiceType   string    `json:"service_type"`
	EstimatedCost string    `json:"estimated_cost,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// FromEvent builds a notification for confirmations and cancellations.
func FromEvent(ev events.Event) (Notification, bool) {
	var (
		n  Notification
		at time.Time
	)
	switch e := ev.(type) {
	case events.BookingConfirmed:
		n.Kind = KindConfirmed
		n = fill(n, e.Reservation)
		at = e.Reservation.CreatedAt
	case events.BookingCancelled:
		n.Kind = KindCancelled
		n = fill(n, e.Reservation)
		at = e.At
	default:
		return Notification{}, false
	}
	if at.IsZero() {
		at = time.Now()
	}
	n.Timestamp = at
	n.MessageID = uuid.NewString()
	return n, true
}

// Multi fans a notification out to several notifiers and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes the notifiers that hold connections.
func (m Multi) Close() error {
	var errs []error
	for _, nt := range m {
		if c, ok := nt.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

var registry = factory.NewRegistry[Notifier]()

// RegisterNotifier adds a notifier factory identified by name.
func RegisterNotifier(name string, f factory.Factory[Notifier]) error {
	return registry.Register(name, f)
}

// NewNotifier builds the notifiers described by cfgs. It returns nil when
// none are configured.
func NewNotifier(cfgs []factory.ModuleConfig) (Notifier, error) {
	if len(cfgs) == 0 {
		return nil, nil
	}
	out := make(Multi, 0, len(cfgs))
	for _, c := range cfgs {
		n, err := registry.Create(c)
		if err != nil {
			_ = out.Close()
			return nil, fmt.Errorf("notifier %q: %w", c.Type, err)
		}
		out = append(out, n)
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

// StartDispatcher delivers a notification for every confirmation and
// cancellation published on bus until ctx is cancelled or the bus closes.
// Delivery failures are logged and reported; they never affect bookings.
func StartDispatcher(ctx context.Context, bus *eventbus.Bus[events.Event], n Notifier, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || n == nil {
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
				msg, ok := FromEvent(ev)
				if !ok {
					continue
				}
				if err := n.Notify(ctx, msg); err != nil {
					log.Errorf("notify %s %s: %v", msg.Kind, msg.BookingID, err)
					monitoring.CaptureException(err, map[string]string{
						"component":  "notify",
						"vehicle_id": msg.VehicleID,
						"booking_id": msg.BookingID,
					})
				}
			}
		}
	}()
	return done
}

func fill(n Notification, r model.Reservation) Notification {
	n.BookingID = r.BookingID
	n.VehicleID = r.VehicleID
	n.OwnerName = r.Owner.Name
	n.OwnerContact = r.Owner.Contact
	n.SlotID = r.SlotID
	n.CenterID = r.CenterID
	n.CenterName = r.CenterName
	n.SlotTime = r.SlotTime
	n.ServiceType = r.ServiceType
	n.EstimatedCost = r.EstimatedCost
	return n
}

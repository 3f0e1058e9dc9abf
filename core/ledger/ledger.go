package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sambhavthakkar/PulseDrive/core/events"
	"github.com/sambhavthakkar/PulseDrive/core/logger"
	"github.com/sambhavthakkar/PulseDrive/core/model"
	"github.com/sambhavthakkar/PulseDrive/core/monitoring"
	"github.com/sambhavthakkar/PulseDrive/core/slots"
)

// Publisher receives ledger events. *eventbus.Bus[events.Event] satisfies it.
type Publisher interface {
	Publish(events.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

// Query narrows an availability search. Zero values mean "no constraint",
// except WithinHours which defaults to the generator window.
type Query struct {
	WithinHours int
	CenterID    string
	// Date is matched as a substring of the slot time rendered with
	// model.DateLayout, so "2025-01-02" selects a day and "T09" an hour.
	Date  string
	Limit int
}

// BookingRequest carries the fields needed to confirm a slot.
type BookingRequest struct {
	VehicleID   string      `json:"vehicle_id"`
	Owner       model.Owner `json:"owner"`
	SlotID      string      `json:"slot_id"`
	ServiceType string      `json:"service_type"`
	Notes       string      `json:"notes,omitempty"`
}

// Validate checks the mandatory fields.
func (r BookingRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.VehicleID) == "" {
		missing = append(missing, "vehicle_id")
	}
	if strings.TrimSpace(r.SlotID) == "" {
		missing = append(missing, "slot_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option { return func(l *Ledger) { l.clock = c } }

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option { return func(l *Ledger) { l.log = log } }

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option { return func(l *Ledger) { l.pub = p } }

// WithPricing sets the cost table. Defaults are applied to it.
func WithPricing(p PricingConfig) Option {
	return func(l *Ledger) {
		p.SetDefaults()
		l.pricing = p
	}
}

// Ledger tracks reservations and the set of taken slot ids.
type Ledger struct {
	gen     slots.Generator
	store   Store
	pricing PricingConfig
	clock   Clock
	log     logger.Logger
	pub     Publisher

	// mu guards every field below. Commits hold it across the store round
	// trip so that check and set cannot interleave.
	mu        sync.Mutex
	bookings  map[string]model.Reservation
	order     []string
	taken     map[string]string
	cancelled map[string]struct{}
}

// New creates a ledger over the given generator and store.
func New(gen slots.Generator, store Store, opts ...Option) *Ledger {
	l := &Ledger{
		gen:       gen,
		store:     store,
		clock:     SystemClock{},
		log:       logger.NopLogger{},
		pub:       nopPublisher{},
		bookings:  make(map[string]model.Reservation),
		taken:     make(map[string]string),
		cancelled: make(map[string]struct{}),
	}
	l.pricing.SetDefaults()
	for _, o := range opts {
		o(l)
	}
	return l
}

// Centers lists the service centers served by this ledger.
func (l *Ledger) Centers() []model.ServiceCenter { return l.gen.Centers() }

// FindAvailableSlots returns free candidate slots sorted by time. A store
// failure does not fail the query: the ledger falls back to the taken set it
// already knows and reports the degradation.
func (l *Ledger) FindAvailableSlots(ctx context.Context, q Query) ([]model.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	degraded := l.refresh(ctx)

	now := l.clock.Now()
	base := slots.TruncateHour(now)
	within := l.gen.Window()
	if q.WithinHours > 0 {
		within = time.Duration(q.WithinHours) * time.Hour
	}
	candidates := l.gen.Generate(now)

	l.mu.Lock()
	free := make([]model.Slot, 0, len(candidates))
	for _, s := range candidates {
		if _, taken := l.taken[s.ID]; !taken {
			free = append(free, s)
		}
	}
	l.mu.Unlock()

	out := free[:0]
	perCenter := make(map[string]int)
	for _, s := range free {
		if s.Time.Before(base) || s.Time.Sub(base) > within {
			continue
		}
		if q.CenterID != "" && s.CenterID != q.CenterID {
			continue
		}
		if q.Date != "" && !strings.Contains(s.Time.Format(model.DateLayout), q.Date) {
			continue
		}
		perCenter[s.CenterID]++
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	l.pub.Publish(events.AvailabilityQueried{Available: perCenter, Degraded: degraded, Latency: time.Since(start)})
	return out, nil
}

// ConfirmBooking commits the requested slot. It fails with ErrInvalidSlot
// when the id is not a current candidate, ErrSlotUnavailable when another
// reservation holds it and ErrStoreUnavailable when the reservation cannot be
// recorded durably.
func (l *Ledger) ConfirmBooking(ctx context.Context, req BookingRequest) (model.Reservation, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return model.Reservation{}, err
	}
	if err := req.Validate(); err != nil {
		l.reject(req, "", err)
		return model.Reservation{}, err
	}
	now := l.clock.Now()
	slot, ok := l.resolve(now, req.SlotID)
	if !ok {
		err := fmt.Errorf("%w: %s is not a current slot", ErrInvalidSlot, req.SlotID)
		l.reject(req, "", err)
		return model.Reservation{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.store.List(ctx)
	if err != nil {
		l.degrade("list", err)
		err = fmt.Errorf("%w: list: %v", ErrStoreUnavailable, err)
		l.reject(req, slot.CenterID, err)
		return model.Reservation{}, err
	}
	l.mergeLocked(records)
	if holder, taken := l.taken[slot.ID]; taken {
		err := fmt.Errorf("%w: %s is held by %s", ErrSlotUnavailable, slot.ID, holder)
		l.reject(req, slot.CenterID, err)
		return model.Reservation{}, err
	}

	serviceType := NormalizeServiceType(req.ServiceType)
	price := l.pricing.Estimate(serviceType)
	res := model.Reservation{
		BookingID:     newBookingID(now),
		VehicleID:     req.VehicleID,
		Owner:         req.Owner,
		SlotID:        slot.ID,
		CenterID:      slot.CenterID,
		CenterName:    slot.CenterName,
		SlotTime:      slot.Time,
		ServiceType:   serviceType,
		Notes:         req.Notes,
		EstimatedCost: price.String(),
		CostAmount:    price.Amount,
		Status:        model.StatusConfirmed,
		CreatedAt:     now,
	}
	stored, err := l.store.Create(ctx, res)
	if err != nil {
		if !errors.Is(err, ErrSlotUnavailable) {
			l.degrade("create", err)
			err = fmt.Errorf("%w: create: %v", ErrStoreUnavailable, err)
		}
		l.reject(req, slot.CenterID, err)
		return model.Reservation{}, err
	}
	res.StoreRef = stored.StoreRef
	l.addLocked(res)

	l.log.Infof("booking %s confirmed: vehicle=%s slot=%s center=%s", res.BookingID, res.VehicleID, res.SlotID, res.CenterID)
	l.pub.Publish(events.BookingConfirmed{Reservation: res, Latency: time.Since(start)})
	return res, nil
}

// CancelBooking releases the reservation and its slot.
func (l *Ledger) CancelBooking(ctx context.Context, bookingID string) (model.CancelAck, error) {
	if err := ctx.Err(); err != nil {
		return model.CancelAck{}, err
	}
	l.refresh(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	res, ok := l.bookings[bookingID]
	if !ok {
		return model.CancelAck{}, fmt.Errorf("%w: %s", ErrNotFound, bookingID)
	}
	if rm, ok := l.store.(Remover); ok {
		if err := rm.Remove(ctx, res); err != nil && !errors.Is(err, ErrNotFound) {
			l.degrade("remove", err)
			return model.CancelAck{}, fmt.Errorf("%w: remove: %v", ErrStoreUnavailable, err)
		}
	}
	l.releaseLocked(bookingID)
	res.Status = model.StatusCancelled

	l.log.Infof("booking %s cancelled: slot %s released", res.BookingID, res.SlotID)
	l.pub.Publish(events.BookingCancelled{Reservation: res, At: l.clock.Now()})
	return model.CancelAck{Status: model.StatusCancelled, BookingID: bookingID, SlotID: res.SlotID}, nil
}

// BookingsForVehicle returns the vehicle's active reservations in the order
// the ledger learned about them.
func (l *Ledger) BookingsForVehicle(ctx context.Context, vehicleID string) []model.Reservation {
	l.refresh(ctx)
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Reservation
	for _, id := range l.order {
		if r := l.bookings[id]; r.VehicleID == vehicleID {
			out = append(out, r)
		}
	}
	return out
}

// ActiveBookings returns every active reservation in insertion order.
func (l *Ledger) ActiveBookings(ctx context.Context) []model.Reservation {
	l.refresh(ctx)
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Reservation, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.bookings[id])
	}
	return out
}

// Utilization counts generated and taken slots per center over the
// current window.
func (l *Ledger) Utilization(ctx context.Context) []model.CenterUtilization {
	l.refresh(ctx)
	centers := l.gen.Centers()
	idx := make(map[string]int, len(centers))
	out := make([]model.CenterUtilization, len(centers))
	for i, c := range centers {
		idx[c.ID] = i
		out[i] = model.CenterUtilization{CenterID: c.ID, CenterName: c.Name}
	}
	candidates := l.gen.Generate(l.clock.Now())
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range candidates {
		i, ok := idx[s.CenterID]
		if !ok {
			continue
		}
		out[i].Total++
		if _, taken := l.taken[s.ID]; taken {
			out[i].Taken++
		}
	}
	return out
}

// refresh merges the store's reservations into local state. It reports
// whether the store was unreachable.
func (l *Ledger) refresh(ctx context.Context) bool {
	records, err := l.store.List(ctx)
	if err != nil {
		l.degrade("list", err)
		return true
	}
	l.mu.Lock()
	l.mergeLocked(records)
	l.mu.Unlock()
	return false
}

// mergeLocked folds store records into the ledger. Local cancellations win
// over stale store copies; the first reservation seen for a slot keeps it.
func (l *Ledger) mergeLocked(records []model.Reservation) {
	for _, r := range records {
		key := recordKey(r)
		if key == "" {
			continue
		}
		if !r.Active() {
			if _, ok := l.bookings[key]; ok {
				l.releaseLocked(key)
			}
			l.cancelled[key] = struct{}{}
			continue
		}
		if _, gone := l.cancelled[key]; gone {
			continue
		}
		if _, known := l.bookings[key]; known || r.SlotID == "" {
			continue
		}
		if holder, ok := l.taken[r.SlotID]; ok {
			l.log.Warnf("store reservation %s ignored: slot %s already held by %s", key, r.SlotID, holder)
			continue
		}
		r.BookingID = key
		l.addLocked(r)
	}
}

func (l *Ledger) addLocked(r model.Reservation) {
	l.bookings[r.BookingID] = r
	l.order = append(l.order, r.BookingID)
	l.taken[r.SlotID] = r.BookingID
}

func (l *Ledger) releaseLocked(id string) {
	r := l.bookings[id]
	delete(l.bookings, id)
	for i, o := range l.order {
		if o == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	if l.taken[r.SlotID] == id {
		delete(l.taken, r.SlotID)
	}
	l.cancelled[id] = struct{}{}
}

func (l *Ledger) resolve(now time.Time, slotID string) (model.Slot, bool) {
	for _, s := range l.gen.Generate(now) {
		if s.ID == slotID {
			return s, true
		}
	}
	return model.Slot{}, false
}

func (l *Ledger) degrade(op string, err error) {
	l.log.Warnf("reservation store %s failed, continuing with local state: %v", op, err)
	monitoring.Capture(err, "ledger", op)
	l.pub.Publish(events.StoreDegraded{Op: op, Err: err, At: l.clock.Now()})
}

func (l *Ledger) reject(req BookingRequest, centerID string, err error) {
	l.log.Debugw("booking rejected", map[string]any{
		"vehicle_id": req.VehicleID,
		"slot_id":    req.SlotID,
		"reason":     err.Error(),
	})
	l.pub.Publish(events.BookingRejected{
		VehicleID:   req.VehicleID,
		SlotID:      req.SlotID,
		CenterID:    centerID,
		ServiceType: NormalizeServiceType(req.ServiceType),
		Outcome:     Outcome(err),
		Err:         err,
		At:          l.clock.Now(),
	})
}

// recordKey identifies a store record. Records written by other tools may
// lack a booking id; those are keyed by store reference or slot.
func recordKey(r model.Reservation) string {
	switch {
	case r.BookingID != "":
		return r.BookingID
	case r.StoreRef != "":
		return "ref-" + r.StoreRef
	case r.SlotID != "":
		return "slot-" + r.SlotID
	}
	return ""
}

func newBookingID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("BK-%s-%s", now.Format("20060102150405"), suffix)
}

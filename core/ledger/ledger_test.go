package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambhavthakkar/PulseDrive/core/events"
	"github.com/sambhavthakkar/PulseDrive/core/model"
	"github.com/sambhavthakkar/PulseDrive/core/slots"
	"github.com/sambhavthakkar/PulseDrive/internal/eventbus"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeStore struct {
	mu        sync.Mutex
	records   []model.Reservation
	listErr   error
	createErr error
	removeErr error
	removed   []string
}

func (s *fakeStore) List(context.Context) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]model.Reservation(nil), s.records...), nil
}

func (s *fakeStore) Create(_ context.Context, r model.Reservation) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return model.Reservation{}, s.createErr
	}
	r.StoreRef = fmt.Sprintf("%d", len(s.records)+1)
	s.records = append(s.records, r)
	return r, nil
}

func (s *fakeStore) Remove(_ context.Context, r model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, r.BookingID)
	for i := range s.records {
		if s.records[i].BookingID == r.BookingID {
			s.records[i].Status = model.StatusCancelled
		}
	}
	return nil
}

func (s *fakeStore) set(fn func(*fakeStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

var testNow = time.Date(2025, 1, 1, 8, 30, 0, 0, time.UTC)

func newTestLedger(t *testing.T, store Store, opts ...Option) *Ledger {
	t.Helper()
	gen, err := slots.New(slots.Config{})
	require.NoError(t, err)
	opts = append([]Option{WithClock(fixedClock{testNow})}, opts...)
	return New(gen, store, opts...)
}

func slotIDs(ss []model.Slot) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.ID
	}
	return out
}

func TestConfirmBooking_OilChangeThenConflict(t *testing.T) {
	store := &fakeStore{}
	l := newTestLedger(t, store)
	ctx := context.Background()

	res, err := l.ConfirmBooking(ctx, BookingRequest{
		VehicleID:   "V101",
		Owner:       model.Owner{Name: "Rahul", Contact: "+91 90000 00000"},
		SlotID:      "SC001-SLOT-1",
		ServiceType: "oil_change",
	})
	require.NoError(t, err)
	assert.Equal(t, "₹1,200", res.EstimatedCost)
	assert.Equal(t, 1200.0, res.CostAmount)
	assert.Equal(t, "Pulse Service Hub - North", res.CenterName)
	assert.Equal(t, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), res.SlotTime)
	assert.Equal(t, model.StatusConfirmed, res.Status)
	assert.Regexp(t, `^BK-20250101083000-[0-9a-f]{8}$`, res.BookingID)
	assert.Equal(t, "1", res.StoreRef)

	_, err = l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V202", SlotID: "SC001-SLOT-1", ServiceType: "oil_change"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Len(t, store.records, 1)
}

func TestConfirmBooking_UnknownServiceUsesDefaultCost(t *testing.T) {
	l := newTestLedger(t, &fakeStore{})
	res, err := l.ConfirmBooking(context.Background(), BookingRequest{VehicleID: "V1", SlotID: "SC002-SLOT-5", ServiceType: "Paint Job"})
	require.NoError(t, err)
	assert.Equal(t, "paint_job", res.ServiceType)
	assert.Equal(t, "₹2,000", res.EstimatedCost)

	res, err = l.ConfirmBooking(context.Background(), BookingRequest{VehicleID: "V1", SlotID: "SC002-SLOT-6"})
	require.NoError(t, err)
	assert.Equal(t, DefaultServiceType, res.ServiceType)
	assert.Equal(t, "₹1,500", res.EstimatedCost)
}

func TestConfirmBooking_ConcurrentSameSlot(t *testing.T) {
	store := &fakeStore{}
	l := newTestLedger(t, store)
	const callers = 32

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.ConfirmBooking(context.Background(), BookingRequest{
				VehicleID: fmt.Sprintf("V%d", i),
				SlotID:    "SC002-SLOT-2",
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	}
	assert.Equal(t, 1, wins)
	assert.Len(t, store.records, 1)
}

func TestConfirmBooking_Validation(t *testing.T) {
	l := newTestLedger(t, &fakeStore{})
	ctx := context.Background()

	_, err := l.ConfirmBooking(ctx, BookingRequest{SlotID: "SC001-SLOT-1"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	for _, id := range []string{"SC001-SLOT-999", "SC002-SLOT-1", "garbage", "SC009-SLOT-3"} {
		_, err = l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V1", SlotID: id})
		assert.ErrorIs(t, err, ErrInvalidSlot, id)
	}
}

func TestFindAvailableSlots_SortedAndExcludesTaken(t *testing.T) {
	l := newTestLedger(t, &fakeStore{})
	ctx := context.Background()

	before, err := l.FindAvailableSlots(ctx, Query{})
	require.NoError(t, err)
	require.NotEmpty(t, before)
	assert.True(t, sort.SliceIsSorted(before, func(i, j int) bool { return before[i].Time.Before(before[j].Time) }))
	assert.Equal(t, "SC001-SLOT-1", before[0].ID)

	res, err := l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V1", SlotID: before[0].ID})
	require.NoError(t, err)

	after, err := l.FindAvailableSlots(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, after, len(before)-1)
	assert.NotContains(t, slotIDs(after), res.SlotID)

	_, err = l.CancelBooking(ctx, res.BookingID)
	require.NoError(t, err)
	again, err := l.FindAvailableSlots(ctx, Query{})
	require.NoError(t, err)
	assert.Contains(t, slotIDs(again), res.SlotID)
}

func TestFindAvailableSlots_Filters(t *testing.T) {
	l := newTestLedger(t, &fakeStore{})
	ctx := context.Background()

	got, err := l.FindAvailableSlots(ctx, Query{CenterID: "SC002"})
	require.NoError(t, err)
	for _, s := range got {
		assert.Equal(t, "SC002", s.CenterID)
	}

	got, err = l.FindAvailableSlots(ctx, Query{WithinHours: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"SC001-SLOT-1", "SC001-SLOT-2", "SC002-SLOT-2", "SC001-SLOT-3", "SC002-SLOT-3"}, slotIDs(got))

	got, err = l.FindAvailableSlots(ctx, Query{Date: "2025-01-02T10"})
	require.NoError(t, err)
	assert.Equal(t, []string{"SC001-SLOT-26", "SC002-SLOT-26"}, slotIDs(got))

	got, err = l.FindAvailableSlots(ctx, Query{Limit: 20})
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestFindAvailableSlots_FailOpenOnStoreError(t *testing.T) {
	store := &fakeStore{}
	bus := eventbus.New[events.Event]()
	sub := bus.SubscribeBuffered(16)
	l := newTestLedger(t, store, WithPublisher(bus))
	ctx := context.Background()

	res, err := l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V1", SlotID: "SC001-SLOT-4"})
	require.NoError(t, err)
	<-sub

	store.set(func(s *fakeStore) { s.listErr = errors.New("connection refused") })
	got, err := l.FindAvailableSlots(ctx, Query{})
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.NotContains(t, slotIDs(got), res.SlotID, "locally known reservations still count")

	var sawDegraded, sawQuery bool
	for i := 0; i < 2; i++ {
		switch ev := (<-sub).(type) {
		case events.StoreDegraded:
			sawDegraded = true
			assert.Equal(t, "list", ev.Op)
		case events.AvailabilityQueried:
			sawQuery = true
			assert.True(t, ev.Degraded)
		}
	}
	assert.True(t, sawDegraded)
	assert.True(t, sawQuery)
}

func TestConfirmBooking_StoreFailuresAreFatal(t *testing.T) {
	store := &fakeStore{listErr: errors.New("timeout")}
	l := newTestLedger(t, store)
	ctx := context.Background()

	_, err := l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V1", SlotID: "SC001-SLOT-1"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	store.set(func(s *fakeStore) { s.listErr = nil; s.createErr = errors.New("503") })
	_, err = l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V1", SlotID: "SC001-SLOT-1"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Empty(t, l.BookingsForVehicle(ctx, "V1"))

	store.set(func(s *fakeStore) { s.createErr = nil })
	_, err = l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V1", SlotID: "SC001-SLOT-1"})
	assert.NoError(t, err, "a failed create must not leave the slot marked taken")
}

func TestConfirmBooking_StoreConflictPassesThrough(t *testing.T) {
	store := &fakeStore{createErr: fmt.Errorf("unique index: %w", ErrSlotUnavailable)}
	l := newTestLedger(t, store)
	_, err := l.ConfirmBooking(context.Background(), BookingRequest{VehicleID: "V1", SlotID: "SC001-SLOT-1"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestLedger_MergesStoreRecords(t *testing.T) {
	store := &fakeStore{records: []model.Reservation{
		{BookingID: "BK-EXT-1", VehicleID: "V9", SlotID: "SC001-SLOT-1", Status: model.StatusConfirmed},
		{StoreRef: "77", VehicleID: "V9", SlotID: "SC001-SLOT-2", Status: model.StatusConfirmed},
		{BookingID: "BK-EXT-2", VehicleID: "V9", SlotID: "SC001-SLOT-3", Status: model.StatusCancelled},
		{BookingID: "BK-EXT-3", VehicleID: "V8", SlotID: "SC001-SLOT-1", Status: model.StatusConfirmed},
	}}
	l := newTestLedger(t, store)
	ctx := context.Background()

	got, err := l.FindAvailableSlots(ctx, Query{CenterID: "SC001", WithinHours: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"SC001-SLOT-3"}, slotIDs(got))

	bookings := l.BookingsForVehicle(ctx, "V9")
	require.Len(t, bookings, 2)
	assert.Equal(t, "BK-EXT-1", bookings[0].BookingID)
	assert.Equal(t, "ref-77", bookings[1].BookingID)
	assert.Empty(t, l.BookingsForVehicle(ctx, "V8"))
}

func TestCancelBooking(t *testing.T) {
	store := &fakeStore{}
	bus := eventbus.New[events.Event]()
	sub := bus.SubscribeBuffered(16)
	l := newTestLedger(t, store, WithPublisher(bus))
	ctx := context.Background()

	res, err := l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V1", SlotID: "SC001-SLOT-5"})
	require.NoError(t, err)
	<-sub

	ack, err := l.CancelBooking(ctx, res.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.CancelAck{Status: model.StatusCancelled, BookingID: res.BookingID, SlotID: "SC001-SLOT-5"}, ack)
	assert.Equal(t, []string{res.BookingID}, store.removed)
	ev, ok := (<-sub).(events.BookingCancelled)
	require.True(t, ok)
	assert.Equal(t, model.StatusCancelled, ev.Reservation.Status)

	// The store still lists the record as cancelled; it must not come back.
	assert.Empty(t, l.BookingsForVehicle(ctx, "V1"))

	_, err = l.CancelBooking(ctx, res.BookingID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelBooking_UnknownLeavesTableUnchanged(t *testing.T) {
	l := newTestLedger(t, &fakeStore{})
	ctx := context.Background()
	_, err := l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V1", SlotID: "SC001-SLOT-1"})
	require.NoError(t, err)
	before := l.ActiveBookings(ctx)

	_, err = l.CancelBooking(ctx, "BK-NEVER-ISSUED")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, l.ActiveBookings(ctx))
}

func TestCancelBooking_StoreRemoveFailure(t *testing.T) {
	store := &fakeStore{}
	l := newTestLedger(t, store)
	ctx := context.Background()
	res, err := l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V1", SlotID: "SC001-SLOT-1"})
	require.NoError(t, err)

	store.set(func(s *fakeStore) { s.removeErr = errors.New("down") })
	_, err = l.CancelBooking(ctx, res.BookingID)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Len(t, l.BookingsForVehicle(ctx, "V1"), 1)
}

func TestBookingsForVehicle_InsertionOrder(t *testing.T) {
	l := newTestLedger(t, &fakeStore{})
	ctx := context.Background()
	var want []string
	for _, id := range []string{"SC002-SLOT-9", "SC001-SLOT-2", "SC001-SLOT-7"} {
		res, err := l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V1", SlotID: id})
		require.NoError(t, err)
		want = append(want, res.SlotID)
	}
	_, err := l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V2", SlotID: "SC001-SLOT-3"})
	require.NoError(t, err)

	var got []string
	for _, r := range l.BookingsForVehicle(ctx, "V1") {
		got = append(got, r.SlotID)
	}
	assert.Equal(t, want, got)
}

func TestUtilization(t *testing.T) {
	l := newTestLedger(t, &fakeStore{})
	ctx := context.Background()
	_, err := l.ConfirmBooking(ctx, BookingRequest{VehicleID: "V1", SlotID: "SC002-SLOT-2"})
	require.NoError(t, err)

	u := l.Utilization(ctx)
	require.Len(t, u, 2)
	assert.Equal(t, model.CenterUtilization{CenterID: "SC001", CenterName: "Pulse Service Hub - North", Total: 47}, u[0])
	assert.Equal(t, 46, u[1].Total)
	assert.Equal(t, 1, u[1].Taken)
	assert.Equal(t, 45, u[1].Available())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "confirmed", Outcome(nil))
	assert.Equal(t, "slot_unavailable", Outcome(fmt.Errorf("x: %w", ErrSlotUnavailable)))
	assert.Equal(t, "store_unavailable", Outcome(ErrStoreUnavailable))
	assert.Equal(t, "cancelled", Outcome(context.Canceled))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}

func TestPricing(t *testing.T) {
	var p PricingConfig
	p.SetDefaults()
	require.NoError(t, p.Validate())
	assert.Equal(t, "₹3,500", p.Estimate("Brake Service").String())
	assert.Equal(t, "₹800", p.Estimate("tire-rotation").String())
	assert.Equal(t, "₹2,000", p.Estimate("windscreen").String())

	p.Costs["bad"] = -1
	assert.Error(t, p.Validate())
}

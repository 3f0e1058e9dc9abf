package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/sambhavthakkar/PulseDrive/core/metrics"
)

func TestPromSink_RecordBooking(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink := sinkIf.(*PromSink)

	_ = sink.RecordBooking(coremetrics.BookingEvent{CenterID: "SC001", ServiceType: "oil_change", Outcome: "confirmed", Latency: 20 * time.Millisecond})
	_ = sink.RecordBooking(coremetrics.BookingEvent{CenterID: "SC001", ServiceType: "oil_change", Outcome: "slot_unavailable"})

	expected := `
# HELP scheduling_bookings_total Confirm attempts by outcome
# TYPE scheduling_bookings_total counter
scheduling_bookings_total{center_id="SC001",outcome="confirmed",service_type="oil_change"} 1
scheduling_bookings_total{center_id="SC001",outcome="slot_unavailable",service_type="oil_change"} 1
`
	if err := testutil.CollectAndCompare(sink.bookings, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.bookingLat); c != 1 {
		t.Errorf("expected one latency series, got %d", c)
	}
}

func TestPromSink_AvailabilityAndBatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink := sinkIf.(*PromSink)

	_ = sink.RecordAvailability(coremetrics.AvailabilityEvent{Available: map[string]int{"SC001": 40, "SC002": 12}, Latency: time.Millisecond})
	if v := testutil.ToFloat64(sink.available.WithLabelValues("SC002")); v != 12 {
		t.Fatalf("gauge = %v", v)
	}
	_ = sink.RecordStoreFailure(coremetrics.StoreFailureEvent{Op: "list"})
	if v := testutil.ToFloat64(sink.storeFailures.WithLabelValues("list")); v != 1 {
		t.Fatalf("store failures = %v", v)
	}
	_ = sink.RecordBatch(coremetrics.BatchEvent{Assigned: 3, Unassigned: 1, Retries: 2})
	if v := testutil.ToFloat64(sink.batchRequests.WithLabelValues("assigned")); v != 3 {
		t.Fatalf("assigned = %v", v)
	}
	if v := testutil.ToFloat64(sink.batchRetries); v != 2 {
		t.Fatalf("retries = %v", v)
	}
	_ = sink.RecordCancellation(coremetrics.CancellationEvent{CenterID: "SC001"})
	if v := testutil.ToFloat64(sink.cancellations.WithLabelValues("SC001")); v != 1 {
		t.Fatalf("cancellations = %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	_ = a.RecordBooking(coremetrics.BookingEvent{CenterID: "SC001", ServiceType: "general", Outcome: "confirmed"})
	_ = b.RecordBooking(coremetrics.BookingEvent{CenterID: "SC001", ServiceType: "general", Outcome: "confirmed"})
	if v := testutil.ToFloat64(a.(*PromSink).bookings.WithLabelValues("SC001", "general", "confirmed")); v != 2 {
		t.Fatalf("expected shared counter, got %v", v)
	}
}

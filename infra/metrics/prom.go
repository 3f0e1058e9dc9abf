package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/sambhavthakkar/PulseDrive/core/metrics"
)

// PromSink records scheduling activity in Prometheus metrics.
type PromSink struct {
	bookings      *prometheus.CounterVec
	bookingLat    *prometheus.HistogramVec
	cancellations *prometheus.CounterVec
	available     *prometheus.GaugeVec
	queryLat      *prometheus.HistogramVec
	storeFailures *prometheus.CounterVec
	batchRequests *prometheus.CounterVec
	batchRetries  prometheus.Counter
}

// NewPromSink registers scheduling metrics on the default Prometheus
// registerer. The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduling_bookings_total",
			Help: "Confirm attempts by outcome",
		}, []string{"center_id", "service_type", "outcome"}),
		bookingLat: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduling_confirm_latency_seconds",
			Help:    "Time spent confirming a booking",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduling_cancellations_total",
			Help: "Cancelled bookings",
		}, []string{"center_id"}),
		available: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scheduling_available_slots",
			Help: "Free slots seen by the latest availability query",
		}, []string{"center_id"}),
		queryLat: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduling_query_latency_seconds",
			Help:    "Availability query latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"degraded"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduling_store_failures_total",
			Help: "Failed reservation store calls",
		}, []string{"op"}),
		batchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduling_batch_requests_total",
			Help: "Batch requests by result",
		}, []string{"result"}),
		batchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduling_batch_retries_total",
			Help: "Slots lost to concurrent bookings during batch runs",
		}),
	}
	var err error
	if s.bookings, err = register(reg, s.bookings); err != nil {
		return nil, err
	}
	if s.bookingLat, err = register(reg, s.bookingLat); err != nil {
		return nil, err
	}
	if s.cancellations, err = register(reg, s.cancellations); err != nil {
		return nil, err
	}
	if s.available, err = register(reg, s.available); err != nil {
		return nil, err
	}
	if s.queryLat, err = register(reg, s.queryLat); err != nil {
		return nil, err
	}
	if s.storeFailures, err = register(reg, s.storeFailures); err != nil {
		return nil, err
	}
	if s.batchRequests, err = register(reg, s.batchRequests); err != nil {
		return nil, err
	}
	if s.batchRetries, err = register(reg, s.batchRetries); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an identical collector registered earlier
// (for instance by a second sink built from the same config).
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) RecordBooking(ev coremetrics.BookingEvent) error {
	s.bookings.WithLabelValues(ev.CenterID, ev.ServiceType, ev.Outcome).Inc()
	if ev.Latency > 0 {
		s.bookingLat.WithLabelValues(ev.Outcome).Observe(ev.Latency.Seconds())
	}
	return nil
}

func (s *PromSink) RecordCancellation(ev coremetrics.CancellationEvent) error {
	s.cancellations.WithLabelValues(ev.CenterID).Inc()
	return nil
}

// RecordAvailability sets the per-center gauge. Only centers present in the
// event are updated.
func (s *PromSink) RecordAvailability(ev coremetrics.AvailabilityEvent) error {
	for center, n := range ev.Available {
		s.available.WithLabelValues(center).Set(float64(n))
	}
	s.queryLat.WithLabelValues(strconv.FormatBool(ev.Degraded)).Observe(ev.Latency.Seconds())
	return nil
}

func (s *PromSink) RecordStoreFailure(ev coremetrics.StoreFailureEvent) error {
	s.storeFailures.WithLabelValues(ev.Op).Inc()
	return nil
}

func (s *PromSink) RecordBatch(ev coremetrics.BatchEvent) error {
	s.batchRequests.WithLabelValues("assigned").Add(float64(ev.Assigned))
	s.batchRequests.WithLabelValues("unassigned").Add(float64(ev.Unassigned))
	s.batchRetries.Add(float64(ev.Retries))
	return nil
}

// Package metrics defines the sinks that record scheduling activity: booking
// outcomes, cancellations, availability queries, store failures and batch
// runs. Only RecordBooking is mandatory; the other recorders are optional
// interfaces detected by type assertion, so a sink implements just what its
// backend can store. NewMetricsSink builds sinks from configuration and wraps
// several of them in a MultiSink.
package metrics

package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/sambhavthakkar/PulseDrive/core/metrics"
	"github.com/sambhavthakkar/PulseDrive/infra/logger"
)

// InfluxSink writes scheduling events to InfluxDB using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// InfluxConfig locates the bucket to write to.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// NewInfluxSink creates a sink for the given endpoint without checking it.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink when the
// health check fails, so a missing metrics backend never blocks scheduling.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

func (s *InfluxSink) RecordBooking(ev coremetrics.BookingEvent) error {
	p := write.NewPointWithMeasurement("booking_event").
		AddTag("center_id", ev.CenterID).
		AddTag("service_type", ev.ServiceType).
		AddTag("outcome", ev.Outcome).
		AddTag("vehicle_id", ev.VehicleID).
		AddField("cost", round2(ev.CostAmount)).
		AddField("latency_ms", round2(ev.Latency.Seconds()*1000)).
		SetTime(ev.Time)
	if ev.BookingID != "" {
		p.AddField("booking_id", ev.BookingID)
	}
	return s.write(p)
}

func (s *InfluxSink) RecordCancellation(ev coremetrics.CancellationEvent) error {
	p := write.NewPointWithMeasurement("booking_cancelled").
		AddTag("center_id", ev.CenterID).
		AddTag("vehicle_id", ev.VehicleID).
		AddField("booking_id", ev.BookingID).
		AddField("slot_id", ev.SlotID).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordAvailability writes one point per center.
func (s *InfluxSink) RecordAvailability(ev coremetrics.AvailabilityEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Available))
	for center, n := range ev.Available {
		points = append(points, write.NewPointWithMeasurement("slot_availability").
			AddTag("center_id", center).
			AddTag("degraded", boolTag(ev.Degraded)).
			AddField("available", n).
			AddField("latency_ms", round2(ev.Latency.Seconds()*1000)).
			SetTime(ev.Time))
	}
	if len(points) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

func (s *InfluxSink) RecordStoreFailure(ev coremetrics.StoreFailureEvent) error {
	p := write.NewPointWithMeasurement("store_failure").
		AddTag("op", ev.Op).
		AddField("error", ev.Error).
		SetTime(ev.Time)
	return s.write(p)
}

func (s *InfluxSink) RecordBatch(ev coremetrics.BatchEvent) error {
	p := write.NewPointWithMeasurement("batch_run").
		AddField("requests", ev.Requests).
		AddField("assigned", ev.Assigned).
		AddField("unassigned", ev.Unassigned).
		AddField("retries", ev.Retries).
		AddField("mean_lead_hours", round2(ev.MeanLeadHours)).
		AddField("duration_ms", round2(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

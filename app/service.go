package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sambhavthakkar/PulseDrive/api/scheduling"
	"github.com/sambhavthakkar/PulseDrive/config"
	"github.com/sambhavthakkar/PulseDrive/core/events"
	"github.com/sambhavthakkar/PulseDrive/core/journal"
	"github.com/sambhavthakkar/PulseDrive/core/ledger"
	coremetrics "github.com/sambhavthakkar/PulseDrive/core/metrics"
	coremon "github.com/sambhavthakkar/PulseDrive/core/monitoring"
	corenotify "github.com/sambhavthakkar/PulseDrive/core/notify"
	"github.com/sambhavthakkar/PulseDrive/core/scheduler"
	"github.com/sambhavthakkar/PulseDrive/core/slots"
	"github.com/sambhavthakkar/PulseDrive/infra/logger"
	"github.com/sambhavthakkar/PulseDrive/infra/metrics"
	"github.com/sambhavthakkar/PulseDrive/infra/monitoring"
	_ "github.com/sambhavthakkar/PulseDrive/infra/notify"
	"github.com/sambhavthakkar/PulseDrive/infra/store"
	"github.com/sambhavthakkar/PulseDrive/internal/eventbus"
)

// Service wires the ledger, the batch scheduler and their background
// consumers (metrics, journal, notifications) from the configuration.
type Service struct {
	Ledger    *ledger.Ledger
	Scheduler *scheduler.Scheduler
	Journal   journal.Store

	cfg      *config.Config
	bus      *eventbus.Bus[events.Event]
	store    ledger.Store
	sink     coremetrics.MetricsSink
	notifier corenotify.Notifier
	log      logger.Logger
	done     []<-chan struct{}
}

// Option adjusts the service during construction.
type Option func(*Service)

// WithClock replaces the wall clock used by the ledger and the scheduler.
func WithClock(c ledger.Clock) Option {
	return func(s *Service) {
		s.Scheduler.Clock = c
		ledger.WithClock(c)(s.Ledger)
	}
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	gen, err := slots.New(cfg.Scheduling)
	if err != nil {
		return nil, fmt.Errorf("slot generator: %w", err)
	}
	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, err
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		closeQuietly(st)
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	jr, err := journal.Open(cfg.Journal)
	if err != nil {
		closeQuietly(sink, st)
		return nil, fmt.Errorf("journal: %w", err)
	}
	notifier, err := corenotify.NewNotifier(cfg.Notifiers)
	if err != nil {
		closeQuietly(sink, jr, st)
		return nil, fmt.Errorf("notifier: %w", err)
	}

	bus := eventbus.New[events.Event]()
	l := ledger.New(gen, st,
		ledger.WithLogger(logger.New("ledger")),
		ledger.WithPublisher(bus),
		ledger.WithPricing(cfg.Pricing),
	)
	sch := scheduler.New(l)
	sch.Log = logger.New("scheduler")
	sch.Bus = bus

	svc := &Service{
		Ledger:    l,
		Scheduler: sch,
		Journal:   jr,
		cfg:       cfg,
		bus:       bus,
		store:     st,
		sink:      sink,
		notifier:  notifier,
		log:       logg,
	}
	for _, o := range opts {
		o(svc)
	}
	logg.Infof("service ready: store=%s cadence=%s centers=%d", cfg.Store.Type, cfg.Scheduling.Cadence, len(l.Centers()))
	return svc, nil
}

// Start launches the background consumers. They stop when ctx is cancelled
// or the service is closed.
func (s *Service) Start(ctx context.Context) {
	s.done = append(s.done,
		metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("metrics")),
		journal.StartRecorder(ctx, s.bus, s.Journal, logger.New("journal")),
		corenotify.StartDispatcher(ctx, s.bus, s.notifier, logger.New("notify")),
	)
}

// Handler returns the scheduling API.
func (s *Service) Handler() http.Handler {
	return scheduling.NewHandler(s.Ledger, scheduling.Options{
		Token:      s.cfg.HTTP.Token,
		MaxResults: s.cfg.HTTP.MaxResults,
		Optimizer:  s.Scheduler,
		Journal:    s.Journal,
		Logger:     logger.New("api"),
	})
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.Start(ctx)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	srv := &http.Server{Addr: s.cfg.HTTP.Address, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("scheduling API listening on %s", s.cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.HTTP.ShutdownSeconds)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close stops the consumers once they have drained pending events and
// releases every backend.
func (s *Service) Close() error {
	s.bus.Close()
	for _, d := range s.done {
		select {
		case <-d:
		case <-time.After(5 * time.Second):
			s.log.Warnf("background consumer did not stop in time")
		}
	}
	var errs []error
	for _, c := range []any{s.notifier, s.sink, s.Journal, s.store} {
		if cl, ok := c.(io.Closer); ok {
			if err := cl.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}

func closeQuietly(vs ...any) {
	for _, v := range vs {
		if c, ok := v.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/sambhavthakkar/PulseDrive/config"
	coremon "github.com/sambhavthakkar/PulseDrive/core/monitoring"
)

// NewSentryMonitor initializes Sentry and returns a Monitor reporting to it.
// Without a DSN it returns a no-op monitor.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	cfg.SetDefaults()
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
		ServerName:       cfg.ServerName,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{}, nil
}

type sentryMonitor struct{}

// CaptureException reports err with tags. Store and notifier failures carry
// component and op tags; they are grouped on those rather than on the
// message, which embeds per-booking ids.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("service", "scheduling")
		scope.SetTags(tags)
		if fp := Fingerprint(tags); fp != nil {
			scope.SetFingerprint(fp)
		}
		sentry.CaptureException(err)
	})
}

func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(2 * time.Second)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }

// Fingerprint returns the grouping key for an event with the given tags, or
// nil to keep Sentry's default grouping.
func Fingerprint(tags map[string]string) []string {
	component, ok := tags["component"]
	if !ok {
		component, ok = tags["module"]
	}
	if !ok {
		return nil
	}
	fp := []string{"{{ default }}", component}
	if op := tags["op"]; op != "" {
		fp = append(fp, op)
	}
	return fp
}

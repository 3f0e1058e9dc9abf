package metrics

import "github.com/sambhavthakkar/PulseDrive/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is where /metrics is served. Empty disables the server.
	PrometheusAddr string `json:"prometheus_addr"`
}

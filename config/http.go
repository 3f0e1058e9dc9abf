package config

import "fmt"

// HTTPConfig configures the scheduling API server.
type HTTPConfig struct {
	Address string `json:"address"`
	// Token enables bearer authentication on mutating and journal routes.
	Token           string `json:"token"`
	MaxResults      int    `json:"max_results"`
	ShutdownSeconds int    `json:"shutdown_seconds"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.MaxResults == 0 {
		c.MaxResults = 20
	}
	if c.ShutdownSeconds == 0 {
		c.ShutdownSeconds = 5
	}
}

// Validate checks mandatory fields.
func (c HTTPConfig) Validate() error {
	if c.MaxResults < 0 {
		return fmt.Errorf("http.max_results must not be negative")
	}
	if c.ShutdownSeconds < 0 {
		return fmt.Errorf("http.shutdown_seconds must not be negative")
	}
	return nil
}

package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambhavthakkar/PulseDrive/config"
	coremon "github.com/sambhavthakkar/PulseDrive/core/monitoring"
)

func TestNewSentryMonitor_NoDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestNewSentryMonitor_InvalidDSN(t *testing.T) {
	_, err := NewSentryMonitor(config.SentryConfig{DSN: "://not-a-dsn"})
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	assert.Nil(t, Fingerprint(nil))
	assert.Nil(t, Fingerprint(map[string]string{"vehicle_id": "V-1"}))
	assert.Equal(t, []string{"{{ default }}", "ledger", "list"},
		Fingerprint(map[string]string{"component": "ledger", "op": "list"}))
	assert.Equal(t, []string{"{{ default }}", "mqtt"},
		Fingerprint(map[string]string{"module": "mqtt", "vehicle_id": "V-1"}))
}

// Package notify holds the notification transports: MQTT, AMQP and a log
// writer. Importing the package registers them with core/notify.
package notify

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sambhavthakkar/PulseDrive/core/monitoring"
	corenotify "github.com/sambhavthakkar/PulseDrive/core/notify"
	"github.com/sambhavthakkar/PulseDrive/infra/logger"
)

// MQTTConfig defines the connection parameters for the Paho MQTT client.
type MQTTConfig struct {
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos"`
	Retain      bool        `json:"retain"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-"`

	// PublishTimeoutMS bounds the wait for one publish acknowledgement.
	PublishTimeoutMS int `json:"publish_timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *MQTTConfig) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "pulsedrive-scheduler"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "pulsedrive/vehicle"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
	if c.PublishTimeoutMS <= 0 {
		c.PublishTimeoutMS = 5000
	}
}

// Validate checks mandatory fields.
func (c MQTTConfig) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt notifier: broker is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("mqtt notifier: invalid qos %d", c.QoS)
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTNotifier publishes booking notifications to
// <topic_prefix>/<vehicle_id>/booking.
type MQTTNotifier struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	logger     logger.Logger
}

// NewMQTTNotifier connects to the broker.
func NewMQTTNotifier(cfg MQTTConfig) (*MQTTNotifier, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_notifier")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &MQTTNotifier{
		cli:        c,
		prefix:     strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		timeout:    time.Duration(cfg.PublishTimeoutMS) * time.Millisecond,
		logger:     log,
	}, nil
}

// NewClientOptions builds mqtt client options from MQTTConfig.
func NewClientOptions(cfg MQTTConfig) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c MQTTConfig) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Topic returns the topic used for a vehicle.
func (m *MQTTNotifier) Topic(vehicleID string) string {
	return fmt.Sprintf("%s/%s/booking", m.prefix, vehicleID)
}

// Notify publishes n, retrying with exponential backoff.
func (m *MQTTNotifier) Notify(ctx context.Context, n corenotify.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	topic := m.Topic(n.VehicleID)
	var publishErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		publishErr = m.await(ctx, m.cli.Publish(topic, m.qos, m.retain, payload))
		if publishErr == nil {
			m.logger.Infof("sent %s notification %s to %s", n.Kind, n.MessageID, topic)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		m.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == m.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.backoff * time.Duration(1<<attempt)):
		}
	}
	monitoring.CaptureException(publishErr, map[string]string{"module": "mqtt", "vehicle_id": n.VehicleID})
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// await waits for the broker to acknowledge a publish, giving up when ctx
// ends or the publish timeout passes.
func (m *MQTTNotifier) await(ctx context.Context, token paho.Token) error {
	timer := time.NewTimer(m.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publish not acknowledged within %s", m.timeout)
	}
}

// Close gracefully closes the MQTT connection.
func (m *MQTTNotifier) Close() error {
	if m.cli != nil && m.cli.IsConnected() {
		m.cli.Disconnect(250)
	}
	return nil
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	corenotify "github.com/sambhavthakkar/PulseDrive/core/notify"
)

// AMQPConfig locates the exchange notifications are published to.
type AMQPConfig struct {
	URL      string `json:"url"`
	Exchange string `json:"exchange"`
}

// SetDefaults applies sane defaults.
func (c *AMQPConfig) SetDefaults() {
	if c.Exchange == "" {
		c.Exchange = "pulsedrive.bookings"
	}
}

// Validate checks mandatory fields.
func (c AMQPConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("amqp notifier: url is required")
	}
	return nil
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes notifications to a topic exchange with routing key
// booking.<kind>.
type AMQPNotifier struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
}

// NewAMQPNotifier dials the broker and declares the exchange.
func NewAMQPNotifier(cfg AMQPConfig) (*AMQPNotifier, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPNotifier{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

// RoutingKey returns the routing key for a notification kind.
func RoutingKey(kind string) string { return "booking." + kind }

func (a *AMQPNotifier) Notify(ctx context.Context, n corenotify.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return a.ch.PublishWithContext(ctx, a.exchange, RoutingKey(n.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.MessageID,
		Timestamp:    n.Timestamp,
		Body:         b,
	})
}

func (a *AMQPNotifier) Close() error {
	if a.ch != nil {
		_ = a.ch.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

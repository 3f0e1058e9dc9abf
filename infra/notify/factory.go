package notify

import (
	"github.com/sambhavthakkar/PulseDrive/core/factory"
	corenotify "github.com/sambhavthakkar/PulseDrive/core/notify"
)

// init registers built-in notifiers.
func init() {
	_ = corenotify.RegisterNotifier("log", func(map[string]any) (corenotify.Notifier, error) {
		return NewLogNotifier(nil), nil
	})

	_ = corenotify.RegisterNotifier("mqtt", func(conf map[string]any) (corenotify.Notifier, error) {
		var c MQTTConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewMQTTNotifier(c)
	})

	_ = corenotify.RegisterNotifier("amqp", func(conf map[string]any) (corenotify.Notifier, error) {
		var c AMQPConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewAMQPNotifier(c)
	})
}

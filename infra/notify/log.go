package notify

import (
	"context"

	corenotify "github.com/sambhavthakkar/PulseDrive/core/notify"
	"github.com/sambhavthakkar/PulseDrive/infra/logger"
)

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.New("notify")
	}
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n corenotify.Notification) error {
	l.log.Debugw("booking notification", map[string]any{
		"message_id": n.MessageID,
		"kind":       n.Kind,
		"booking_id": n.BookingID,
		"vehicle_id": n.VehicleID,
		"slot_id":    n.SlotID,
		"slot_time":  n.SlotTime,
	})
	l.log.Infof("%s booking %s for %s at %s (%s)", n.Kind, n.BookingID, n.VehicleID, n.CenterID, n.SlotID)
	return nil
}

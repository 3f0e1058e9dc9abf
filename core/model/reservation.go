package model

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ReservationStatus tracks the lifecycle of a booking.
type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Owner identifies the person behind a vehicle.
type Owner struct {
	Name    string `json:"name" yaml:"name"`
	Contact string `json:"contact,omitempty" yaml:"contact"`
}

// UnmarshalJSON accepts either an object or a bare name string.
func (o *Owner) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*o = Owner{Name: name}
		return nil
	}
	type plain Owner
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = Owner(p)
	return nil
}

// Price is an amount in a display currency.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

var pricePrinter = message.NewPrinter(language.English)

// String renders the price rounded to whole units with thousands grouping,
// e.g. "₹1,200".
func (p Price) String() string {
	return pricePrinter.Sprintf("%s%d", p.Currency, int64(math.Round(p.Amount)))
}

// Reservation is a committed assignment of a vehicle to a slot.
type Reservation struct {
	BookingID     string            `json:"booking_id"`
	VehicleID     string            `json:"vehicle_id"`
	Owner         Owner             `json:"owner"`
	SlotID        string            `json:"slot_id"`
	CenterID      string            `json:"center_id"`
	CenterName    string            `json:"center_name"`
	SlotTime      time.Time         `json:"slot_time"`
	ServiceType   string            `json:"service_type"`
	Notes         string            `json:"notes,omitempty"`
	EstimatedCost string            `json:"estimated_cost"`
	CostAmount    float64           `json:"estimated_cost_amount"`
	Status        ReservationStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	// StoreRef is the identifier assigned by the backing store when it differs
	// from BookingID.
	StoreRef string `json:"store_ref,omitempty"`
}

// Active reports whether the reservation currently holds its slot.
func (r Reservation) Active() bool {
	return r.Status == StatusConfirmed
}

// CancelAck acknowledges a cancellation.
type CancelAck struct {
	Status    ReservationStatus `json:"status"`
	BookingID string            `json:"booking_id"`
	SlotID    string            `json:"slot_id"`
}

// CenterUtilization summarises slot usage for one center over the current
// generation window.
type CenterUtilization struct {
	CenterID   string `json:"center_id"`
	CenterName string `json:"center_name"`
	Total      int    `json:"total"`
	Taken      int    `json:"taken"`
}

// Available returns the number of free slots.
func (u CenterUtilization) Available() int { return u.Total - u.Taken }

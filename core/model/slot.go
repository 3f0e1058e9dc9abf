package model

import "time"

// DateLayout renders slot times for date filtering and wire payloads.
const DateLayout = "2006-01-02T15:04:05"

// Slot is a generated candidate appointment at a service center. Slots are
// derived from the clock and the center catalog; they are never stored.
type Slot struct {
	ID         string    `json:"slot_id"`
	CenterID   string    `json:"center_id"`
	CenterName string    `json:"center_name"`
	Time       time.Time `json:"slot_time"`
}

// Before orders slots by time, then by id so equal times sort stably.
func (s Slot) Before(o Slot) bool {
	if s.Time.Equal(o.Time) {
		return s.ID < o.ID
	}
	return s.Time.Before(o.Time)
}

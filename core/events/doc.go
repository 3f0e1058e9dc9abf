// Package events defines the scheduling events published on the event bus.
//
// Available event types:
//   - BookingConfirmed: a reservation was committed
//   - BookingRejected: a confirm attempt failed
//   - BookingCancelled: a reservation was released
//   - AvailabilityQueried: an availability query completed
//   - StoreDegraded: the reservation store failed and the ledger degraded
//   - BatchCompleted: a batch scheduling run finished
package events

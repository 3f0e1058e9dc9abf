// Package ledger owns reservation state for the scheduling core. A Ledger
// answers availability queries against freshly generated slots and commits
// bookings with an atomic check-then-set, so at most one reservation can hold
// a slot id at any time. Reservations are persisted through a pluggable Store;
// reads degrade to the locally known state when the store is unreachable,
// commits do not.
package ledger

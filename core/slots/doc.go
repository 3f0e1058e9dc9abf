// Package slots generates candidate appointment slots for the configured
// service centers. Generation is a pure function of the current hour and the
// center catalog: the same hour always yields the same slot identifiers, which
// is what lets previously stored reservations be matched against freshly
// generated candidates.
package slots

// Package infra contains technical adapters: reservation stores, booking
// notifiers, metrics exporters and error monitoring. These packages should
// depend only on the interfaces defined in the core packages.
package infra

package monitoring

import "time"

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation and returns the previous one.
// A nil monitor is ignored.
func Init(m Monitor) Monitor {
	prev := current
	if m != nil {
		current = m
	}
	return prev
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil || current == nil {
		return
	}
	current.CaptureException(err, tags)
}

// Capture is CaptureException with the component/operation tags every
// scheduling module reports.
func Capture(err error, component, op string) {
	CaptureException(err, map[string]string{"component": component, "op": op})
}

// Recover captures panics in goroutines.
func Recover() {
	if current != nil {
		current.Recover()
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	if current != nil {
		current.Flush(d)
	}
}

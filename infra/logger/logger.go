package logger

import corelogger "github.com/sambhavthakkar/PulseDrive/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

// New returns a Logger tagged with the given component. Output format follows
// APP_ENV ("dev" selects the console writer).
func New(component string) Logger {
	return NewZerologLogger(component)
}

package cleanup

import "go.uber.org/zap"

// Options configures a Context.
type Options struct {
	// Logger overrides the package logger for this Context.
	Logger *zap.Logger
	// Observers receive lifecycle events in registration order.
	Observers []Observer
	// Capacity preallocates stack slots.
	Capacity int
	// MaxEntries caps live entries; 0 means unlimited. Exceeding it throws
	// errors.ErrExhausted.
	MaxEntries int
}

// DefaultOptions returns default Context configuration.
func DefaultOptions() Options {
	return Options{
		Capacity: 64,
	}
}

package fleetspeak

import (
	"fmt"

	"github.com/bft-labs/fleetspeak/pkg/lifecycle"
	"github.com/bft-labs/fleetspeak/pkg/log"
)

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	logger  log.Logger
	emitter lifecycle.EventEmitter
	fatal   func(error)
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
		fatal:  panicOnError,
	}
}

// panicOnError is the default fatal handler.
func panicOnError(err error) {
	panic(fmt.Errorf("fleetspeak: %w", err))
}

// WithLogger sets a logger for structured logging.
// If not provided, a no-op logger is used.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventEmitter registers a callback for channel state changes. The
// callback must not call Close.
func WithEventEmitter(emitter lifecycle.EventEmitter) Option {
	return func(o *options) {
		o.emitter = emitter
	}
}

// WithFatalHandler replaces the default panic on unrecoverable errors.
// The handler is expected not to return; if it does, the failed call
// returns a zero value.
func WithFatalHandler(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.fatal = fn
		}
	}
}

package session

import (
	"github.com/bft-labs/fleetspeak/pkg/lifecycle"
	"github.com/bft-labs/fleetspeak/pkg/log"
)

// Option configures optional behavior of a Session.
type Option func(*options)

type options struct {
	logger  log.Logger
	emitter lifecycle.EventEmitter
}

func defaultOptions() options {
	return options{logger: log.NewNoopLogger()}
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

// WithEventEmitter registers a callback for state changes. It is called
// synchronously from whichever goroutine drives the transition, never with
// the outbound lock held. Sends from the callback fail with
// ErrChannelClosed once the session is closing. The callback must not call
// Stop, which waits for the transition it is part of.
func WithEventEmitter(emitter lifecycle.EventEmitter) Option {
	return func(o *options) {
		o.emitter = emitter
	}
}

package session

import "errors"

// Session errors can be checked with errors.Is. Errors caused by I/O wrap
// the underlying error as well.
var (
	// ErrChannelWriteFailed is returned when writing a frame failed. The
	// session is closing afterwards.
	ErrChannelWriteFailed = errors.New("session: channel write failed")

	// ErrChannelClosed is returned by sends on a closing or closed session
	// and by Receive once the queue is drained after a clean shutdown.
	ErrChannelClosed = errors.New("session: channel closed")

	// ErrReceiveFailed is returned by Receive after the receive loop stopped
	// on a read or decode error.
	ErrReceiveFailed = errors.New("session: receive failed")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("session: already started")

	// ErrNotStarted is returned when the session is used before Start.
	ErrNotStarted = errors.New("session: not started")

	// ErrProtocolExhausted is returned when the sequence id space is used up.
	ErrProtocolExhausted = errors.New("session: sequence space exhausted")

	// ErrInvalidConfig is returned by New for an invalid Config.
	ErrInvalidConfig = errors.New("session: invalid configuration")
)

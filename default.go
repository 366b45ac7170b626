package fleetspeak

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the process-wide client, connecting it from the
// environment on first use. It panics if the channel cannot be opened.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultClient == nil {
		c, err := DialEnv(context.Background(), DefaultConfig())
		if err != nil {
			panicOnError(fmt.Errorf("connect: %w", err))
		}
		defaultClient = c
	}
	return defaultClient
}

// SetDefault replaces the process-wide client used by the package-level
// functions. Passing nil makes the next call connect from the environment.
func SetDefault(c *Client) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultClient = c
}

// Startup announces the service to the Fleetspeak client.
func Startup(version string) {
	Default().Startup(version)
}

// Send writes m on the default client.
func Send(m Message) uint64 {
	return Default().Send(m)
}

// SendValue CBOR-encodes v and sends it on the default client.
func SendValue(service, kind string, v any) uint64 {
	return Default().SendValue(service, kind, v)
}

// Receive blocks for the next message. It returns false once the channel
// closed.
func Receive() (Message, bool) {
	return Default().Receive(context.Background())
}

// Collect is Receive that heartbeats every rate while waiting.
func Collect(rate time.Duration) (Message, bool) {
	return Default().Collect(context.Background(), rate)
}

// Heartbeat reports liveness on the default client.
func Heartbeat() {
	Default().Heartbeat()
}

// Close stops the default client, if one was connected.
func Close() {
	defaultMu.Lock()
	c := defaultClient
	defaultClient = nil
	defaultMu.Unlock()

	if c != nil {
		c.Close()
	}
}

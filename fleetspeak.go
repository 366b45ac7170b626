// Package fleetspeak connects a service daemon to the local Fleetspeak
// client.
//
// The Fleetspeak client launches the daemon, hands it a private pair of
// pipes and kills it if it stops sending heartbeats. This package wraps
// package session with a fail-fast API: unrecoverable protocol errors end
// the process instead of being returned to code that has no way to recover
// from them. A clean shutdown of the channel is an ordinary return value.
//
// # Basic Usage
//
// A daemon started by Fleetspeak uses the package-level functions, which
// lazily connect a default client from the environment:
//
//	fleetspeak.Startup("1.0.0")
//
//	for {
//	    msg, ok := fleetspeak.Collect(time.Second)
//	    if !ok {
//	        return
//	    }
//	    fleetspeak.Send(fleetspeak.Message{
//	        Service: msg.Service,
//	        Kind:    "reply",
//	        Data:    handle(msg.Data),
//	    })
//	}
//
// # Custom Clients
//
// Dial connects over explicit streams, and options configure logging and
// what happens on a fatal error:
//
//	client, err := fleetspeak.Dial(ctx, in, out, cfg,
//	    fleetspeak.WithLogger(logger),
//	    fleetspeak.WithFatalHandler(func(err error) { os.Exit(2) }),
//	)
//
// # Version
//
// Current version: 1.0.0
package fleetspeak

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bft-labs/fleetspeak/pkg/codec"
	"github.com/bft-labs/fleetspeak/pkg/comms"
	"github.com/bft-labs/fleetspeak/pkg/frame"
	"github.com/bft-labs/fleetspeak/pkg/heartbeat"
	"github.com/bft-labs/fleetspeak/pkg/lifecycle"
	"github.com/bft-labs/fleetspeak/pkg/log"
	"github.com/bft-labs/fleetspeak/pkg/session"
)

// Message is a message exchanged with the Fleetspeak client.
type Message = session.Message

// Config holds session settings. Use DefaultConfig() as a starting point.
type Config = session.Config

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return session.DefaultConfig()
}

// Client is a connected session with fail-fast error handling.
type Client struct {
	session *session.Session
	fatal   func(error)
}

// Dial performs the handshake over in and out and starts a session.
// On error both streams are closed.
func Dial(ctx context.Context, in io.ReadCloser, out io.WriteCloser, cfg Config, opts ...Option) (*Client, error) {
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	closeAll := func() {
		_ = in.Close()
		_ = out.Close()
	}

	if err := frame.Handshake(in, out); err != nil {
		closeAll()
		return nil, fmt.Errorf("handshake: %w", err)
	}

	sessOpts := []session.Option{session.WithLogger(o.logger)}
	if o.emitter != nil {
		sessOpts = append(sessOpts, session.WithEventEmitter(o.emitter))
	}
	s, err := session.New(in, out, cfg, sessOpts...)
	if err != nil {
		closeAll()
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		closeAll()
		return nil, err
	}

	o.logger.Debug("connected to fleetspeak client")
	return &Client{session: s, fatal: o.fatal}, nil
}

// DialEnv dials the channel the Fleetspeak client passed in the environment.
func DialEnv(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	in, out, err := comms.FromEnv()
	if err != nil {
		return nil, err
	}
	return Dial(ctx, in, out, cfg, opts...)
}

// Session returns the underlying session.
func (c *Client) Session() *session.Session {
	return c.session
}

// Startup announces the service and its version. Call it once, first.
func (c *Client) Startup(version string) {
	if err := c.session.Startup(version); err != nil {
		c.fatal(fmt.Errorf("startup: %w", err))
	}
}

// Send writes m and returns its sequence id.
func (c *Client) Send(m Message) uint64 {
	seq, err := c.session.SendMessage(m)
	if err != nil {
		c.fatal(fmt.Errorf("send: %w", err))
	}
	return seq
}

// SendValue CBOR-encodes v and sends it to service as kind.
func (c *Client) SendValue(service, kind string, v any) uint64 {
	data, err := codec.Marshal(v)
	if err != nil {
		c.fatal(fmt.Errorf("encode %s: %w", kind, err))
		return 0
	}
	return c.Send(Message{Service: service, Kind: kind, Data: data})
}

// Receive blocks for the next message. It returns false once the channel
// closed cleanly or ctx is done.
func (c *Client) Receive(ctx context.Context) (Message, bool) {
	return c.result(c.session.Receive(ctx))
}

// Collect is Receive that keeps requesting heartbeats every rate while it
// waits.
func (c *Client) Collect(ctx context.Context, rate time.Duration) (Message, bool) {
	return c.result(c.session.Collect(ctx, rate))
}

func (c *Client) result(msg Message, err error) (Message, bool) {
	switch {
	case err == nil:
		return msg, true
	case errors.Is(err, session.ErrChannelClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return Message{}, false
	default:
		c.fatal(fmt.Errorf("receive: %w", err))
		return Message{}, false
	}
}

// Heartbeat reports liveness. It never blocks.
func (c *Client) Heartbeat() {
	c.session.Heartbeat()
}

// Close stops the session and waits for its background tasks.
func (c *Client) Close() {
	if err := c.session.Stop(); err != nil && !errors.Is(err, session.ErrNotStarted) {
		c.fatal(fmt.Errorf("close: %w", err))
	}
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"frame":     {frame.Version, frame.MinCompatibleVersion},
		"session":   {session.Version, session.MinCompatibleVersion},
		"heartbeat": {heartbeat.Version, heartbeat.MinCompatibleVersion},
		"lifecycle": {lifecycle.Version, lifecycle.MinCompatibleVersion},
		"comms":     {comms.Version, comms.MinCompatibleVersion},
		"codec":     {codec.Version, codec.MinCompatibleVersion},
		"log":       {log.Version, log.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}

	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}

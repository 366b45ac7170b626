package session

import (
	"fmt"

	"github.com/bft-labs/fleetspeak/pkg/frame"
	"github.com/bft-labs/fleetspeak/pkg/heartbeat"
)

// DefaultQueueCapacity is the inbound queue size used when none is set.
const DefaultQueueCapacity = 16

// Config holds session settings. Use DefaultConfig() as a starting point.
type Config struct {
	// Service is the destination service stamped on frames sent with Send.
	Service string

	// QueueCapacity bounds the number of received messages waiting for
	// Receive. A full queue stops the receive loop from reading.
	QueueCapacity int

	// Heartbeat selects the liveness cadence.
	Heartbeat heartbeat.Config

	// Limits bounds frame sizes in both directions.
	Limits frame.Limits
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		QueueCapacity: DefaultQueueCapacity,
		Heartbeat:     heartbeat.DefaultConfig(),
		Limits:        frame.DefaultLimits(),
	}
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	c.Heartbeat.SetDefaults()
	if c.Limits.MaxFrameBytes == 0 {
		c.Limits = frame.DefaultLimits()
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.QueueCapacity < 0 {
		return fmt.Errorf("%w: queue capacity %d", ErrInvalidConfig, c.QueueCapacity)
	}
	if c.Limits.MaxFrameBytes != 0 && c.Limits.MaxFrameBytes < frame.MinBodyLen {
		return fmt.Errorf("%w: frame limit %d below minimum frame size", ErrInvalidConfig, c.Limits.MaxFrameBytes)
	}
	if err := c.Heartbeat.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

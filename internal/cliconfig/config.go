package cliconfig

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/fleetspeak/pkg/frame"
	"github.com/bft-labs/fleetspeak/pkg/heartbeat"
	"github.com/bft-labs/fleetspeak/pkg/session"
)

// Config holds CLI configuration for fsgreeter.
type Config struct {
	// Service is the server-side service replies are addressed to when the
	// incoming message does not name one.
	Service  string
	Greeting string

	HeartbeatMode     string
	HeartbeatInterval time.Duration
	// CollectRate is how often a heartbeat is requested while waiting for
	// messages.
	CollectRate time.Duration

	QueueCapacity int
	MaxFrameBytes int

	LogLevel string
	Once     bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Service:           "greeter",
		Greeting:          "Hello",
		HeartbeatMode:     heartbeat.ModeThrottled.String(),
		HeartbeatInterval: heartbeat.DefaultInterval,
		CollectRate:       time.Second,
		QueueCapacity:     session.DefaultQueueCapacity,
		MaxFrameBytes:     int(frame.DefaultLimits().MaxFrameBytes),
		LogLevel:          "info",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Service == "" {
		return fmt.Errorf("service is required")
	}
	if _, err := heartbeat.ParseMode(c.HeartbeatMode); err != nil {
		return err
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive")
	}
	if c.CollectRate <= 0 {
		return fmt.Errorf("collect rate must be positive")
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue capacity must be positive")
	}
	if c.MaxFrameBytes < frame.MinBodyLen {
		return fmt.Errorf("max frame bytes must be at least %d", frame.MinBodyLen)
	}
	if int64(c.MaxFrameBytes) > math.MaxUint32 {
		return fmt.Errorf("max frame bytes must be at most %d", uint32(math.MaxUint32))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// SessionConfig converts c to the library configuration. Call Validate first.
func (c Config) SessionConfig() session.Config {
	mode, _ := heartbeat.ParseMode(c.HeartbeatMode)
	return session.Config{
		Service:       c.Service,
		QueueCapacity: c.QueueCapacity,
		Heartbeat: heartbeat.Config{
			Mode:     mode,
			Interval: c.HeartbeatInterval,
		},
		Limits: frame.Limits{MaxFrameBytes: uint32(c.MaxFrameBytes)},
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

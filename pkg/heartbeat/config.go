package heartbeat

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects the heartbeat cadence.
type Mode int

const (
	ModeFixed Mode = iota
	ModeThrottled
)

// DefaultInterval is used when Config.Interval is zero.
const DefaultInterval = 10 * time.Second

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeFixed:
		return "fixed"
	case ModeThrottled:
		return "throttled"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "fixed" or "throttled".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "":
		return ModeFixed, nil
	case "throttled":
		return ModeThrottled, nil
	default:
		return 0, fmt.Errorf("heartbeat: unknown mode %q", s)
	}
}

// Config holds scheduler settings.
type Config struct {
	Mode Mode

	// Interval is the emission period in ModeFixed and the minimum gap
	// between two heartbeats in ModeThrottled.
	Interval time.Duration
}

// DefaultConfig returns a fixed cadence of DefaultInterval.
func DefaultConfig() Config {
	return Config{Mode: ModeFixed, Interval: DefaultInterval}
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Mode != ModeFixed && c.Mode != ModeThrottled {
		return fmt.Errorf("heartbeat: invalid mode %d", int(c.Mode))
	}
	if c.Interval <= 0 {
		return errors.New("heartbeat: interval must be positive")
	}
	return nil
}

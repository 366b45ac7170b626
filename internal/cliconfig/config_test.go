package cliconfig

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/bft-labs/fleetspeak/pkg/heartbeat"
)

// maxFrame is a variable so the conversions below compile on 32-bit ints.
var maxFrame int64 = math.MaxUint32

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Service != "greeter" {
		t.Errorf("Service = %v, want greeter", cfg.Service)
	}
	if cfg.HeartbeatMode != "throttled" {
		t.Errorf("HeartbeatMode = %v, want throttled", cfg.HeartbeatMode)
	}
	if cfg.CollectRate != time.Second {
		t.Errorf("CollectRate = %v, want 1s", cfg.CollectRate)
	}
	if cfg.MaxFrameBytes != 8<<20 {
		t.Errorf("MaxFrameBytes = %v, want 8MB", cfg.MaxFrameBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"fixed mode", func(c *Config) { c.HeartbeatMode = "fixed" }, false},
		{"missing service", func(c *Config) { c.Service = "" }, true},
		{"unknown mode", func(c *Config) { c.HeartbeatMode = "sometimes" }, true},
		{"zero heartbeat interval", func(c *Config) { c.HeartbeatInterval = 0 }, true},
		{"zero collect rate", func(c *Config) { c.CollectRate = 0 }, true},
		{"zero queue", func(c *Config) { c.QueueCapacity = 0 }, true},
		{"tiny frames", func(c *Config) { c.MaxFrameBytes = 8 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_FrameLimitBeyond32Bits(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("int cannot hold the value")
	}
	cfg := DefaultConfig()
	cfg.MaxFrameBytes = int(maxFrame)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() rejected the largest 32-bit limit: %v", err)
	}
	if got := cfg.SessionConfig().Limits.MaxFrameBytes; got != math.MaxUint32 {
		t.Errorf("SessionConfig() limit = %d, want %d", got, uint32(math.MaxUint32))
	}

	cfg.MaxFrameBytes = int(maxFrame + 1)
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() accepted MaxFrameBytes = %d, which wraps to %d", cfg.MaxFrameBytes, uint32(cfg.MaxFrameBytes))
	}
}

func TestConfig_SessionConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Service = "echo"
	cfg.HeartbeatMode = "fixed"
	cfg.HeartbeatInterval = 3 * time.Second
	cfg.QueueCapacity = 4
	cfg.MaxFrameBytes = 1024

	sc := cfg.SessionConfig()
	if sc.Service != "echo" || sc.QueueCapacity != 4 || sc.Limits.MaxFrameBytes != 1024 {
		t.Errorf("SessionConfig() = %+v", sc)
	}
	if sc.Heartbeat.Mode != heartbeat.ModeFixed || sc.Heartbeat.Interval != 3*time.Second {
		t.Errorf("SessionConfig().Heartbeat = %+v", sc.Heartbeat)
	}
	if err := sc.Validate(); err != nil {
		t.Errorf("SessionConfig().Validate() error = %v", err)
	}
}

func TestLogger_Level(t *testing.T) {
	if got := Logger("debug").Logger().GetLevel().String(); got != "debug" {
		t.Errorf("Logger(debug) level = %s", got)
	}
	if got := Logger("nonsense").Logger().GetLevel().String(); got != "info" {
		t.Errorf("Logger(nonsense) level = %s, want info", got)
	}
}

package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Service:           "echo",
				Greeting:          "Hi",
				HeartbeatMode:     "fixed",
				HeartbeatInterval: "5s",
				CollectRate:       "250ms",
				QueueCapacity:     32,
				MaxFrameBytes:     4096,
				LogLevel:          "debug",
				Once:              &trueVal,
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Service:           "echo",
				Greeting:          "Hi",
				HeartbeatMode:     "fixed",
				HeartbeatInterval: 5 * time.Second,
				CollectRate:       250 * time.Millisecond,
				QueueCapacity:     32,
				MaxFrameBytes:     4096,
				LogLevel:          "debug",
				Once:              true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Service:           "from-file",
				HeartbeatInterval: "1m",
			},
			changed: map[string]bool{"service": true},
			initial: Config{Service: "from-flag"},
			expected: Config{
				Service:           "from-flag",
				HeartbeatInterval: time.Minute,
			},
		},
		{
			name:       "zero values leave config untouched",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    DefaultConfig(),
			expected:   DefaultConfig(),
		},
		{
			name:       "invalid duration",
			fileConfig: FileConfig{CollectRate: "often"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyFileConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.TrimSpace(`
service = "echo"
heartbeat_mode = "throttled"
heartbeat_interval = "2s"
queue_capacity = 8
once = true
`)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}
	if fc.Service != "echo" || fc.HeartbeatMode != "throttled" || fc.HeartbeatInterval != "2s" || fc.QueueCapacity != 8 {
		t.Errorf("LoadFileConfig() = %+v", fc)
	}
	if fc.Once == nil || !*fc.Once {
		t.Errorf("Once = %v, want true", fc.Once)
	}
}

func TestLoadFileConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFileConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("LoadFileConfig() of a missing file succeeded")
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("service = "), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFileConfig(bad); err == nil {
		t.Error("LoadFileConfig() of invalid TOML succeeded")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("FileExists() = false for an existing file")
	}
	if FileExists(filepath.Join(dir, "absent")) {
		t.Error("FileExists() = true for a missing file")
	}
}

package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (FSGREETER_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("service", os.Getenv("FSGREETER_SERVICE"), &cfg.Service)
	s.setString("greeting", os.Getenv("FSGREETER_GREETING"), &cfg.Greeting)
	s.setString("heartbeat-mode", os.Getenv("FSGREETER_HEARTBEAT_MODE"), &cfg.HeartbeatMode)
	s.setString("log-level", os.Getenv("FSGREETER_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("heartbeat-interval", os.Getenv("FSGREETER_HEARTBEAT_INTERVAL"), &cfg.HeartbeatInterval); err != nil {
		return err
	}
	if err := s.setDuration("collect-rate", os.Getenv("FSGREETER_COLLECT_RATE"), &cfg.CollectRate); err != nil {
		return err
	}

	if err := s.setIntFromString("queue-capacity", os.Getenv("FSGREETER_QUEUE_CAPACITY"), &cfg.QueueCapacity); err != nil {
		return err
	}
	if err := s.setIntFromString("max-frame-bytes", os.Getenv("FSGREETER_MAX_FRAME_BYTES"), &cfg.MaxFrameBytes); err != nil {
		return err
	}

	s.setBoolFromString("once", os.Getenv("FSGREETER_ONCE"), &cfg.Once)

	return nil
}

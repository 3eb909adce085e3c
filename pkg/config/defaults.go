package config

import (
	"time"

	"github.com/iamdhrv/bigbluebutton/pkg/store"
)

// GetDefaultConfig returns the configuration used when no config file
// exists: redis on localhost with the compatibility key prefix.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "redis"
	}
	if cfg.Store.KeyPrefix == "" {
		cfg.Store.KeyPrefix = store.DefaultKeyPrefix
	}
	if cfg.Store.Redis.Address == "" {
		cfg.Store.Redis.Address = "localhost:6379"
	}
	if cfg.Store.Redis.DialTimeout == 0 {
		cfg.Store.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Store.Redis.ReadTimeout == 0 {
		cfg.Store.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Store.Redis.WriteTimeout == 0 {
		cfg.Store.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Store.Badger.Path == "" {
		cfg.Store.Badger.Path = "/var/lib/bbb-webhooks/mappings"
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:3005"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1.0
	}
	if cfg.Telemetry.Profiling.Endpoint == "" {
		cfg.Telemetry.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Telemetry.Profiling.ProfileTypes) == 0 {
		cfg.Telemetry.Profiling.ProfileTypes = []string{"cpu", "alloc_objects", "inuse_space", "goroutines"}
	}
}

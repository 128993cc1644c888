package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Executor kind names accepted by the CLI and config.
const (
	ExecutorSequential = "sequential"
	ExecutorThreads    = "threads"
	ExecutorProcesses  = "processes"
)

// Checkpoint backend names.
const (
	CheckpointFile  = "file"
	CheckpointRedis = "redis"
)

// Config holds all configuration for the engine.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP status API
	HTTPPort int  `env:"DAGFLOW_HTTP_PORT" envDefault:"8080"`
	ServeAPI bool `env:"DAGFLOW_SERVE_API" envDefault:"false"`

	Scheduler  SchedulerConfig
	Executor   ExecutorConfig
	Checkpoint CheckpointConfig
	Redis      RedisConfig
}

// SchedulerConfig tunes the orchestration loop.
type SchedulerConfig struct {
	// IdleInterval is the poll sleep when no task is ready. It affects
	// latency only, never correctness.
	IdleInterval time.Duration `env:"DAGFLOW_IDLE_INTERVAL" envDefault:"100ms"`
}

// ExecutorConfig selects the execution backend.
type ExecutorConfig struct {
	Kind    string `env:"DAGFLOW_EXECUTOR" envDefault:"sequential"`
	Workers int    `env:"DAGFLOW_WORKERS" envDefault:"4"`
}

// CheckpointConfig selects and tunes the checkpoint store.
type CheckpointConfig struct {
	Backend string `env:"DAGFLOW_CHECKPOINT_BACKEND" envDefault:"file"`
	Path    string `env:"DAGFLOW_CHECKPOINT_PATH"`

	// TriggerEvents overrides the auto-save trigger kinds.
	TriggerEvents []string `env:"DAGFLOW_CHECKPOINT_EVENTS" envSeparator:","`
}

// RedisConfig holds Redis connection settings for the redis checkpoint
// backend.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string        `env:"REDIS_PASS"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"DAGFLOW_CHECKPOINT_TTL" envDefault:"24h"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	switch c.Executor.Kind {
	case ExecutorSequential, ExecutorThreads, ExecutorProcesses:
	default:
		return fmt.Errorf("unknown executor kind: %s (must be %s, %s or %s)",
			c.Executor.Kind, ExecutorSequential, ExecutorThreads, ExecutorProcesses)
	}
	if c.Executor.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}

	switch c.Checkpoint.Backend {
	case CheckpointFile, CheckpointRedis:
	default:
		return fmt.Errorf("unknown checkpoint backend: %s", c.Checkpoint.Backend)
	}
	if c.Checkpoint.Backend == CheckpointRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required for the redis checkpoint backend")
	}

	if c.Scheduler.IdleInterval <= 0 {
		return fmt.Errorf("idle interval must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Package config loads agentkit's executor and sandbox settings: defaults,
// then an optional TOML file, then environment variables (env wins).
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Executor  ExecutorConfig  `toml:"executor"`
	Sandbox   SandboxConfig   `toml:"sandbox"`
	Trace     TraceConfig     `toml:"trace"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// ExecutorConfig tunes StepwiseExecutor.
type ExecutorConfig struct {
	KernelTTLSeconds int `toml:"kernel_ttl_seconds"`
}

// SandboxConfig selects and configures the isolation boundary a
// sandboxed tool runs in.
type SandboxConfig struct {
	Mode        string `toml:"mode"` // "inprocess", "subprocess", "container"
	Image       string `toml:"image"`
	TimeoutSecs int    `toml:"timeout_secs"`
	MaxOutput   int    `toml:"max_output_bytes"`
}

// TraceConfig selects the execution-trace persistence backend.
type TraceConfig struct {
	Driver string `toml:"driver"` // "sqlite", "postgres", ""  (disabled)
	DSN    string `toml:"dsn"`
}

// TelemetryConfig enables OTEL tracing and metrics export via telemetry.Init.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Executor: ExecutorConfig{KernelTTLSeconds: 30 * 60},
		Sandbox:  SandboxConfig{Mode: "inprocess", TimeoutSecs: 30, MaxOutput: 64 << 10},
		Trace:    TraceConfig{Driver: "sqlite", DSN: "agentkit-trace.db"},
	}
}

// KernelTTL returns the configured kernel session TTL as a Duration.
func (c ExecutorConfig) KernelTTL() time.Duration {
	return time.Duration(c.KernelTTLSeconds) * time.Second
}

// Load reads config: defaults -> TOML file (if path exists) -> env vars.
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "agentkit.toml"
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("AGENTKIT_SANDBOX_MODE"); v != "" {
		cfg.Sandbox.Mode = v
	}
	if v := os.Getenv("AGENTKIT_SANDBOX_IMAGE"); v != "" {
		cfg.Sandbox.Image = v
	}
	if v := os.Getenv("AGENTKIT_TRACE_DSN"); v != "" {
		cfg.Trace.DSN = v
	}
	if v := os.Getenv("AGENTKIT_TELEMETRY_ENABLED"); v == "true" || v == "1" {
		cfg.Telemetry.Enabled = true
	}

	return cfg
}

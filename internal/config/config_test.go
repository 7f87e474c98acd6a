package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Sandbox.Mode != "inprocess" {
		t.Errorf("expected inprocess, got %s", cfg.Sandbox.Mode)
	}
	if cfg.Executor.KernelTTLSeconds != 30*60 {
		t.Errorf("expected 1800, got %d", cfg.Executor.KernelTTLSeconds)
	}
	if cfg.Trace.Driver != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.Trace.Driver)
	}
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	os.WriteFile(path, []byte(`
[sandbox]
mode = "subprocess"
timeout_secs = 10

[executor]
kernel_ttl_seconds = 60
`), 0644)

	cfg := Load(path)
	if cfg.Sandbox.Mode != "subprocess" {
		t.Errorf("expected subprocess, got %s", cfg.Sandbox.Mode)
	}
	if cfg.Executor.KernelTTLSeconds != 60 {
		t.Errorf("expected 60, got %d", cfg.Executor.KernelTTLSeconds)
	}
	// Defaults preserved for fields the TOML didn't touch.
	if cfg.Trace.Driver != "sqlite" {
		t.Errorf("default should be preserved, got %s", cfg.Trace.Driver)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("AGENTKIT_SANDBOX_MODE", "container")
	t.Setenv("AGENTKIT_TRACE_DSN", "env.db")

	cfg := Load("/nonexistent/path.toml")
	if cfg.Sandbox.Mode != "container" {
		t.Errorf("expected container, got %s", cfg.Sandbox.Mode)
	}
	if cfg.Trace.DSN != "env.db" {
		t.Errorf("expected env.db, got %s", cfg.Trace.DSN)
	}
}

func TestKernelTTLDuration(t *testing.T) {
	cfg := Default()
	if got, want := cfg.Executor.KernelTTL().Minutes(), 30.0; got != want {
		t.Errorf("KernelTTL() = %v minutes, want %v", got, want)
	}
}

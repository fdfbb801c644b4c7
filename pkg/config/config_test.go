package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quorum.yaml")
	payload := []byte(`
agent:
  name: worker-1
  listen: ":9090"
  skills:
    - id: research
      name: Research
      tags: [research, web]
discovery:
  static_agents:
    - name: fallback
      base_url: http://localhost:8081
      capabilities: [research, web]
coordinator:
  poll_interval: 100ms
`)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("QUORUM_LOG_LEVEL", "debug")
	t.Setenv("QUORUM_AGENT_NAME", "worker-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Defaults survive where nothing overrides them.
	if cfg.Log.Format != "text" {
		t.Fatalf("default log format lost: %q", cfg.Log.Format)
	}
	if cfg.Registry.Listen != ":8090" {
		t.Fatalf("default registry listen lost: %q", cfg.Registry.Listen)
	}
	if cfg.Coordinator.MaxPollAttempts != 240 {
		t.Fatalf("default poll attempts lost: %d", cfg.Coordinator.MaxPollAttempts)
	}

	// File values override defaults.
	if cfg.Agent.Listen != ":9090" {
		t.Fatalf("file override lost: %q", cfg.Agent.Listen)
	}
	if cfg.Coordinator.PollInterval != 100*time.Millisecond {
		t.Fatalf("duration not parsed: %v", cfg.Coordinator.PollInterval)
	}
	if len(cfg.Agent.Skills) != 1 || cfg.Agent.Skills[0].ID != "research" {
		t.Fatalf("skills not parsed: %+v", cfg.Agent.Skills)
	}
	if len(cfg.Discovery.StaticAgents) != 1 || len(cfg.Discovery.StaticAgents[0].Capabilities) != 2 {
		t.Fatalf("static agent capabilities not parsed: %+v", cfg.Discovery.StaticAgents)
	}

	// Environment overrides both.
	if cfg.Log.Level != "debug" {
		t.Fatalf("env override lost: %q", cfg.Log.Level)
	}
	if cfg.Agent.Name != "worker-env" {
		t.Fatalf("env should beat file: %q", cfg.Agent.Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/quorum.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

// Package config loads runtime configuration for the coordination services
// from YAML files and environment variables.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log         LogConfig         `koanf:"log"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
	Agent       AgentConfig       `koanf:"agent"`
	LLM         LLMConfig         `koanf:"llm"`
	Registry    RegistryConfig    `koanf:"registry"`
	Discovery   DiscoveryConfig   `koanf:"discovery"`
	Coordinator CoordinatorConfig `koanf:"coordinator"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type AgentConfig struct {
	Name        string        `koanf:"name"`
	Description string        `koanf:"description"`
	Version     string        `koanf:"version"`
	Listen      string        `koanf:"listen"`
	BaseURL     string        `koanf:"base_url"`
	MaxTasks    int           `koanf:"max_tasks"` // 0 disables eviction
	Skills      []SkillConfig `koanf:"skills"`
}

type SkillConfig struct {
	ID          string   `koanf:"id"`
	Name        string   `koanf:"name"`
	Description string   `koanf:"description"`
	Tags        []string `koanf:"tags"`
}

type LLMConfig struct {
	Provider string `koanf:"provider"` // mock, echo
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
}

type RegistryConfig struct {
	Listen              string        `koanf:"listen"`
	HealthCheckInterval time.Duration `koanf:"health_check_interval"`
	ProbeTimeout        time.Duration `koanf:"probe_timeout"`
}

type DiscoveryConfig struct {
	RegistryURL       string        `koanf:"registry_url"`
	AutoRegister      bool          `koanf:"auto_register"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	StaticAgents      []StaticAgent `koanf:"static_agents"`
}

type StaticAgent struct {
	Name         string   `koanf:"name"`
	BaseURL      string   `koanf:"base_url"`
	Capabilities []string `koanf:"capabilities"`
}

type CoordinatorConfig struct {
	PollInterval    time.Duration `koanf:"poll_interval"`
	MaxPollAttempts int           `koanf:"max_poll_attempts"`
}

// Global k instance
var k = koanf.New(".")

func Load(path string) (*Config, error) {
	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("telemetry.exporter", "stdout")

	k.Set("agent.name", "quorum-agent")
	k.Set("agent.version", "0.1.0")
	k.Set("agent.listen", ":8080")
	k.Set("agent.base_url", "http://localhost:8080")

	k.Set("llm.provider", "echo")

	k.Set("registry.listen", ":8090")
	k.Set("registry.health_check_interval", "30s")
	k.Set("registry.probe_timeout", "5s")

	k.Set("discovery.registry_url", "http://localhost:8090")
	k.Set("discovery.auto_register", false)
	k.Set("discovery.heartbeat_interval", "20s")

	k.Set("coordinator.poll_interval", "250ms")
	k.Set("coordinator.max_poll_attempts", 240)

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (QUORUM_AGENT_LISTEN -> agent.listen)
	if err := k.Load(env.Provider("QUORUM_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "QUORUM_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

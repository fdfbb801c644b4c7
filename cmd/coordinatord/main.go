// Command coordinatord runs the coordinator agent. It exposes the same task
// protocol as a worker, but its executor decomposes each goal into a plan and
// drives worker agents through their endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pcanals/quorum/pkg/a2a/agentcard"
	"github.com/pcanals/quorum/pkg/a2a/jsonrpc"
	"github.com/pcanals/quorum/pkg/a2a/server"
	"github.com/pcanals/quorum/pkg/a2a/types"
	"github.com/pcanals/quorum/pkg/config"
	"github.com/pcanals/quorum/pkg/coordinator"
	"github.com/pcanals/quorum/pkg/discovery"
	"github.com/pcanals/quorum/pkg/llm"
	"github.com/pcanals/quorum/pkg/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := telemetry.ConfigureSlog(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	shutdownTel, err := telemetry.InitWithConfig(cfg.Agent.Name, cfg.Agent.Version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver, err := buildResolver(cfg)
	if err != nil {
		return err
	}

	provider := providerFromConfig(cfg.LLM)
	coord := coordinator.New(
		&coordinator.LLMDecomposer{Provider: provider, Model: cfg.LLM.Model},
		resolver,
		coordinator.WithSynthesis(provider, cfg.LLM.Model),
		coordinator.WithPolling(cfg.Coordinator.PollInterval, cfg.Coordinator.MaxPollAttempts),
		coordinator.WithLogger(logger),
	)

	card := agentcard.Build(agentcard.Config{
		Name:        cfg.Agent.Name,
		Description: cfg.Agent.Description,
		Version:     cfg.Agent.Version,
		BaseURL:     cfg.Agent.BaseURL,
		Skills: []types.AgentSkill{
			{ID: "coordinate", Name: "Coordinate", Description: "Decomposes goals and delegates subtasks", Tags: []string{"coordination", "planning"}},
		},
	})

	store := server.NewMemoryTaskStore()
	store.MaxTasks = cfg.Agent.MaxTasks
	handler := server.NewHandler(coord, card,
		server.WithStore(store),
		server.WithLogger(logger))

	srv := &http.Server{
		Addr:              cfg.Agent.Listen,
		Handler:           jsonrpc.NewMux(handler, card),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("coordinatord.listening", slog.String("addr", cfg.Agent.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("coordinatord.shutdown", telemetry.Err(err))
	}
	return shutdownTel(shutdownCtx)
}

// buildResolver prefers the registry and falls back to statically configured
// agents when the registry is down or empty.
func buildResolver(cfg *config.Config) (*discovery.Resolver, error) {
	providers := make([]discovery.Provider, 0, 2)
	if cfg.Discovery.RegistryURL != "" {
		providers = append(providers, discovery.NewRegistryProvider(cfg.Discovery.RegistryURL))
	}
	if len(cfg.Discovery.StaticAgents) > 0 {
		endpoints := make([]discovery.AgentEndpoint, 0, len(cfg.Discovery.StaticAgents))
		for _, agent := range cfg.Discovery.StaticAgents {
			endpoints = append(endpoints, discovery.AgentEndpoint{
				Name:         agent.Name,
				BaseURL:      agent.BaseURL,
				Capabilities: agent.Capabilities,
			})
		}
		providers = append(providers, &discovery.StaticProvider{Endpoints: endpoints})
	}
	return discovery.NewResolver(providers...)
}

func providerFromConfig(cfg config.LLMConfig) llm.Provider {
	switch cfg.Provider {
	case "mock":
		return &llm.MockProvider{Response: "ok"}
	default:
		return &llm.EchoProvider{}
	}
}

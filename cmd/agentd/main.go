// Command agentd runs a worker agent endpoint: agent card discovery plus the
// JSON-RPC task protocol, processing tasks through the configured provider.
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

	card := agentcard.Build(agentcard.Config{
		Name:        cfg.Agent.Name,
		Description: cfg.Agent.Description,
		Version:     cfg.Agent.Version,
		BaseURL:     cfg.Agent.BaseURL,
		Skills:      skillsFromConfig(cfg.Agent.Skills),
	})

	executor := &llm.Executor{
		Provider: providerFromConfig(cfg.LLM),
		Model:    cfg.LLM.Model,
	}
	store := server.NewMemoryTaskStore()
	store.MaxTasks = cfg.Agent.MaxTasks
	handler := server.NewHandler(executor, card,
		server.WithStore(store),
		server.WithLogger(logger))

	srv := &http.Server{
		Addr:              cfg.Agent.Listen,
		Handler:           jsonrpc.NewMux(handler, card),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Discovery.AutoRegister {
		provider := discovery.NewRegistryProvider(cfg.Discovery.RegistryURL)
		cancel, err := discovery.StartAutoRegister(ctx, provider, cfg.Agent.Name, cfg.Agent.BaseURL, cfg.Discovery.HeartbeatInterval)
		if err != nil {
			return fmt.Errorf("auto register: %w", err)
		}
		defer cancel()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("agentd.listening", slog.String("addr", cfg.Agent.Listen), slog.String("agent", cfg.Agent.Name))
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
		logger.Warn("agentd.shutdown", telemetry.Err(err))
	}
	return shutdownTel(shutdownCtx)
}

func skillsFromConfig(skills []config.SkillConfig) []types.AgentSkill {
	out := make([]types.AgentSkill, 0, len(skills))
	for _, skill := range skills {
		out = append(out, types.AgentSkill{
			ID:          skill.ID,
			Name:        skill.Name,
			Description: skill.Description,
			Tags:        skill.Tags,
		})
	}
	return out
}

func providerFromConfig(cfg config.LLMConfig) llm.Provider {
	switch cfg.Provider {
	case "mock":
		return &llm.MockProvider{Response: "ok"}
	default:
		return &llm.EchoProvider{}
	}
}

package discovery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pcanals/quorum/pkg/telemetry"
)

const defaultHeartbeat = 20 * time.Second

// StartAutoRegister registers the agent and keeps it fresh with heartbeats.
// A heartbeat rejection, seen after a registry restart, falls back to a full
// re-register so the card is probed again.
func StartAutoRegister(ctx context.Context, provider *RegistryProvider, name, address string, interval time.Duration) (context.CancelFunc, error) {
	if provider == nil || provider.BaseURL == "" {
		return nil, errors.New("registry provider not configured")
	}
	if name == "" || address == "" {
		return nil, errors.New("agent name and address are required")
	}
	if interval <= 0 {
		interval = defaultHeartbeat
	}
	ctx, cancel := context.WithCancel(ctx)
	logger := slog.Default()

	register := func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Register(ctx, name, address); err != nil {
			logger.Warn("discovery.register.failed", telemetry.Err(err))
		}
	}
	beat := func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Heartbeat(ctx, name); err != nil {
			logger.Warn("discovery.heartbeat.failed", telemetry.Err(err))
			register()
		}
	}

	register()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				beat()
			}
		}
	}()

	return cancel, nil
}

// Copyright 2026 © The Quorum Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry tracks known agents, their capability cards, and their
// liveness.
package registry

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pcanals/quorum/pkg/a2a/agentcard"
	"github.com/pcanals/quorum/pkg/a2a/jsonrpc/client"
	"github.com/pcanals/quorum/pkg/a2a/types"
	qerrors "github.com/pcanals/quorum/pkg/errors"
	"github.com/pcanals/quorum/pkg/telemetry"
)

// Status is the registry's view of an agent's liveness.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusUnknown Status = "unknown"
)

// Entry is one registered agent.
type Entry struct {
	Name         string           `json:"name"`
	Address      string           `json:"address"`
	Card         *types.AgentCard `json:"card"`
	Status       Status           `json:"status"`
	RegisteredAt time.Time        `json:"registered_at"`
	LastSeen     time.Time        `json:"last_seen"`

	order int
}

func (e *Entry) clone() *Entry {
	if e == nil {
		return nil
	}
	out := *e
	return &out
}

// Stats summarizes the registry population: counts by status plus the
// deduplicated capability and version sets across all registered cards.
type Stats struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`
	Unknown int `json:"unknown"`

	Capabilities []string `json:"capabilities,omitempty"`
	Versions     []string `json:"versions,omitempty"`
}

// Registry is an in-memory agent registry with health probing.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	nextOrd int

	httpClient   *http.Client
	probeTimeout time.Duration
	logger       *slog.Logger
}

// Option configures the registry.
type Option func(*Registry)

// WithHTTPClient overrides the probe HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(r *Registry) {
		if httpClient != nil {
			r.httpClient = httpClient
		}
	}
}

// WithProbeTimeout bounds each liveness probe.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(r *Registry) {
		if timeout > 0 {
			r.probeTimeout = timeout
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries:      map[string]*Entry{},
		httpClient:   http.DefaultClient,
		probeTimeout: 5 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register probes the agent's card endpoint and records the entry. The agent
// must be reachable at registration time. Re-registering an existing name
// refreshes its card and keeps the original registration order.
func (r *Registry) Register(ctx context.Context, name, address string) (*Entry, error) {
	name = strings.TrimSpace(name)
	address = strings.TrimRight(strings.TrimSpace(address), "/")
	if name == "" || address == "" {
		return nil, qerrors.New(qerrors.CodeInvalidParams, "agent name and address are required", nil)
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()
	card, err := agentcard.Fetch(probeCtx, r.httpClient, address)
	telemetry.RecordRegistryProbe(ctx, name, err == nil)
	if err != nil {
		return nil, qerrors.New(qerrors.CodeAgentUnavailable, "agent card probe failed", err).
			WithContext("agent", name).
			WithContext("address", address)
	}

	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.entries[name]
	if !exists {
		entry = &Entry{
			Name:         name,
			RegisteredAt: now,
			order:        r.nextOrd,
		}
		r.nextOrd++
		r.entries[name] = entry
	}
	entry.Address = address
	entry.Card = card
	entry.Status = StatusOnline
	entry.LastSeen = now

	r.logger.Info("registry.register",
		slog.String("agent", name),
		slog.String("address", address),
		slog.Int("skills", len(card.Skills)))
	return entry.clone(), nil
}

// Unregister removes the entry. Removing an unknown name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return
	}
	delete(r.entries, name)
	r.logger.Info("registry.unregister", slog.String("agent", name))
}

// Get returns the entry for name, if registered.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry.clone(), ok
}

// List returns all entries in registration order.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked()
}

func (r *Registry) sortedLocked() []*Entry {
	out := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].order < out[j].order
	})
	return out
}

// SearchByCapability returns entries whose card offers the capability. The
// match is a case-insensitive substring test against the card's capability
// tags, in registration order.
func (r *Registry) SearchByCapability(capability string) []*Entry {
	capability = strings.ToLower(strings.TrimSpace(capability))
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0)
	for _, entry := range r.sortedLocked() {
		if capability == "" {
			continue
		}
		if entry.Card != nil && cardOffers(entry.Card, capability) {
			out = append(out, entry)
		}
	}
	return out
}

func cardOffers(card *types.AgentCard, capability string) bool {
	for _, tag := range card.CapabilityTags() {
		tag = strings.ToLower(tag)
		if strings.Contains(tag, capability) || strings.Contains(capability, tag) {
			return true
		}
	}
	return false
}

// Stats returns population counts by status and the aggregate capability and
// version sets, both deduplicated in registration order.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := Stats{Total: len(r.entries)}
	seenCap := map[string]struct{}{}
	seenVer := map[string]struct{}{}
	for _, entry := range r.sortedLocked() {
		switch entry.Status {
		case StatusOnline:
			stats.Online++
		case StatusOffline:
			stats.Offline++
		default:
			stats.Unknown++
		}
		if entry.Card == nil {
			continue
		}
		for _, tag := range entry.Card.CapabilityTags() {
			if _, ok := seenCap[tag]; ok {
				continue
			}
			seenCap[tag] = struct{}{}
			stats.Capabilities = append(stats.Capabilities, tag)
		}
		if version := entry.Card.Version; version != "" {
			if _, ok := seenVer[version]; !ok {
				seenVer[version] = struct{}{}
				stats.Versions = append(stats.Versions, version)
			}
		}
	}
	return stats
}

// Heartbeat refreshes an entry's last-seen timestamp and marks it online.
func (r *Registry) Heartbeat(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	if !ok {
		return qerrors.New(qerrors.CodeAgentUnavailable, "agent not registered", nil).
			WithContext("agent", name)
	}
	entry.Status = StatusOnline
	entry.LastSeen = time.Now().UTC()
	return nil
}

// HealthCheck pings every registered agent concurrently over its task
// protocol endpoint and updates each entry's status. Probes run outside the
// registry lock.
func (r *Registry) HealthCheck(ctx context.Context) Stats {
	r.mu.RLock()
	targets := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		targets = append(targets, entry.clone())
	}
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(target *Entry) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
			defer cancel()
			remote := client.New(target.Address, client.WithHTTPClient(r.httpClient))
			_, err := remote.Ping(probeCtx)
			telemetry.RecordRegistryProbe(ctx, target.Name, err == nil)
			r.recordProbe(target.Name, err == nil)
			if err != nil {
				r.logger.Warn("registry.probe.failed",
					slog.String("agent", target.Name),
					telemetry.Err(err))
			}
		}(target)
	}
	wg.Wait()
	return r.Stats()
}

func (r *Registry) recordProbe(name string, healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	if !ok {
		// Unregistered while the probe was in flight.
		return
	}
	if healthy {
		entry.Status = StatusOnline
		entry.LastSeen = time.Now().UTC()
	} else {
		entry.Status = StatusOffline
	}
}

// Start runs periodic health checks until ctx is cancelled.
func (r *Registry) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := r.HealthCheck(ctx)
				r.logger.Debug("registry.health_check",
					slog.Int("total", stats.Total),
					slog.Int("online", stats.Online),
					slog.Int("offline", stats.Offline))
			}
		}
	}()
}

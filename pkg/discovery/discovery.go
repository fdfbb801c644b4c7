// Copyright 2026 © The Quorum Authors
// SPDX-License-Identifier: Apache-2.0

// Package discovery resolves the set of worker agents a coordinator can
// dispatch to.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// AgentEndpoint represents a discovered agent entry. Capabilities carry the
// tags offered by the agent's card. Endpoints keep the order reported by
// their provider, which for the registry is registration order.
type AgentEndpoint struct {
	Name         string   `json:"name"`
	BaseURL      string   `json:"base_url"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Provider lists agent endpoints from one source.
type Provider interface {
	List(ctx context.Context) ([]AgentEndpoint, error)
}

// Resolver aggregates providers in priority order.
type Resolver struct {
	providers []Provider
}

// NewResolver creates a resolver with providers in order of priority.
func NewResolver(providers ...Provider) (*Resolver, error) {
	filtered := make([]Provider, 0, len(providers))
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		filtered = append(filtered, provider)
	}
	if len(filtered) == 0 {
		return nil, errors.New("no discovery providers configured")
	}
	return &Resolver{providers: filtered}, nil
}

// Resolve returns discovered endpoints in order, deduped by base URL. A
// provider error falls through to the next provider; the error is returned
// only when every provider fails.
func (r *Resolver) Resolve(ctx context.Context) ([]AgentEndpoint, error) {
	if r == nil {
		return nil, errors.New("resolver is nil")
	}
	out := make([]AgentEndpoint, 0)
	seen := map[string]struct{}{}
	var lastErr error
	succeeded := false
	for _, provider := range r.providers {
		entries, err := provider.List(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		succeeded = true
		for _, entry := range entries {
			key := normalizeKey(entry.BaseURL, entry.Name)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, entry)
		}
	}
	if !succeeded && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

// Dedupe by base URL when possible, otherwise by name.
func normalizeKey(url, name string) string {
	url = strings.TrimSpace(strings.ToLower(url))
	if url != "" {
		return strings.TrimRight(url, "/")
	}
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return ""
	}
	return fmt.Sprintf("name:%s", name)
}

// StaticProvider serves a fixed endpoint list, typically from config.
type StaticProvider struct {
	Endpoints []AgentEndpoint
}

// List returns the configured endpoints.
func (p *StaticProvider) List(ctx context.Context) ([]AgentEndpoint, error) {
	if p == nil {
		return nil, nil
	}
	out := make([]AgentEndpoint, len(p.Endpoints))
	copy(out, p.Endpoints)
	return out, nil
}

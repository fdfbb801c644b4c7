package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pcanals/quorum/pkg/registry"
)

// RegistryProvider queries an external registry service.
type RegistryProvider struct {
	BaseURL string
	HTTP    *http.Client
}

// NewRegistryProvider creates a registry provider pointing at baseURL.
func NewRegistryProvider(baseURL string) *RegistryProvider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &RegistryProvider{
		BaseURL: baseURL,
		HTTP:    http.DefaultClient,
	}
}

// List returns registered endpoints in registration order.
func (p *RegistryProvider) List(ctx context.Context) ([]AgentEndpoint, error) {
	if p == nil || p.BaseURL == "" {
		return nil, nil
	}
	url := p.BaseURL + "/v1/agents"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry list failed: %s", resp.Status)
	}
	var entries []*registry.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}
	out := make([]AgentEndpoint, 0, len(entries))
	for _, entry := range entries {
		if entry == nil || entry.Status == registry.StatusOffline {
			continue
		}
		endpoint := AgentEndpoint{
			Name:    entry.Name,
			BaseURL: entry.Address,
		}
		if entry.Card != nil {
			endpoint.Capabilities = entry.Card.CapabilityTags()
		}
		out = append(out, endpoint)
	}
	return out, nil
}

// Register registers an endpoint in the registry.
func (p *RegistryProvider) Register(ctx context.Context, name, address string) error {
	if p == nil || p.BaseURL == "" {
		return errors.New("registry base url not configured")
	}
	payload, err := json.Marshal(registry.RegisterRequest{Name: name, Address: address})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/agents", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.http().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry register failed: %s", resp.Status)
	}
	return nil
}

// Heartbeat refreshes the agent's last-seen timestamp in the registry.
func (p *RegistryProvider) Heartbeat(ctx context.Context, name string) error {
	if p == nil || p.BaseURL == "" {
		return errors.New("registry base url not configured")
	}
	url := fmt.Sprintf("%s/v1/agents/%s/heartbeat", p.BaseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.http().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry heartbeat failed: %s", resp.Status)
	}
	return nil
}

// Unregister removes the agent from the registry.
func (p *RegistryProvider) Unregister(ctx context.Context, name string) error {
	if p == nil || p.BaseURL == "" {
		return errors.New("registry base url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.BaseURL+"/v1/agents/"+name, nil)
	if err != nil {
		return err
	}
	resp, err := p.http().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry unregister failed: %s", resp.Status)
	}
	return nil
}

func (p *RegistryProvider) http() *http.Client {
	if p != nil && p.HTTP != nil {
		return p.HTTP
	}
	return http.DefaultClient
}

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pcanals/quorum/pkg/a2a/agentcard"
	"github.com/pcanals/quorum/pkg/a2a/jsonrpc"
	"github.com/pcanals/quorum/pkg/a2a/server"
	"github.com/pcanals/quorum/pkg/a2a/types"
	qerrors "github.com/pcanals/quorum/pkg/errors"
)

type nopExecutor struct{}

func (nopExecutor) Run(ctx context.Context, message *types.Message) (any, []*types.Artifact, error) {
	return "ok", nil, nil
}

func agentCard(name string, tags ...string) *types.AgentCard {
	return &types.AgentCard{
		ProtocolVersion: types.ProtocolVersion,
		Name:            name,
		Version:         "0.0.1",
		Skills:          []types.AgentSkill{{ID: name + "-skill", Tags: tags}},
	}
}

// fakeAgent serves the full agent surface: the well-known card plus the
// JSON-RPC endpoint health probes ping.
func fakeAgent(t *testing.T, name string, tags ...string) *httptest.Server {
	t.Helper()
	card := agentCard(name, tags...)
	srv := httptest.NewServer(jsonrpc.NewMux(server.NewHandler(nopExecutor{}, card), card))
	t.Cleanup(srv.Close)
	return srv
}

func TestRegisterProbesCard(t *testing.T) {
	agent := fakeAgent(t, "a1", "research")
	reg := New()

	entry, err := reg.Register(context.Background(), "a1", agent.URL)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if entry.Status != StatusOnline {
		t.Fatalf("fresh registration should be online, got %s", entry.Status)
	}
	if entry.Card == nil || entry.Card.Name != "a1" {
		t.Fatalf("card not captured: %+v", entry.Card)
	}
}

func TestRegisterUnreachableAgent(t *testing.T) {
	reg := New()
	_, err := reg.Register(context.Background(), "ghost", "http://127.0.0.1:1")
	var qe *qerrors.QuorumError
	if !errors.As(err, &qe) || qe.Code != qerrors.CodeAgentUnavailable {
		t.Fatalf("expected AGENT_UNAVAILABLE, got %v", err)
	}
	if reg.Stats().Total != 0 {
		t.Fatalf("failed registration should not be recorded")
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	agent := fakeAgent(t, "a1", "research")
	reg := New()
	if _, err := reg.Register(context.Background(), "a1", agent.URL); err != nil {
		t.Fatalf("register: %v", err)
	}

	reg.Unregister("a1")
	reg.Unregister("a1")
	reg.Unregister("never-existed")

	if reg.Stats().Total != 0 {
		t.Fatalf("expected empty registry, got %+v", reg.Stats())
	}
}

func TestListKeepsRegistrationOrder(t *testing.T) {
	reg := New()
	ctx := context.Background()
	for _, name := range []string{"c", "a", "b"} {
		agent := fakeAgent(t, name, "skill")
		if _, err := reg.Register(ctx, name, agent.URL); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	entries := reg.List()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Name != "c" || entries[1].Name != "a" || entries[2].Name != "b" {
		t.Fatalf("registration order not preserved: %v", entries)
	}
}

func TestSearchByCapability(t *testing.T) {
	reg := New()
	ctx := context.Background()

	research := fakeAgent(t, "researcher", "web-research", "summarize")
	billing := fakeAgent(t, "billing", "billing", "invoicing")
	if _, err := reg.Register(ctx, "researcher", research.URL); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := reg.Register(ctx, "billing", billing.URL); err != nil {
		t.Fatalf("register: %v", err)
	}

	found := reg.SearchByCapability("research")
	if len(found) != 1 || found[0].Name != "researcher" {
		t.Fatalf("substring search failed: %+v", found)
	}
	if got := reg.SearchByCapability("payments"); len(got) != 0 {
		t.Fatalf("unexpected match: %+v", got)
	}
	if got := reg.SearchByCapability(""); len(got) != 0 {
		t.Fatalf("empty capability should match nothing: %+v", got)
	}
}

func TestHealthCheckMarksOffline(t *testing.T) {
	reg := New()
	ctx := context.Background()

	alive := fakeAgent(t, "alive", "skill")
	dying := fakeAgent(t, "dying", "skill")
	if _, err := reg.Register(ctx, "alive", alive.URL); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := reg.Register(ctx, "dying", dying.URL); err != nil {
		t.Fatalf("register: %v", err)
	}

	dying.Close()
	stats := reg.HealthCheck(ctx)
	if stats.Online != 1 || stats.Offline != 1 {
		t.Fatalf("unexpected stats after health check: %+v", stats)
	}
	entry, ok := reg.Get("dying")
	if !ok || entry.Status != StatusOffline {
		t.Fatalf("dead agent not marked offline: %+v", entry)
	}
}

func TestHealthCheckProbesRPCEndpoint(t *testing.T) {
	reg := New()
	ctx := context.Background()

	// Serves the card but not the RPC endpoint, so registration succeeds
	// while ping probes fail.
	card := agentCard("cardonly", "skill")
	mux := http.NewServeMux()
	mux.Handle(agentcard.WellKnownPath, agentcard.PublishHandler(card))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	if _, err := reg.Register(ctx, "cardonly", srv.URL); err != nil {
		t.Fatalf("register: %v", err)
	}
	stats := reg.HealthCheck(ctx)
	if stats.Offline != 1 {
		t.Fatalf("agent without a live rpc endpoint should be offline: %+v", stats)
	}
}

func TestStatsAggregatesCapabilitiesAndVersions(t *testing.T) {
	reg := New()
	ctx := context.Background()

	research := fakeAgent(t, "researcher", "research", "summarize")
	writer := fakeAgent(t, "writer", "summarize", "writing")
	if _, err := reg.Register(ctx, "researcher", research.URL); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := reg.Register(ctx, "writer", writer.URL); err != nil {
		t.Fatalf("register: %v", err)
	}

	stats := reg.Stats()
	want := []string{"research", "summarize", "writing"}
	if len(stats.Capabilities) != len(want) {
		t.Fatalf("capability set not deduplicated: %v", stats.Capabilities)
	}
	for i, tag := range want {
		if stats.Capabilities[i] != tag {
			t.Fatalf("expected capabilities %v, got %v", want, stats.Capabilities)
		}
	}
	if len(stats.Versions) != 1 || stats.Versions[0] != "0.0.1" {
		t.Fatalf("version set wrong: %v", stats.Versions)
	}
}

func TestHeartbeat(t *testing.T) {
	reg := New()
	ctx := context.Background()
	agent := fakeAgent(t, "a1", "skill")
	if _, err := reg.Register(ctx, "a1", agent.URL); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := reg.Heartbeat("a1"); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if err := reg.Heartbeat("ghost"); err == nil {
		t.Fatalf("heartbeat for unknown agent should fail")
	}
}

func TestHTTPAPI(t *testing.T) {
	reg := New()
	api := httptest.NewServer(reg.Handler())
	defer api.Close()
	agent := fakeAgent(t, "a1", "research")

	// register
	payload := `{"name":"a1","address":"` + agent.URL + `"}`
	resp, err := http.Post(api.URL+"/v1/agents", "application/json", jsonBody(payload))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	// list
	resp, err = http.Get(api.URL + "/v1/agents")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var entries []*Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	resp.Body.Close()
	if len(entries) != 1 || entries[0].Name != "a1" {
		t.Fatalf("unexpected list: %+v", entries)
	}

	// search
	resp, err = http.Get(api.URL + "/v1/agents?capability=research")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	entries = nil
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	resp.Body.Close()
	if len(entries) != 1 {
		t.Fatalf("search miss: %+v", entries)
	}

	// stats
	resp, err = http.Get(api.URL + "/v1/stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	resp.Body.Close()
	if stats.Total != 1 || stats.Online != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	// unregister twice, both fine
	for i := 0; i < 2; i++ {
		req, err := http.NewRequest(http.MethodDelete, api.URL+"/v1/agents/a1", nil)
		if err != nil {
			t.Fatalf("delete request: %v", err)
		}
		resp, err = http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("unregister: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", resp.StatusCode)
		}
	}
}

func jsonBody(payload string) *strings.Reader {
	return strings.NewReader(payload)
}

package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pcanals/quorum/pkg/a2a/agentcard"
	"github.com/pcanals/quorum/pkg/a2a/server"
	"github.com/pcanals/quorum/pkg/a2a/types"
	qerrors "github.com/pcanals/quorum/pkg/errors"
)

type echoExecutor struct{}

func (echoExecutor) Run(ctx context.Context, message *types.Message) (any, []*types.Artifact, error) {
	return "echo: " + types.TextOf(message), nil, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	card := &types.AgentCard{
		ProtocolVersion: types.ProtocolVersion,
		Name:            "rpc-test-agent",
		Version:         "0.0.1",
	}
	handler := server.NewHandler(echoExecutor{}, card)
	srv := httptest.NewServer(NewMux(handler, card))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) Response {
	t.Helper()
	resp, err := http.Post(url+RPCPath, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var decoded Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return decoded
}

func rpcCall(t *testing.T, url, method string, params any) Response {
	t.Helper()
	req, err := NewRequest(method, params)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return post(t, url, string(bytes.TrimSpace(payload)))
}

func TestParseErrorEnvelope(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL, "{not json")
	if resp.Error == nil || resp.Error.Code != qerrors.RPCParseError {
		t.Fatalf("expected parse error, got %+v", resp)
	}
}

func TestInvalidVersionRejected(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL, `{"jsonrpc":"1.0","id":1,"method":"agent/ping"}`)
	if resp.Error == nil || resp.Error.Code != qerrors.RPCInvalidRequest {
		t.Fatalf("expected invalid request, got %+v", resp)
	}
}

func TestMethodNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp := rpcCall(t, srv.URL, "tasks/stream", struct{}{})
	if resp.Error == nil || resp.Error.Code != qerrors.RPCMethodNotFound {
		t.Fatalf("expected method not found, got %+v", resp)
	}
}

func TestSendAndGetRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	sendResp := rpcCall(t, srv.URL, MethodMessageSend, &server.SendMessageRequest{
		Message: types.NewTextMessage(types.RoleUser, "ping"),
	})
	if sendResp.Error != nil {
		t.Fatalf("send failed: %+v", sendResp.Error)
	}
	var task types.Task
	if err := json.Unmarshal(sendResp.Result, &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if task.ID == "" || task.Status.State != types.TaskStateSubmitted {
		t.Fatalf("unexpected task snapshot: %+v", task)
	}

	getResp := rpcCall(t, srv.URL, MethodTasksGet, &server.GetTaskRequest{ID: task.ID})
	if getResp.Error != nil {
		t.Fatalf("get failed: %+v", getResp.Error)
	}
}

func TestTaskNotFoundCode(t *testing.T) {
	srv := newTestServer(t)
	resp := rpcCall(t, srv.URL, MethodTasksGet, &server.GetTaskRequest{ID: "missing"})
	if resp.Error == nil || resp.Error.Code != qerrors.RPCTaskNotFound {
		t.Fatalf("expected task not found code %d, got %+v", qerrors.RPCTaskNotFound, resp)
	}
}

func TestInvalidParamsCode(t *testing.T) {
	srv := newTestServer(t)
	resp := rpcCall(t, srv.URL, MethodTasksGet, &server.GetTaskRequest{})
	if resp.Error == nil || resp.Error.Code != qerrors.RPCInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp)
	}
}

func TestCapabilitiesAndWellKnownAgree(t *testing.T) {
	srv := newTestServer(t)

	rpcResp := rpcCall(t, srv.URL, MethodAgentCapabilities, struct{}{})
	if rpcResp.Error != nil {
		t.Fatalf("capabilities failed: %+v", rpcResp.Error)
	}
	var viaRPC types.AgentCard
	if err := json.Unmarshal(rpcResp.Result, &viaRPC); err != nil {
		t.Fatalf("decode card: %v", err)
	}

	httpResp, err := http.Get(srv.URL + agentcard.WellKnownPath)
	if err != nil {
		t.Fatalf("fetch well-known: %v", err)
	}
	defer httpResp.Body.Close()
	var viaWellKnown types.AgentCard
	if err := json.NewDecoder(httpResp.Body).Decode(&viaWellKnown); err != nil {
		t.Fatalf("decode well-known card: %v", err)
	}

	if viaRPC.Name != viaWellKnown.Name || viaRPC.Version != viaWellKnown.Version {
		t.Fatalf("card mismatch: rpc=%+v well-known=%+v", viaRPC, viaWellKnown)
	}
}

func TestRequestIDUniqueness(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		id := NewRequestID()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestKnownMethod(t *testing.T) {
	for _, method := range []string{MethodMessageSend, MethodTasksGet, MethodTasksUpdate, MethodTasksCancel, MethodAgentCapabilities, MethodAgentPing} {
		if !KnownMethod(method) {
			t.Fatalf("%s should be known", method)
		}
	}
	if KnownMethod("tasks/stream") {
		t.Fatalf("unknown method accepted")
	}
}

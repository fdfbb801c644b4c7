package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/pcanals/quorum/pkg/a2a/types"
)

func TestMockProviderChatFunc(t *testing.T) {
	var seen ChatRequest
	provider := &MockProvider{
		ChatFunc: func(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
			seen = req
			return &ChatResponse{Content: "reply"}, nil
		},
	}

	got, err := Prompt(context.Background(), provider, "test-model", "hello")
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if got != "reply" {
		t.Fatalf("unexpected reply: %q", got)
	}
	if seen.Model != "test-model" || len(seen.Messages) != 1 || seen.Messages[0].Content != "hello" {
		t.Fatalf("unexpected request: %+v", seen)
	}
}

func TestEchoProvider(t *testing.T) {
	provider := &EchoProvider{Prefix: "echo: "}
	resp, err := provider.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "ping"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "echo: ping" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
}

func TestExecutorRunsProvider(t *testing.T) {
	executor := &Executor{
		Provider: &EchoProvider{Prefix: "out: "},
		System:   "be brief",
	}
	output, artifacts, err := executor.Run(context.Background(), types.NewTextMessage(types.RoleUser, "task text"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if output != "out: task text" {
		t.Fatalf("unexpected output: %v", output)
	}
	if artifacts != nil {
		t.Fatalf("echo executor should not produce artifacts")
	}
}

func TestExecutorProviderFailure(t *testing.T) {
	executor := &Executor{Provider: &FailingMockProvider{Err: fmt.Errorf("down")}}
	if _, _, err := executor.Run(context.Background(), types.NewTextMessage(types.RoleUser, "x")); err == nil {
		t.Fatalf("expected provider failure to surface")
	}
}

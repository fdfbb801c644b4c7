package llm

import (
	"context"

	"github.com/pcanals/quorum/pkg/a2a/types"
	qerrors "github.com/pcanals/quorum/pkg/errors"
)

// Executor runs task messages against a provider. It satisfies the agent
// endpoint's executor contract.
type Executor struct {
	Provider Provider
	Model    string
	System   string
}

// Run sends the message text to the provider and returns its reply.
func (e *Executor) Run(ctx context.Context, message *types.Message) (any, []*types.Artifact, error) {
	if e == nil || e.Provider == nil {
		return nil, nil, qerrors.New(qerrors.CodeProviderError, "no provider configured", nil)
	}
	req := ChatRequest{Model: e.Model}
	if e.System != "" {
		req.Messages = append(req.Messages, Message{Role: RoleSystem, Content: e.System})
	}
	req.Messages = append(req.Messages, Message{Role: RoleUser, Content: types.TextOf(message)})

	resp, err := e.Provider.Chat(ctx, req)
	if err != nil {
		return nil, nil, qerrors.New(qerrors.CodeProviderError, "provider call failed", err)
	}
	if len(resp.Data) > 0 {
		return resp.Data, nil, nil
	}
	return resp.Content, nil, nil
}

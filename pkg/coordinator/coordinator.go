// Copyright 2026 © The Quorum Authors
// SPDX-License-Identifier: Apache-2.0

// Package coordinator decomposes goals into subtask plans and drives their
// execution across worker agents.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pcanals/quorum/pkg/a2a/jsonrpc/client"
	"github.com/pcanals/quorum/pkg/a2a/server"
	"github.com/pcanals/quorum/pkg/a2a/types"
	"github.com/pcanals/quorum/pkg/discovery"
	qerrors "github.com/pcanals/quorum/pkg/errors"
	"github.com/pcanals/quorum/pkg/llm"
	"github.com/pcanals/quorum/pkg/telemetry"
)

// TaskClient is the slice of the agent client the coordinator needs.
type TaskClient interface {
	SendMessage(ctx context.Context, req *server.SendMessageRequest) (*types.Task, error)
	GetTask(ctx context.Context, taskID string) (*types.Task, error)
}

// ClientFactory builds a task client for an agent base URL.
type ClientFactory func(baseURL string) TaskClient

const (
	defaultPollInterval    = 250 * time.Millisecond
	defaultMaxPollAttempts = 240
)

// Coordinator implements server.Executor. It plans, dispatches, and
// synthesizes on behalf of the task it is processing.
type Coordinator struct {
	decomposer Decomposer
	resolver   *discovery.Resolver
	scorer     Scorer
	provider   llm.Provider
	model      string

	pollInterval    time.Duration
	maxPollAttempts int

	newClient ClientFactory
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithScorer overrides the assignment scorer.
func WithScorer(scorer Scorer) Option {
	return func(c *Coordinator) {
		if scorer != nil {
			c.scorer = scorer
		}
	}
}

// WithSynthesis sets the provider used to merge subtask results.
func WithSynthesis(provider llm.Provider, model string) Option {
	return func(c *Coordinator) {
		c.provider = provider
		c.model = model
	}
}

// WithPolling tunes the per-subtask completion poll.
func WithPolling(interval time.Duration, maxAttempts int) Option {
	return func(c *Coordinator) {
		if interval > 0 {
			c.pollInterval = interval
		}
		if maxAttempts > 0 {
			c.maxPollAttempts = maxAttempts
		}
	}
}

// WithClientFactory overrides how agent clients are built.
func WithClientFactory(factory ClientFactory) Option {
	return func(c *Coordinator) {
		if factory != nil {
			c.newClient = factory
		}
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a coordinator.
func New(decomposer Decomposer, resolver *discovery.Resolver, opts ...Option) *Coordinator {
	c := &Coordinator{
		decomposer:      decomposer,
		resolver:        resolver,
		scorer:          CoverageScorer{},
		pollInterval:    defaultPollInterval,
		maxPollAttempts: defaultMaxPollAttempts,
		newClient: func(baseURL string) TaskClient {
			return client.New(baseURL)
		},
		logger: slog.Default(),
		tracer: otel.Tracer("quorum/coordinator"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Run decomposes the incoming goal, executes the plan round by round, and
// returns the synthesized result. A returned error fails the parent task.
func (c *Coordinator) Run(ctx context.Context, msg *types.Message) (any, []*types.Artifact, error) {
	goal := types.TextOf(msg)
	ctx, span := c.tracer.Start(ctx, "Coordinator.Run",
		trace.WithAttributes(attribute.Int("goal.length", len(goal))))
	defer span.End()

	plan, err := c.decomposer.Decompose(ctx, goal)
	if err != nil {
		return nil, nil, err
	}
	agents, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, nil, qerrors.New(qerrors.CodeAgentUnavailable, "agent discovery failed", err)
	}
	if len(agents) == 0 {
		return nil, nil, qerrors.New(qerrors.CodeAgentUnavailable, "no agents available", nil)
	}
	assignments, err := c.assign(plan, agents)
	if err != nil {
		return nil, nil, err
	}
	c.logger.InfoContext(ctx, "coordinator.plan",
		slog.Int("subtasks", len(plan.Subtasks)),
		slog.Int("agents", len(agents)))

	if err := c.execute(ctx, plan, assignments); err != nil {
		return nil, nil, err
	}

	if !plan.Succeeded() {
		// Completed results still flow back to the caller on failure.
		return nil, planArtifacts(plan), planFailure(plan)
	}
	output, err := c.synthesize(ctx, plan)
	if err != nil {
		return nil, nil, err
	}
	return output, planArtifacts(plan), nil
}

// assign picks an agent for every subtask before anything is dispatched.
// Partial assignment is rejected: one uncovered subtask fails the whole plan
// so no sibling wastes remote work.
func (c *Coordinator) assign(plan *Plan, agents []discovery.AgentEndpoint) (map[string]discovery.AgentEndpoint, error) {
	assignments := make(map[string]discovery.AgentEndpoint, len(plan.Subtasks))
	for _, subtask := range plan.Subtasks {
		agent, score := selectAgent(agents, subtask.Capabilities, c.scorer)
		if score == 0 {
			return nil, qerrors.Newf(qerrors.CodeCapabilityNotSupported,
				"no agent offers %v for subtask %q", subtask.Capabilities, subtask.ID)
		}
		subtask.AssignedAgent = agent.Name
		assignments[subtask.ID] = agent
	}
	return assignments, nil
}

// execute runs rounds until every subtask reaches a final state. All ready
// subtasks of a round run concurrently; each goroutine owns exactly one
// subtask.
func (c *Coordinator) execute(ctx context.Context, plan *Plan, assignments map[string]discovery.AgentEndpoint) error {
	for plan.Pending() {
		ready := plan.Ready()
		if len(ready) == 0 {
			plan.FailDependents()
			if len(plan.Ready()) == 0 && plan.Pending() {
				return qerrors.New(qerrors.CodeInternal, "plan stalled with unresolved subtasks", nil)
			}
			continue
		}

		var wg sync.WaitGroup
		for _, subtask := range ready {
			wg.Add(1)
			go func(subtask *Subtask) {
				defer wg.Done()
				c.runSubtask(ctx, plan, subtask, assignments[subtask.ID])
			}(subtask)
		}
		wg.Wait()

		for _, id := range plan.FailDependents() {
			c.logger.WarnContext(ctx, "coordinator.subtask.dependency_failed",
				slog.String("subtask", id))
		}
	}
	return nil
}

func (c *Coordinator) runSubtask(ctx context.Context, plan *Plan, subtask *Subtask, agent discovery.AgentEndpoint) {
	ctx, span := c.tracer.Start(ctx, "Coordinator.Subtask",
		trace.WithAttributes(attribute.String("subtask.id", subtask.ID)))
	defer span.End()

	subtask.State = SubtaskAssigned
	telemetry.RecordSubtaskDispatch(ctx, agent.Name)

	msg := types.NewTextMessage(types.RoleUser, subtask.Description)
	remote := c.newClient(agent.BaseURL)
	task, err := remote.SendMessage(ctx, &server.SendMessageRequest{
		Message:  msg,
		Metadata: dispatchMetadata(plan, subtask),
	})
	if err != nil {
		subtask.State = SubtaskFailed
		subtask.Error = err.Error()
		return
	}
	subtask.State = SubtaskInProgress
	subtask.RemoteTaskID = task.ID

	final, err := c.awaitTask(ctx, remote, task.ID)
	if err != nil {
		subtask.State = SubtaskFailed
		subtask.Error = err.Error()
		return
	}
	switch final.Status.State {
	case types.TaskStateCompleted:
		subtask.State = SubtaskCompleted
		subtask.Result = lastAgentText(final)
	default:
		subtask.State = SubtaskFailed
		subtask.Error = fmt.Sprintf("remote task %s: %s", final.Status.State, lastAgentText(final))
	}
}

// awaitTask polls the remote task until it reaches a terminal state.
func (c *Coordinator) awaitTask(ctx context.Context, remote TaskClient, taskID string) (*types.Task, error) {
	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		task, err := remote.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if task.Status.State.IsTerminal() {
			return task, nil
		}
	}
	return nil, qerrors.New(qerrors.CodeTaskTimeout, "remote task did not finish in time", nil).
		WithContext("task_id", taskID)
}

// dispatchMetadata carries completed dependency results to the worker.
func dispatchMetadata(plan *Plan, subtask *Subtask) map[string]any {
	meta := map[string]any{"subtask_id": subtask.ID}
	if len(subtask.DependsOn) == 0 {
		return meta
	}
	results := make(map[string]string, len(subtask.DependsOn))
	for _, dep := range subtask.DependsOn {
		if parent, ok := plan.Get(dep); ok && parent.State == SubtaskCompleted {
			results[dep] = parent.Result
		}
	}
	meta["dependency_results"] = results
	return meta
}

// synthesize merges subtask results into a single answer. Without a provider
// the results are concatenated in plan order.
func (c *Coordinator) synthesize(ctx context.Context, plan *Plan) (string, error) {
	var sb strings.Builder
	for _, subtask := range plan.Subtasks {
		fmt.Fprintf(&sb, "[%s] %s\n", subtask.ID, subtask.Result)
	}
	if c.provider == nil {
		return sb.String(), nil
	}

	prompt := fmt.Sprintf("Combine the subtask results below into one coherent answer to the goal.\n\nGoal: %s\n\nResults:\n%s", plan.Goal, sb.String())
	resp, err := c.provider.Chat(ctx, llm.ChatRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", qerrors.New(qerrors.CodeProviderError, "synthesis failed", err)
	}
	return resp.Content, nil
}

// planFailure summarizes a failed plan: what still completed, then what
// failed and why.
func planFailure(plan *Plan) error {
	var sb strings.Builder
	failed := 0
	for _, subtask := range plan.Subtasks {
		switch subtask.State {
		case SubtaskCompleted:
			fmt.Fprintf(&sb, "[%s] %s\n", subtask.ID, subtask.Result)
		case SubtaskFailed:
			fmt.Fprintf(&sb, "[%s] failed: %s\n", subtask.ID, subtask.Error)
			failed++
		}
	}
	return qerrors.Newf(qerrors.CodeInternal, "%d of %d subtasks failed\n%s",
		failed, len(plan.Subtasks), sb.String())
}

func planArtifacts(plan *Plan) []*types.Artifact {
	out := make([]*types.Artifact, 0, len(plan.Subtasks))
	for _, subtask := range plan.Subtasks {
		if subtask.State != SubtaskCompleted {
			continue
		}
		out = append(out, &types.Artifact{
			ArtifactID: subtask.ID,
			Name:       "subtask-result",
			Parts: []types.Part{
				{Kind: types.PartKindText, Text: subtask.Result},
			},
		})
	}
	return out
}

func lastAgentText(task *types.Task) string {
	for i := len(task.History) - 1; i >= 0; i-- {
		msg := task.History[i]
		if msg != nil && msg.Role == types.RoleAgent {
			return types.TextOf(msg)
		}
	}
	if task.Status != nil {
		return types.TextOf(task.Status.Message)
	}
	return ""
}

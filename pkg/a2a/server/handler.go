// Package server implements the agent endpoint: the task store and the
// handler behind the JSON-RPC binding, plus asynchronous task processing.
package server

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pcanals/quorum/pkg/a2a/types"
	qerrors "github.com/pcanals/quorum/pkg/errors"
	"github.com/pcanals/quorum/pkg/telemetry"
)

// SendMessageRequest carries the params of message/send.
type SendMessageRequest struct {
	Message   *types.Message `json:"message"`
	ContextID string         `json:"contextId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// GetTaskRequest carries the params of tasks/get.
type GetTaskRequest struct {
	ID string `json:"id"`
}

// TaskUpdates is the updates object of tasks/update.
type TaskUpdates struct {
	Message  *types.Message `json:"message,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UpdateTaskRequest carries the params of tasks/update.
type UpdateTaskRequest struct {
	ID      string      `json:"id"`
	Updates TaskUpdates `json:"updates"`
}

// CancelTaskRequest carries the params of tasks/cancel.
type CancelTaskRequest struct {
	ID string `json:"id"`
}

// PingResponse is the result of agent/ping.
type PingResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler defines the core endpoint operations behind the JSON-RPC binding.
type Handler interface {
	SendMessage(ctx context.Context, req *SendMessageRequest) (*types.Task, error)
	GetTask(ctx context.Context, req *GetTaskRequest) (*types.Task, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*types.Task, error)
	CancelTask(ctx context.Context, req *CancelTaskRequest) (*types.Task, error)
	Capabilities(ctx context.Context) (*types.AgentCard, error)
	Ping(ctx context.Context) (*PingResponse, error)
}

// Executor runs a task's content and returns a response payload plus
// optional artifacts. The call to the intelligence provider lives behind
// this interface.
type Executor interface {
	Run(ctx context.Context, message *types.Message) (any, []*types.Artifact, error)
}

// SimpleHandler implements the endpoint operations over a TaskStore and an
// Executor.
type SimpleHandler struct {
	Store    TaskStore
	Executor Executor
	Card     *types.AgentCard
	Logger   *slog.Logger
}

func (h *SimpleHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// SendMessage creates a new submitted task, schedules asynchronous
// processing, and returns the task snapshot without blocking on completion.
func (h *SimpleHandler) SendMessage(ctx context.Context, req *SendMessageRequest) (*types.Task, error) {
	if h.Store == nil || h.Executor == nil {
		return nil, qerrors.New(qerrors.CodeInternal, "handler not configured", nil)
	}
	if req == nil {
		return nil, qerrors.New(qerrors.CodeInvalidParams, "params are required", nil)
	}
	if err := ValidateMessage(req.Message); err != nil {
		return nil, err
	}

	task, err := h.Store.CreateTask(ctx, req.Message, req.ContextID, req.Metadata)
	if err != nil {
		return nil, err
	}

	go h.runAsync(task.ID)

	return task, nil
}

// GetTask returns the current snapshot of a task.
func (h *SimpleHandler) GetTask(ctx context.Context, req *GetTaskRequest) (*types.Task, error) {
	if h.Store == nil {
		return nil, qerrors.New(qerrors.CodeInternal, "task store not configured", nil)
	}
	if req == nil || req.ID == "" {
		return nil, qerrors.New(qerrors.CodeInvalidParams, "task id is required", nil)
	}
	return h.Store.GetTask(ctx, req.ID)
}

// UpdateTask appends a message and/or merges metadata into a non-terminal
// task and returns the updated snapshot.
func (h *SimpleHandler) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*types.Task, error) {
	if h.Store == nil {
		return nil, qerrors.New(qerrors.CodeInternal, "task store not configured", nil)
	}
	if req == nil || req.ID == "" {
		return nil, qerrors.New(qerrors.CodeInvalidParams, "task id is required", nil)
	}
	task, err := h.Store.GetTask(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if task.Status.State.IsTerminal() {
		return nil, qerrors.Newf(qerrors.CodeTaskTerminal, "task %q is %s", task.ID, task.Status.State)
	}

	if req.Updates.Message != nil {
		message := req.Updates.Message.Clone()
		if message.MessageID == "" {
			message = types.NewTextMessage(message.Role, types.TextOf(message))
		}
		message.TaskID = task.ID
		message.ContextID = task.ContextID
		if err := h.Store.AppendHistory(ctx, task.ID, message); err != nil {
			return nil, err
		}
	}
	if err := h.Store.MergeMetadata(ctx, task.ID, req.Updates.Metadata); err != nil {
		return nil, err
	}
	return h.Store.GetTask(ctx, task.ID)
}

// CancelTask transitions a non-terminal task to cancelled.
func (h *SimpleHandler) CancelTask(ctx context.Context, req *CancelTaskRequest) (*types.Task, error) {
	if h.Store == nil {
		return nil, qerrors.New(qerrors.CodeInternal, "task store not configured", nil)
	}
	if req == nil || req.ID == "" {
		return nil, qerrors.New(qerrors.CodeInvalidParams, "task id is required", nil)
	}
	task, err := h.Store.CancelTask(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	telemetry.RecordTaskState(ctx, types.TaskStateCancelled)
	return task, nil
}

// Capabilities returns the agent card verbatim.
func (h *SimpleHandler) Capabilities(ctx context.Context) (*types.AgentCard, error) {
	if h.Card == nil {
		return nil, qerrors.New(qerrors.CodeInternal, "agent card not configured", nil)
	}
	return h.Card, nil
}

// Ping reports endpoint liveness.
func (h *SimpleHandler) Ping(ctx context.Context) (*PingResponse, error) {
	return &PingResponse{Status: "ok", Timestamp: time.Now().UTC()}, nil
}

// runAsync drives a task from submitted to a terminal state. Processing
// failures are recorded on the task, never surfaced to the message/send
// caller.
func (h *SimpleHandler) runAsync(taskID string) {
	tracer := otel.Tracer("quorum/a2a/server")
	ctx, span := tracer.Start(context.Background(), "Task.Process",
		trace.WithAttributes(attribute.String("task.id", taskID)),
	)
	defer span.End()

	task, err := h.Store.GetTask(ctx, taskID)
	if err != nil {
		h.logger().Error("task.process.load_failed", slog.String("task_id", taskID), telemetry.Err(err))
		return
	}
	if task.Status.State.IsTerminal() {
		return
	}

	if err := h.Store.UpdateStatus(ctx, taskID, types.NewStatus(types.TaskStateWorking, nil)); err != nil {
		// Lost the race with a cancellation; nothing to process.
		return
	}

	input := task.History[len(task.History)-1]
	output, artifacts, err := h.Executor.Run(ctx, input)
	if err != nil {
		// Partial results produced before the failure stay on the task.
		if storeErr := h.Store.AddArtifacts(ctx, taskID, artifacts); storeErr != nil {
			h.logger().Warn("task.process.artifacts_skipped", slog.String("task_id", taskID), slog.String("error", storeErr.Error()))
		}
		h.failTask(ctx, task, err)
		return
	}

	respMsg := ResponseMessage(output, task.ContextID, task.ID)
	if err := h.Store.AppendHistory(ctx, taskID, respMsg); err != nil {
		h.failTask(ctx, task, err)
		return
	}
	if err := h.Store.AddArtifacts(ctx, taskID, artifacts); err != nil {
		h.failTask(ctx, task, err)
		return
	}
	if err := h.Store.UpdateStatus(ctx, taskID, types.NewStatus(types.TaskStateCompleted, respMsg)); err != nil {
		h.logger().Warn("task.process.complete_skipped", slog.String("task_id", taskID), slog.String("error", err.Error()))
		return
	}
	telemetry.RecordTaskState(ctx, types.TaskStateCompleted)
	h.logger().Info("task.completed", slog.String("task_id", taskID), slog.String("context_id", task.ContextID))
}

func (h *SimpleHandler) failTask(ctx context.Context, task *types.Task, cause error) {
	note := types.NewTextMessage(types.RoleAgent, cause.Error())
	note.TaskID = task.ID
	note.ContextID = task.ContextID
	if err := h.Store.UpdateStatus(ctx, task.ID, types.NewStatus(types.TaskStateFailed, note)); err != nil {
		h.logger().Warn("task.process.fail_skipped", slog.String("task_id", task.ID), slog.String("error", err.Error()))
		return
	}
	telemetry.RecordTaskState(ctx, types.TaskStateFailed)
	h.logger().Warn("task.failed", slog.String("task_id", task.ID), telemetry.Err(cause))
}

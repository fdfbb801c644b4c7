// Copyright 2026 © The Quorum Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pcanals/quorum/pkg/a2a/types"
	qerrors "github.com/pcanals/quorum/pkg/errors"
)

// TaskFilter defines filtering options for listing tasks.
type TaskFilter struct {
	ContextID string
	State     types.TaskState
	Limit     int
}

// TaskStore provides access to the task records owned by one agent process.
// Implementations must enforce the task state machine and hand out snapshots
// only, never internal references.
type TaskStore interface {
	CreateTask(ctx context.Context, message *types.Message, contextID string, metadata map[string]any) (*types.Task, error)
	AppendHistory(ctx context.Context, taskID string, message *types.Message) error
	MergeMetadata(ctx context.Context, taskID string, metadata map[string]any) error
	UpdateStatus(ctx context.Context, taskID string, status *types.TaskStatus) error
	AddArtifacts(ctx context.Context, taskID string, artifacts []*types.Artifact) error
	GetTask(ctx context.Context, taskID string) (*types.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*types.Task, error)
	CancelTask(ctx context.Context, taskID string) (*types.Task, error)
}

// MemoryTaskStore keeps tasks in process memory behind a single lock, which
// gives the single-writer-per-task discipline for free.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*types.Task

	// MaxTasks caps retained tasks; 0 means unbounded. When the cap is hit
	// the oldest terminal tasks are evicted first.
	MaxTasks int
}

// NewMemoryTaskStore creates an in-memory task store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]*types.Task)}
}

// CreateTask stores a new submitted task seeded with the message and returns
// a snapshot. A context ID is generated when none is supplied.
func (s *MemoryTaskStore) CreateTask(ctx context.Context, message *types.Message, contextID string, metadata map[string]any) (*types.Task, error) {
	if message == nil {
		return nil, qerrors.New(qerrors.CodeInvalidParams, "message is nil", nil)
	}

	taskID := uuid.NewString()
	if contextID == "" {
		contextID = message.ContextID
	}
	if contextID == "" {
		contextID = uuid.NewString()
	}

	message = message.Clone()
	message.TaskID = taskID
	message.ContextID = contextID

	now := time.Now().UTC()
	task := &types.Task{
		ID:        taskID,
		ContextID: contextID,
		Status:    types.NewStatus(types.TaskStateSubmitted, nil),
		History:   []*types.Message{message},
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.evictLocked()
	s.tasks[taskID] = task
	s.mu.Unlock()

	return task.Clone(), nil
}

// AppendHistory adds a message to the task history. History is append-only;
// previously stored messages are never touched.
func (s *MemoryTaskStore) AppendHistory(ctx context.Context, taskID string, message *types.Message) error {
	if message == nil {
		return qerrors.New(qerrors.CodeInvalidParams, "message is nil", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return qerrors.Newf(qerrors.CodeTaskNotFound, "task %q not found", taskID)
	}
	task.History = append(task.History, message.Clone())
	task.UpdatedAt = time.Now().UTC()
	return nil
}

// MergeMetadata merges the supplied keys into the task metadata map.
func (s *MemoryTaskStore) MergeMetadata(ctx context.Context, taskID string, metadata map[string]any) error {
	if len(metadata) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return qerrors.Newf(qerrors.CodeTaskNotFound, "task %q not found", taskID)
	}
	if task.Metadata == nil {
		task.Metadata = make(map[string]any, len(metadata))
	}
	for key, value := range metadata {
		task.Metadata[key] = value
	}
	task.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateStatus moves the task to a new status, rejecting transitions the
// state machine does not allow.
func (s *MemoryTaskStore) UpdateStatus(ctx context.Context, taskID string, status *types.TaskStatus) error {
	if status == nil {
		return qerrors.New(qerrors.CodeInvalidParams, "status is nil", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return qerrors.Newf(qerrors.CodeTaskNotFound, "task %q not found", taskID)
	}
	current := task.Status.State
	if !current.CanTransition(status.State) {
		if current.IsTerminal() {
			return qerrors.Newf(qerrors.CodeTaskTerminal, "task %q is %s", taskID, current)
		}
		return qerrors.Newf(qerrors.CodeInternal, "illegal transition %s -> %s", current, status.State)
	}
	task.Status = status
	now := time.Now().UTC()
	task.UpdatedAt = now
	if status.State.IsTerminal() {
		task.CompletedAt = &now
	}
	return nil
}

// AddArtifacts appends result artifacts to the task.
func (s *MemoryTaskStore) AddArtifacts(ctx context.Context, taskID string, artifacts []*types.Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return qerrors.Newf(qerrors.CodeTaskNotFound, "task %q not found", taskID)
	}
	for _, artifact := range artifacts {
		if artifact == nil {
			continue
		}
		task.Artifacts = append(task.Artifacts, artifact.Clone())
	}
	task.UpdatedAt = time.Now().UTC()
	return nil
}

// GetTask returns a snapshot of the task.
func (s *MemoryTaskStore) GetTask(ctx context.Context, taskID string) (*types.Task, error) {
	s.mu.RLock()
	task, ok := s.tasks[taskID]
	s.mu.RUnlock()
	if !ok {
		return nil, qerrors.Newf(qerrors.CodeTaskNotFound, "task %q not found", taskID)
	}
	return task.Clone(), nil
}

// ListTasks returns snapshots matching the filter, newest first.
func (s *MemoryTaskStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Task
	for _, task := range s.tasks {
		if filter.ContextID != "" && task.ContextID != filter.ContextID {
			continue
		}
		if filter.State != "" && task.Status.State != filter.State {
			continue
		}
		out = append(out, task.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// CancelTask transitions a non-terminal task to cancelled and returns it.
// Cancelling a finished task is rejected, not silently accepted.
func (s *MemoryTaskStore) CancelTask(ctx context.Context, taskID string) (*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, qerrors.Newf(qerrors.CodeTaskNotFound, "task %q not found", taskID)
	}
	current := task.Status.State
	if current.IsTerminal() {
		return nil, qerrors.Newf(qerrors.CodeTaskTerminal, "task %q is %s", taskID, current)
	}
	task.Status = types.NewStatus(types.TaskStateCancelled, nil)
	now := time.Now().UTC()
	task.UpdatedAt = now
	task.CompletedAt = &now
	return task.Clone(), nil
}

// evictLocked drops the oldest terminal tasks while over the cap. Caller
// holds the write lock.
func (s *MemoryTaskStore) evictLocked() {
	if s.MaxTasks <= 0 || len(s.tasks) < s.MaxTasks {
		return
	}
	type aged struct {
		id string
		at time.Time
	}
	var terminal []aged
	for id, task := range s.tasks {
		if task.Status.State.IsTerminal() {
			terminal = append(terminal, aged{id: id, at: task.UpdatedAt})
		}
	}
	sort.Slice(terminal, func(i, j int) bool { return terminal[i].at.Before(terminal[j].at) })
	for _, candidate := range terminal {
		if len(s.tasks) < s.MaxTasks {
			return
		}
		delete(s.tasks, candidate.id)
	}
}

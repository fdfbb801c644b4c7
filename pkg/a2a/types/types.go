// Copyright 2026 © The Quorum Authors
// SPDX-License-Identifier: Apache-2.0

// Package types defines the wire-level data model shared by every Quorum
// agent: messages, parts, tasks and their state machine, and agent cards.
package types

import (
	"time"

	"github.com/google/uuid"
)

// ProtocolVersion is the task protocol version agents must declare.
const ProtocolVersion = "1.0"

// Role identifies the author of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

// PartKind discriminates the Part union.
type PartKind string

const (
	PartKindText     PartKind = "text"
	PartKindFile     PartKind = "file"
	PartKindData     PartKind = "data"
	PartKindArtifact PartKind = "artifact"
)

// FilePart references file content by URI or carries it inline as base64.
type FilePart struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	URI      string `json:"uri,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
}

// Part is one element of a message. Exactly one payload field is set,
// matching Kind.
type Part struct {
	Kind     PartKind       `json:"kind"`
	Text     string         `json:"text,omitempty"`
	File     *FilePart      `json:"file,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Artifact *Artifact      `json:"artifact,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// DataPart builds a structured-data part.
func DataPart(data map[string]any) Part {
	return Part{Kind: PartKindData, Data: data}
}

// Message is one turn of communication. Once appended to a task history it is
// never mutated or removed.
type Message struct {
	MessageID string         `json:"messageId"`
	TaskID    string         `json:"taskId,omitempty"`
	ContextID string         `json:"contextId,omitempty"`
	Role      Role           `json:"role"`
	Parts     []Part         `json:"parts"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
}

// NewTextMessage builds a message with a generated ID and a single text part.
func NewTextMessage(role Role, text string) *Message {
	now := time.Now().UTC()
	return &Message{
		MessageID: uuid.NewString(),
		Role:      role,
		Parts:     []Part{TextPart(text)},
		Timestamp: &now,
	}
}

// TextOf returns the concatenated text parts of a message.
func TextOf(message *Message) string {
	if message == nil {
		return ""
	}
	var out string
	for _, part := range message.Parts {
		if part.Kind == PartKindText {
			out += part.Text
		}
	}
	return out
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	out := *m
	out.Parts = clonePartSlice(m.Parts)
	out.Metadata = cloneMap(m.Metadata)
	if m.Timestamp != nil {
		ts := *m.Timestamp
		out.Timestamp = &ts
	}
	return &out
}

// Artifact is a named output produced while working on a task.
type Artifact struct {
	ArtifactID string `json:"artifactId"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts,omitempty"`
}

// Clone returns a deep copy of the artifact.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	out := *a
	out.Parts = clonePartSlice(a.Parts)
	return &out
}

// TaskState describes the lifecycle state of a task.
type TaskState string

const (
	TaskStateSubmitted TaskState = "submitted"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
	TaskStateRejected  TaskState = "rejected"
	TaskStateCancelled TaskState = "cancelled"
)

// IsTerminal reports whether the state admits no further transitions.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateRejected, TaskStateCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is a legal transition.
//
//	submitted -> working | cancelled
//	working   -> completed | failed | rejected | cancelled
func (s TaskState) CanTransition(next TaskState) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case TaskStateSubmitted:
		return next == TaskStateWorking || next == TaskStateCancelled
	case TaskStateWorking:
		return next.IsTerminal()
	default:
		return false
	}
}

// TaskStatus pairs a state with an optional human-readable status message.
type TaskStatus struct {
	State     TaskState  `json:"state"`
	Message   *Message   `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// NewStatus builds a status stamped with the current time.
func NewStatus(state TaskState, message *Message) *TaskStatus {
	now := time.Now().UTC()
	return &TaskStatus{State: state, Message: message, Timestamp: &now}
}

// Task is the unit of orchestrated work: a status, an append-only message
// history, and optional result artifacts.
type Task struct {
	ID          string         `json:"id"`
	ContextID   string         `json:"contextId"`
	Status      *TaskStatus    `json:"status"`
	History     []*Message     `json:"history,omitempty"`
	Artifacts   []*Artifact    `json:"artifacts,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	if t.Status != nil {
		status := *t.Status
		status.Message = t.Status.Message.Clone()
		out.Status = &status
	}
	out.History = make([]*Message, 0, len(t.History))
	for _, msg := range t.History {
		out.History = append(out.History, msg.Clone())
	}
	if len(t.Artifacts) > 0 {
		out.Artifacts = make([]*Artifact, 0, len(t.Artifacts))
		for _, artifact := range t.Artifacts {
			out.Artifacts = append(out.Artifacts, artifact.Clone())
		}
	}
	out.Metadata = cloneMap(t.Metadata)
	if t.CompletedAt != nil {
		done := *t.CompletedAt
		out.CompletedAt = &done
	}
	return &out
}

// AgentSkill declares one capability an agent offers.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// AgentInterface advertises one transport endpoint for an agent.
type AgentInterface struct {
	Transport string `json:"transport"`
	URL       string `json:"url"`
}

// AgentCard is an agent's self-declared identity and skill set. It is
// immutable after creation and never mutated by a remote party.
type AgentCard struct {
	ProtocolVersion string           `json:"protocolVersion"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Version         string           `json:"version"`
	Interfaces      []AgentInterface `json:"interfaces,omitempty"`
	Skills          []AgentSkill     `json:"skills,omitempty"`
}

// CapabilityTags flattens the card's skill tags, deduplicated in declaration
// order.
func (c *AgentCard) CapabilityTags() []string {
	if c == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, skill := range c.Skills {
		for _, tag := range skill.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

func clonePartSlice(parts []Part) []Part {
	if parts == nil {
		return nil
	}
	out := make([]Part, len(parts))
	for i, part := range parts {
		out[i] = part
		out[i].Data = cloneMap(part.Data)
		if part.File != nil {
			file := *part.File
			out[i].File = &file
		}
		if part.Artifact != nil {
			out[i].Artifact = part.Artifact.Clone()
		}
	}
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

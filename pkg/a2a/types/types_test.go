package types

import "testing"

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		from, to TaskState
		ok       bool
	}{
		{TaskStateSubmitted, TaskStateWorking, true},
		{TaskStateSubmitted, TaskStateCancelled, true},
		{TaskStateSubmitted, TaskStateCompleted, false},
		{TaskStateWorking, TaskStateCompleted, true},
		{TaskStateWorking, TaskStateFailed, true},
		{TaskStateWorking, TaskStateRejected, true},
		{TaskStateWorking, TaskStateCancelled, true},
		{TaskStateWorking, TaskStateSubmitted, false},
		{TaskStateCompleted, TaskStateWorking, false},
		{TaskStateFailed, TaskStateCancelled, false},
		{TaskStateCancelled, TaskStateWorking, false},
		{TaskStateRejected, TaskStateCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %t, got %t", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	terminal := []TaskState{TaskStateCompleted, TaskStateFailed, TaskStateRejected, TaskStateCancelled}
	for _, state := range terminal {
		if !state.IsTerminal() {
			t.Fatalf("%s should be terminal", state)
		}
	}
	for _, state := range []TaskState{TaskStateSubmitted, TaskStateWorking} {
		if state.IsTerminal() {
			t.Fatalf("%s should not be terminal", state)
		}
	}
}

func TestTaskCloneIsolation(t *testing.T) {
	task := &Task{
		ID:       "t1",
		Status:   NewStatus(TaskStateSubmitted, nil),
		History:  []*Message{NewTextMessage(RoleUser, "hello")},
		Metadata: map[string]any{"key": "value"},
	}
	clone := task.Clone()

	clone.History[0].Parts[0].Text = "mutated"
	clone.Metadata["key"] = "changed"
	clone.Status.State = TaskStateFailed

	if task.History[0].Parts[0].Text != "hello" {
		t.Fatalf("history leaked through clone")
	}
	if task.Metadata["key"] != "value" {
		t.Fatalf("metadata leaked through clone")
	}
	if task.Status.State != TaskStateSubmitted {
		t.Fatalf("status leaked through clone")
	}
}

func TestTextOf(t *testing.T) {
	msg := &Message{Parts: []Part{TextPart("one "), DataPart(map[string]any{"x": 1}), TextPart("two")}}
	if got := TextOf(msg); got != "one two" {
		t.Fatalf("unexpected text: %q", got)
	}
	if TextOf(nil) != "" {
		t.Fatalf("nil message should produce empty text")
	}
}

func TestCapabilityTagsDedupe(t *testing.T) {
	card := &AgentCard{
		Skills: []AgentSkill{
			{ID: "s1", Tags: []string{"research", "web"}},
			{ID: "s2", Tags: []string{"web", "coding"}},
		},
	}
	tags := card.CapabilityTags()
	if len(tags) != 3 {
		t.Fatalf("expected 3 tags, got %v", tags)
	}
	if tags[0] != "research" || tags[1] != "web" || tags[2] != "coding" {
		t.Fatalf("unexpected tag order: %v", tags)
	}
}

package coordinator

import "testing"

func pendingPlan(subtasks ...*Subtask) *Plan {
	for _, subtask := range subtasks {
		if subtask.State == "" {
			subtask.State = SubtaskPending
		}
	}
	return &Plan{Goal: "test", Subtasks: subtasks}
}

func TestValidateRejectsDuplicates(t *testing.T) {
	plan := pendingPlan(
		&Subtask{ID: "t1", Description: "one"},
		&Subtask{ID: "t1", Description: "two"},
	)
	if err := plan.Validate(); err == nil {
		t.Fatalf("duplicate ids should be rejected")
	}
}

func TestValidateRejectsDanglingDependency(t *testing.T) {
	plan := pendingPlan(&Subtask{ID: "t1", Description: "one", DependsOn: []string{"ghost"}})
	if err := plan.Validate(); err == nil {
		t.Fatalf("dangling dependency should be rejected")
	}
}

func TestValidateRejectsCycle(t *testing.T) {
	plan := pendingPlan(
		&Subtask{ID: "t1", Description: "one", DependsOn: []string{"t2"}},
		&Subtask{ID: "t2", Description: "two", DependsOn: []string{"t1"}},
	)
	if err := plan.Validate(); err == nil {
		t.Fatalf("cycle should be rejected")
	}

	self := pendingPlan(&Subtask{ID: "t1", Description: "one", DependsOn: []string{"t1"}})
	if err := self.Validate(); err == nil {
		t.Fatalf("self dependency should be rejected")
	}
}

func TestValidateAcceptsDiamond(t *testing.T) {
	plan := pendingPlan(
		&Subtask{ID: "a", Description: "a"},
		&Subtask{ID: "b", Description: "b"},
		&Subtask{ID: "c", Description: "c", DependsOn: []string{"a", "b"}},
		&Subtask{ID: "d", Description: "d", DependsOn: []string{"c"}},
	)
	if err := plan.Validate(); err != nil {
		t.Fatalf("diamond plan should validate: %v", err)
	}
}

func TestReadyRespectsDependencies(t *testing.T) {
	plan := pendingPlan(
		&Subtask{ID: "a", Description: "a"},
		&Subtask{ID: "b", Description: "b"},
		&Subtask{ID: "c", Description: "c", DependsOn: []string{"a", "b"}},
	)

	ready := plan.Ready()
	if len(ready) != 2 || ready[0].ID != "a" || ready[1].ID != "b" {
		t.Fatalf("unexpected first round: %+v", ready)
	}

	ready[0].State = SubtaskCompleted
	if got := plan.Ready(); len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("c should wait for b: %+v", got)
	}

	ready[1].State = SubtaskCompleted
	if got := plan.Ready(); len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("c should be ready now: %+v", got)
	}
}

func TestFailDependentsTransitive(t *testing.T) {
	plan := pendingPlan(
		&Subtask{ID: "a", Description: "a", State: SubtaskFailed, Error: "boom"},
		&Subtask{ID: "b", Description: "b", DependsOn: []string{"a"}},
		&Subtask{ID: "c", Description: "c", DependsOn: []string{"b"}},
		&Subtask{ID: "d", Description: "d"},
	)

	marked := plan.FailDependents()
	if len(marked) != 2 {
		t.Fatalf("expected b and c marked, got %v", marked)
	}
	b, _ := plan.Get("b")
	c, _ := plan.Get("c")
	d, _ := plan.Get("d")
	if b.State != SubtaskFailed || c.State != SubtaskFailed {
		t.Fatalf("dependents not failed: b=%s c=%s", b.State, c.State)
	}
	if d.State != SubtaskPending {
		t.Fatalf("independent subtask should stay pending, got %s", d.State)
	}
}

func TestSucceeded(t *testing.T) {
	plan := pendingPlan(
		&Subtask{ID: "a", Description: "a", State: SubtaskCompleted},
		&Subtask{ID: "b", Description: "b", State: SubtaskCompleted},
	)
	if !plan.Succeeded() {
		t.Fatalf("all-completed plan should succeed")
	}
	plan.Subtasks[1].State = SubtaskFailed
	if plan.Succeeded() {
		t.Fatalf("failed subtask should fail the plan")
	}
}

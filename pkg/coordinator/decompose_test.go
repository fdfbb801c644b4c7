package coordinator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	qerrors "github.com/pcanals/quorum/pkg/errors"
	"github.com/pcanals/quorum/pkg/llm"
)

func TestParsePlanStripsFences(t *testing.T) {
	raw := "```json\n{\"subtasks\":[{\"id\":\"t1\",\"description\":\"do a thing\"}]}\n```"
	plan, err := ParsePlan(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(plan.Subtasks) != 1 || plan.Subtasks[0].ID != "t1" {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if plan.Subtasks[0].State != SubtaskPending {
		t.Fatalf("subtasks should start pending, got %s", plan.Subtasks[0].State)
	}
}

func TestParsePlanRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"subtasks":[]}`} {
		_, err := ParsePlan(raw)
		var qe *qerrors.QuorumError
		if !errors.As(err, &qe) || qe.Code != qerrors.CodeDecompositionError {
			t.Fatalf("%q: expected DECOMPOSITION_ERROR, got %v", raw, err)
		}
	}
}

func TestLLMDecomposerTwoSubtasks(t *testing.T) {
	provider := &llm.MockProvider{
		Response: `{"subtasks":[
			{"id":"t1","description":"Research X","capabilities":["research"]},
			{"id":"t2","description":"Implement code for X","capabilities":["coding"],"depends_on":["t1"]}
		]}`,
	}
	decomposer := &LLMDecomposer{Provider: provider}

	plan, err := decomposer.Decompose(context.Background(), "Research X and implement code for X")
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}
	if len(plan.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(plan.Subtasks))
	}
	if plan.Goal == "" {
		t.Fatalf("goal not recorded")
	}
	if plan.Subtasks[1].DependsOn[0] != "t1" {
		t.Fatalf("dependency lost: %+v", plan.Subtasks[1])
	}
}

func TestLLMDecomposerProviderFailure(t *testing.T) {
	decomposer := &LLMDecomposer{Provider: &llm.FailingMockProvider{Err: fmt.Errorf("down")}}
	_, err := decomposer.Decompose(context.Background(), "goal")
	var qe *qerrors.QuorumError
	if !errors.As(err, &qe) || qe.Code != qerrors.CodeDecompositionError {
		t.Fatalf("expected DECOMPOSITION_ERROR, got %v", err)
	}
}

func TestLLMDecomposerEmptyGoal(t *testing.T) {
	decomposer := &LLMDecomposer{Provider: &llm.MockProvider{Response: "{}"}}
	if _, err := decomposer.Decompose(context.Background(), "   "); err == nil {
		t.Fatalf("empty goal should be rejected")
	}
}

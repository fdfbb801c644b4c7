package coordinator

import (
	"context"
	"encoding/json"
	"strings"

	qerrors "github.com/pcanals/quorum/pkg/errors"
	"github.com/pcanals/quorum/pkg/llm"
)

// Decomposer turns a goal into an executable plan.
type Decomposer interface {
	Decompose(ctx context.Context, goal string) (*Plan, error)
}

const decomposePrompt = `You are a task planner. Break the goal below into the
smallest set of independent subtasks. Respond with JSON only, no prose, in
this shape:

{"subtasks": [{"id": "t1", "description": "...", "capabilities": ["..."], "depends_on": []}]}

Rules:
- "capabilities" names the skills a worker needs, such as "research" or "coding".
- "depends_on" lists ids of subtasks whose output this one needs.
- Use a single subtask when the goal does not divide.

Goal: `

// LLMDecomposer asks the intelligence provider for a plan and parses its
// strict JSON reply.
type LLMDecomposer struct {
	Provider llm.Provider
	Model    string
}

// Decompose produces a validated plan for the goal.
func (d *LLMDecomposer) Decompose(ctx context.Context, goal string) (*Plan, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, qerrors.New(qerrors.CodeInvalidParams, "goal is empty", nil)
	}
	if d == nil || d.Provider == nil {
		return nil, qerrors.New(qerrors.CodeDecompositionError, "no provider configured", nil)
	}

	resp, err := d.Provider.Chat(ctx, llm.ChatRequest{
		Model: d.Model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: decomposePrompt + goal},
		},
	})
	if err != nil {
		return nil, qerrors.New(qerrors.CodeDecompositionError, "provider call failed", err)
	}

	plan, err := ParsePlan(resp.Content)
	if err != nil {
		return nil, err
	}
	plan.Goal = goal
	return plan, nil
}

// ParsePlan parses a provider reply into a validated plan. Code fences around
// the JSON are tolerated.
func ParsePlan(raw string) (*Plan, error) {
	payload := stripFences(raw)
	if payload == "" {
		return nil, qerrors.New(qerrors.CodeDecompositionError, "empty plan payload", nil)
	}
	var plan Plan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, qerrors.New(qerrors.CodeDecompositionError, "plan is not valid json", err)
	}
	for _, subtask := range plan.Subtasks {
		if subtask != nil && subtask.State == "" {
			subtask.State = SubtaskPending
		}
	}
	if err := plan.Validate(); err != nil {
		return nil, qerrors.New(qerrors.CodeDecompositionError, "invalid plan", err)
	}
	return &plan, nil
}

func stripFences(raw string) string {
	payload := strings.TrimSpace(raw)
	if strings.HasPrefix(payload, "```") {
		payload = strings.TrimPrefix(payload, "```json")
		payload = strings.TrimPrefix(payload, "```")
		payload = strings.TrimSuffix(strings.TrimSpace(payload), "```")
	}
	return strings.TrimSpace(payload)
}

// StaticDecomposer returns a fixed plan. Used in tests and demos.
type StaticDecomposer struct {
	Plan *Plan
	Err  error
}

func (d *StaticDecomposer) Decompose(ctx context.Context, goal string) (*Plan, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	if d.Plan != nil {
		d.Plan.Goal = goal
	}
	return d.Plan, nil
}

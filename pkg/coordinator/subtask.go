// Copyright 2026 © The Quorum Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import "fmt"

// SubtaskState tracks a subtask through dispatch.
type SubtaskState string

const (
	SubtaskPending    SubtaskState = "pending"
	SubtaskAssigned   SubtaskState = "assigned"
	SubtaskInProgress SubtaskState = "in_progress"
	SubtaskCompleted  SubtaskState = "completed"
	SubtaskFailed     SubtaskState = "failed"
)

// Subtask is one unit of a decomposed goal.
type Subtask struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities,omitempty"`
	DependsOn    []string `json:"depends_on,omitempty"`

	State         SubtaskState `json:"state"`
	AssignedAgent string       `json:"assigned_agent,omitempty"`
	RemoteTaskID  string       `json:"remote_task_id,omitempty"`
	Result        string       `json:"result,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// Plan is a dependency graph of subtasks produced by decomposition.
type Plan struct {
	Goal     string     `json:"goal"`
	Subtasks []*Subtask `json:"subtasks"`
}

// Validate ensures the plan is well-formed for execution: unique ids,
// resolvable dependencies, and no cycles.
func (p *Plan) Validate() error {
	if p == nil {
		return fmt.Errorf("plan is nil")
	}
	if len(p.Subtasks) == 0 {
		return fmt.Errorf("plan has no subtasks")
	}

	byID := make(map[string]*Subtask, len(p.Subtasks))
	for _, subtask := range p.Subtasks {
		if subtask == nil || subtask.ID == "" {
			return fmt.Errorf("subtask id is required")
		}
		if subtask.Description == "" {
			return fmt.Errorf("subtask %q missing description", subtask.ID)
		}
		if _, ok := byID[subtask.ID]; ok {
			return fmt.Errorf("duplicate subtask id %q", subtask.ID)
		}
		byID[subtask.ID] = subtask
	}

	for _, subtask := range p.Subtasks {
		for _, dep := range subtask.DependsOn {
			if dep == subtask.ID {
				return fmt.Errorf("subtask %q depends on itself", subtask.ID)
			}
			if _, ok := byID[dep]; !ok {
				return fmt.Errorf("subtask %q depends on unknown id %q", subtask.ID, dep)
			}
		}
	}

	return p.checkAcyclic()
}

// Kahn's algorithm. Anything left unprocessed sits on a cycle.
func (p *Plan) checkAcyclic() error {
	incoming := make(map[string]int, len(p.Subtasks))
	dependents := make(map[string][]string, len(p.Subtasks))
	for _, subtask := range p.Subtasks {
		incoming[subtask.ID] = len(subtask.DependsOn)
		for _, dep := range subtask.DependsOn {
			dependents[dep] = append(dependents[dep], subtask.ID)
		}
	}

	queue := make([]string, 0, len(p.Subtasks))
	for id, count := range incoming {
		if count == 0 {
			queue = append(queue, id)
		}
	}
	processed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		processed++
		for _, next := range dependents[id] {
			incoming[next]--
			if incoming[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if processed != len(p.Subtasks) {
		return fmt.Errorf("dependency cycle detected")
	}
	return nil
}

// Get returns the subtask with the given id.
func (p *Plan) Get(id string) (*Subtask, bool) {
	for _, subtask := range p.Subtasks {
		if subtask.ID == id {
			return subtask, true
		}
	}
	return nil, false
}

// Ready returns pending subtasks whose dependencies have all completed, in
// plan order.
func (p *Plan) Ready() []*Subtask {
	out := make([]*Subtask, 0)
	for _, subtask := range p.Subtasks {
		if subtask.State != SubtaskPending {
			continue
		}
		ready := true
		for _, dep := range subtask.DependsOn {
			parent, ok := p.Get(dep)
			if !ok || parent.State != SubtaskCompleted {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, subtask)
		}
	}
	return out
}

// Pending reports whether any subtask has not reached a final state.
func (p *Plan) Pending() bool {
	for _, subtask := range p.Subtasks {
		if subtask.State != SubtaskCompleted && subtask.State != SubtaskFailed {
			return true
		}
	}
	return false
}

// FailDependents marks every subtask that depends, directly or transitively,
// on a failed subtask as failed. Returns the ids it marked.
func (p *Plan) FailDependents() []string {
	marked := make([]string, 0)
	for {
		changed := false
		for _, subtask := range p.Subtasks {
			if subtask.State == SubtaskCompleted || subtask.State == SubtaskFailed {
				continue
			}
			for _, dep := range subtask.DependsOn {
				parent, ok := p.Get(dep)
				if ok && parent.State == SubtaskFailed {
					subtask.State = SubtaskFailed
					subtask.Error = fmt.Sprintf("dependency %q failed", dep)
					marked = append(marked, subtask.ID)
					changed = true
					break
				}
			}
		}
		if !changed {
			return marked
		}
	}
}

// Succeeded reports whether every subtask completed.
func (p *Plan) Succeeded() bool {
	for _, subtask := range p.Subtasks {
		if subtask.State != SubtaskCompleted {
			return false
		}
	}
	return true
}

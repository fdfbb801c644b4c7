// Copyright 2026 © The Quorum Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pcanals/quorum/pkg/a2a/types"
)

// CoordinationMetrics tracks task lifecycle, dispatch, and registry activity.
type CoordinationMetrics struct {
	// taskStateCounter tracks task status transitions by resulting state
	taskStateCounter metric.Int64Counter

	// subtaskDispatchCounter tracks subtask assignments by agent
	subtaskDispatchCounter metric.Int64Counter

	// registryProbeCounter tracks health probes by outcome
	registryProbeCounter metric.Int64Counter
}

// NewCoordinationMetrics creates a metrics tracker with OTEL meters.
func NewCoordinationMetrics() (*CoordinationMetrics, error) {
	meter := otel.Meter("quorum/coordination")

	taskStateCounter, err := meter.Int64Counter(
		"quorum.tasks.transitions",
		metric.WithDescription("Task status transitions by resulting state"),
	)
	if err != nil {
		return nil, err
	}

	subtaskDispatchCounter, err := meter.Int64Counter(
		"quorum.subtasks.dispatched",
		metric.WithDescription("Subtasks dispatched to worker agents"),
	)
	if err != nil {
		return nil, err
	}

	registryProbeCounter, err := meter.Int64Counter(
		"quorum.registry.probes",
		metric.WithDescription("Registry health probes by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &CoordinationMetrics{
		taskStateCounter:       taskStateCounter,
		subtaskDispatchCounter: subtaskDispatchCounter,
		registryProbeCounter:   registryProbeCounter,
	}, nil
}

var (
	defaultMetrics     *CoordinationMetrics
	defaultMetricsOnce sync.Once
)

func globalMetrics() *CoordinationMetrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewCoordinationMetrics()
		if err != nil {
			return
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordTaskState increments the transition counter for the given state.
func RecordTaskState(ctx context.Context, state types.TaskState) {
	m := globalMetrics()
	if m == nil {
		return
	}
	m.taskStateCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("task.state", string(state)),
		),
	)
}

// RecordSubtaskDispatch increments the dispatch counter for the given agent.
func RecordSubtaskDispatch(ctx context.Context, agentName string) {
	m := globalMetrics()
	if m == nil {
		return
	}
	m.subtaskDispatchCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent.name", agentName),
		),
	)
}

// RecordRegistryProbe increments the probe counter with the probe outcome.
func RecordRegistryProbe(ctx context.Context, agentName string, healthy bool) {
	m := globalMetrics()
	if m == nil {
		return
	}
	outcome := "online"
	if !healthy {
		outcome = "offline"
	}
	m.registryProbeCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent.name", agentName),
			attribute.String("probe.outcome", outcome),
		),
	)
}

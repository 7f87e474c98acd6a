package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RecordKernelFinish implements agentkit.Metrics. It increments the
// session counter tagged by status and workflow, and records step
// count and duration on their respective histograms. A nil meter (an
// Instruments built by NewTracer rather than Init) makes this a no-op.
func (in *Instruments) RecordKernelFinish(ctx context.Context, agentName, workflow, status string, steps int, duration time.Duration) {
	if in.meter == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("agent", agentName),
		attribute.String("workflow", workflow),
		attribute.String("status", status),
	)
	in.kernelSessions.Add(ctx, 1, attrs)
	in.kernelStepCount.Record(ctx, int64(steps), attrs)
	in.kernelDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordToolCall implements agentkit.ToolMetrics.
func (in *Instruments) RecordToolCall(ctx context.Context, agentName, tool string, ok bool) {
	if in.meter == nil {
		return
	}
	in.toolExecutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("agent", agentName),
		attribute.String("tool", tool),
		attribute.Bool("ok", ok),
	))
}

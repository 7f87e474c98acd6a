// Package telemetry provides OTEL-based observability for agentkit
// workflow and tool execution.
//
// It implements agentkit.Tracer (spans for tool calls) and
// agentkit.Metrics (kernel-session counters and histograms), exporting
// via OTLP HTTP. Configure the standard OTEL_EXPORTER_OTLP_* env vars to
// point at a collector.
package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tool-agent/agentkit"
)

const scopeName = "github.com/tool-agent/agentkit/telemetry"

// Instruments holds the OTEL instruments backing Tracer, Metrics, and
// ToolMetrics. A single value can be passed to agentkit.WithTracer,
// agentkit.WithToolMetrics, and agentkit.WithMetrics.
type Instruments struct {
	tracer trace.Tracer
	meter  metric.Meter

	kernelSessions  metric.Int64Counter
	kernelStepCount metric.Int64Histogram
	kernelDuration  metric.Float64Histogram
	toolExecutions  metric.Int64Counter
}

var (
	_ agentkit.Tracer      = (*Instruments)(nil)
	_ agentkit.Metrics     = (*Instruments)(nil)
	_ agentkit.ToolMetrics = (*Instruments)(nil)
)

// Init sets up OTEL trace and metric providers with OTLP HTTP exporters
// and returns Instruments wired to them. Configuration comes from
// standard OTEL env vars (OTEL_EXPORTER_OTLP_ENDPOINT, etc). The
// returned shutdown function must be called on application exit to
// flush pending spans and metrics.
func Init(ctx context.Context) (*Instruments, func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName("agentkit")),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, nil, err
	}

	traceExp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	inst, err := newInstruments()
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}
	return inst, shutdown, nil
}

// NewTracer returns an agentkit.Tracer backed by the global OTEL
// TracerProvider, without setting up metric exporters. Call Init first
// to configure the provider; otherwise spans go to a no-op backend.
// Useful when only tracing, not metrics, is wanted.
func NewTracer() agentkit.Tracer {
	return &Instruments{tracer: otel.Tracer(scopeName)}
}

func newInstruments() (*Instruments, error) {
	meter := otel.Meter(scopeName)

	kernelSessions, err := meter.Int64Counter("agentkit.kernel.sessions",
		metric.WithDescription("Kernel sessions finished, by status"),
		metric.WithUnit("{session}"))
	if err != nil {
		return nil, err
	}
	kernelStepCount, err := meter.Int64Histogram("agentkit.kernel.steps",
		metric.WithDescription("Steps executed per finished kernel session"),
		metric.WithUnit("{step}"))
	if err != nil {
		return nil, err
	}
	kernelDuration, err := meter.Float64Histogram("agentkit.kernel.duration",
		metric.WithDescription("Kernel session wall-clock duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	toolExecutions, err := meter.Int64Counter("agentkit.tool.executions",
		metric.WithDescription("Tool call count, by tool name"),
		metric.WithUnit("{execution}"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		tracer:          otel.Tracer(scopeName),
		meter:           meter,
		kernelSessions:  kernelSessions,
		kernelStepCount: kernelStepCount,
		kernelDuration:  kernelDuration,
		toolExecutions:  toolExecutions,
	}, nil
}

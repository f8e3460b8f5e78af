// Package telemetry sets up OpenTelemetry tracing for agent invocations.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	serviceName = "firecrawl-agent"
	tracerName  = "github.com/DevanshMishra-12/AI-Agent"
)

// TelemetryConfig holds the configuration for telemetry
type TelemetryConfig struct {
	Enabled bool
	// Endpoint is the host:port of an OTLP/HTTP collector, e.g. a local Jaeger
	Endpoint string
	Insecure bool
	Version  string
}

// Provider manages the tracer used by the agent. When telemetry is disabled it hands out a no-op tracer
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
}

// NewProvider creates a new telemetry provider and installs it as the global tracer provider when enabled
func NewProvider(ctx context.Context, config TelemetryConfig) (*Provider, error) {
	if !config.Enabled {
		log.Printf("Telemetry disabled")
		return NewNoopProvider(), nil
	}

	opts := []otlptracehttp.Option{}
	if config.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(config.Endpoint))
	}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(config.Version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Printf("Telemetry enabled, exporting traces to %s", endpointOrDefault(config.Endpoint))

	return &Provider{
		tracerProvider: tp,
		tracer:         tp.Tracer(tracerName),
	}, nil
}

// NewNoopProvider returns a provider whose spans are discarded
func NewNoopProvider() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer(tracerName)}
}

func endpointOrDefault(endpoint string) string {
	if endpoint == "" {
		return "the default OTLP endpoint"
	}
	return endpoint
}

// Tracer returns the tracer spans should be started from
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Shutdown flushes pending spans and shuts down the telemetry provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil
	}
	log.Printf("Shutting down telemetry provider")
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}

// ToolUseTelemetry holds telemetry data for a tool use
type ToolUseTelemetry struct {
	ToolName       string
	ToolUseSize    int
	ToolResultSize int
	HasError       bool
	InvocationID   string
	Iteration      int
}

// RecordToolUse attaches a tool use event to the span in ctx
func RecordToolUse(ctx context.Context, toolUse ToolUseTelemetry) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent("tool_use", trace.WithAttributes(
		attribute.String("tool.name", toolUse.ToolName),
		attribute.Int("tool.use_size", toolUse.ToolUseSize),
		attribute.Int("tool.result_size", toolUse.ToolResultSize),
		attribute.Bool("tool.has_error", toolUse.HasError),
		attribute.String("agent.invocation_id", toolUse.InvocationID),
		attribute.Int("agent.iteration", toolUse.Iteration),
	))
}

// TransformToolName qualifies a tool name with its URL argument, when it has one, so traces distinguish targets
func TransformToolName(toolName string, toolInput json.RawMessage) string {
	var input struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(toolInput, &input); err == nil && input.URL != "" {
		return fmt.Sprintf("%s[%s]", toolName, input.URL)
	}
	return toolName
}

// NewInvocationID generates a new agent invocation UUID
func NewInvocationID() string {
	return uuid.New().String()
}

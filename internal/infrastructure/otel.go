package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"flowcli/internal/config"
)

const (
	ServiceName = "flowcli"
	MeterName   = "flowcli"
)

// Telemetry holds the tracer, meter and the per-run Prometheus registry.
// Providers are not installed globally so that concurrent runs stay isolated.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prometheus.Registry
	Tracer         trace.Tracer
	Metrics        *FlowMetrics
	logger         *slog.Logger
}

// InitializeTelemetry sets up tracing and metrics according to cfg.
// Spans are written to traceOut when the stdout trace exporter is selected.
func InitializeTelemetry(cfg config.TelemetryConfig, logger *slog.Logger, traceOut io.Writer) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if traceOut == nil {
		traceOut = io.Discard
	}
	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
	)

	tel := &Telemetry{logger: logger}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(traceOut),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tel.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		tel.Tracer = tel.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	case "", "none":
		tel.Tracer = tracenoop.NewTracerProvider().Tracer(MeterName)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	var meter metric.Meter
	if cfg.Metrics {
		tel.Registry = prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(tel.Registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		tel.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		meter = tel.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
	} else {
		meter = metricnoop.NewMeterProvider().Meter(MeterName)
	}

	metrics, err := NewFlowMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	tel.Metrics = metrics

	logger.DebugContext(ctx, "Telemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Bool("metrics_enabled", cfg.Metrics))

	return tel, nil
}

// WriteMetricsFile writes the current metric values in the Prometheus text
// format. It is a no-op when metrics are disabled or path is empty.
func (t *Telemetry) WriteMetricsFile(path string) error {
	if t.Registry == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}

// MetricsHandler serves the run's registry, or 404 when metrics are disabled
func (t *Telemetry) MetricsHandler() http.Handler {
	if t.Registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(t.Registry, promhttp.HandlerOpts{})
}

// Shutdown flushes spans and stops the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	t.logger.DebugContext(ctx, "Telemetry shutdown complete")
	return nil
}

// FlowMetrics are the instruments recorded by a pipeline run
type FlowMetrics struct {
	RowsLoaded     metric.Int64Counter
	NullTimestamps metric.Int64Counter
	ExternalRows   metric.Int64Counter
	StepDuration   metric.Float64Histogram
	ChartsRendered metric.Int64Counter
	ExportsWritten metric.Int64Counter
}

// NewFlowMetrics creates the pipeline instruments on meter
func NewFlowMetrics(meter metric.Meter) (*FlowMetrics, error) {
	rowsLoaded, err := meter.Int64Counter(
		"flow_rows_loaded",
		metric.WithDescription("Number of flow records loaded from the input file"),
	)
	if err != nil {
		return nil, err
	}

	nullTimestamps, err := meter.Int64Counter(
		"flow_null_timestamps",
		metric.WithDescription("Number of timestamp cells that matched no layout"),
	)
	if err != nil {
		return nil, err
	}

	externalRows, err := meter.Int64Counter(
		"flow_external_rows",
		metric.WithDescription("Number of flow records whose server is outside the local network"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"pipeline_step_duration",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chartsRendered, err := meter.Int64Counter(
		"charts_rendered",
		metric.WithDescription("Number of chart images written"),
	)
	if err != nil {
		return nil, err
	}

	exportsWritten, err := meter.Int64Counter(
		"exports_written",
		metric.WithDescription("Number of tabular exports written"),
	)
	if err != nil {
		return nil, err
	}

	return &FlowMetrics{
		RowsLoaded:     rowsLoaded,
		NullTimestamps: nullTimestamps,
		ExternalRows:   externalRows,
		StepDuration:   stepDuration,
		ChartsRendered: chartsRendered,
		ExportsWritten: exportsWritten,
	}, nil
}

// RecordEnrichment records the row-level counters of one enrichment pass
func (m *FlowMetrics) RecordEnrichment(ctx context.Context, rows, nullStart, nullStop, external int) {
	if m == nil {
		return
	}
	m.RowsLoaded.Add(ctx, int64(rows))
	m.NullTimestamps.Add(ctx, int64(nullStart), metric.WithAttributes(attribute.String("column", "start")))
	m.NullTimestamps.Add(ctx, int64(nullStop), metric.WithAttributes(attribute.String("column", "stop")))
	m.ExternalRows.Add(ctx, int64(external))
}

// RecordStep records the duration and outcome of a pipeline step
func (m *FlowMetrics) RecordStep(ctx context.Context, step string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.StepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("step", step),
		attribute.Bool("success", success),
	))
}

// RecordChart counts one chart image written for report
func (m *FlowMetrics) RecordChart(ctx context.Context, report string) {
	if m == nil {
		return
	}
	m.ChartsRendered.Add(ctx, 1, metric.WithAttributes(attribute.String("report", report)))
}

// RecordExport counts one export file written in format
func (m *FlowMetrics) RecordExport(ctx context.Context, format string) {
	if m == nil {
		return
	}
	m.ExportsWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format)))
}

// TraceIDFromContext extracts the OpenTelemetry trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String(k, val))
		case int:
			span.SetAttributes(attribute.Int(k, val))
		case int64:
			span.SetAttributes(attribute.Int64(k, val))
		case float64:
			span.SetAttributes(attribute.Float64(k, val))
		case bool:
			span.SetAttributes(attribute.Bool(k, val))
		default:
			span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
}

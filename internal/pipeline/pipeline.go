package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"flowcli/internal/charts"
	"flowcli/internal/config"
	"flowcli/internal/dataprocessing"
	"flowcli/internal/errors"
	"flowcli/internal/exporter"
	"flowcli/internal/infrastructure"
	"flowcli/internal/reports"
	"flowcli/pkg/contracts/domain"
)

// Pipeline runs load, enrich, reports, charts, exports and metrics in order
type Pipeline struct {
	cfg         *config.Config
	paths       *config.Paths
	telemetry   *infrastructure.Telemetry
	tracer      trace.Tracer
	metrics     *infrastructure.FlowMetrics
	loader      *dataprocessing.Loader
	transformer *dataprocessing.Transformer
	renderer    *charts.Renderer
	exporter    *exporter.Exporter
	logger      *slog.Logger
}

// Result is everything one run produced
type Result struct {
	RunID    string
	State    *RunState
	Manifest *Manifest
	Table    *dataprocessing.Table
	Stats    dataprocessing.EnrichStats
	Reports  *reports.Results
	Charts   []domain.ChartInfo
	Exports  []domain.ExportInfo
}

// New creates a pipeline. tel may be nil, in which case nothing is traced or
// measured.
func New(cfg *config.Config, paths *config.Paths, tel *infrastructure.Telemetry, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		cfg:         cfg,
		paths:       paths,
		telemetry:   tel,
		tracer:      tracenoop.NewTracerProvider().Tracer(infrastructure.ServiceName),
		loader:      dataprocessing.NewLoader(logger, cfg.Input, cfg.Schema),
		transformer: dataprocessing.NewTransformer(logger),
		renderer:    charts.NewRenderer(paths, cfg.Output, logger),
		exporter:    exporter.NewExporter(paths, logger),
		logger:      infrastructure.WithComponent(logger, "pipeline"),
	}
	if tel != nil {
		p.tracer = tel.Tracer
		p.metrics = tel.Metrics
	}
	return p
}

// Run executes every step against the configured input file. The first
// failing step stops the run; its error is returned wrapped with the step id.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	runID := infrastructure.GetTraceID(ctx)
	input := p.cfg.Input.Path

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.input", input),
		),
	)
	defer span.End()

	manifest := NewManifest(runID, input)
	manifest.SpanTraceID = infrastructure.TraceIDFromContext(ctx)

	res := &Result{
		RunID:    runID,
		State:    NewRunState(runID),
		Manifest: manifest,
	}
	res.State.Start()

	p.logger.InfoContext(ctx, "pipeline started",
		slog.String("input", input),
		slog.String("output_dir", p.paths.OutputDir))

	err := p.execute(ctx, res)
	res.Manifest.Finish(err)
	if err != nil {
		res.State.Fail(err)
		infrastructure.RecordError(ctx, err)
		p.saveManifest(ctx, res)
		return res, err
	}

	res.State.Complete()
	span.SetStatus(codes.Ok, "pipeline completed")
	p.saveManifest(ctx, res)

	p.logger.InfoContext(ctx, "pipeline completed",
		slog.Int("rows", res.Stats.Rows),
		slog.Int("charts", len(res.Charts)),
		slog.Int("exports", len(res.Exports)),
		slog.Duration("duration", res.State.Duration()))
	return res, nil
}

func (p *Pipeline) execute(ctx context.Context, res *Result) error {
	steps := []struct {
		id   string
		skip string
		fn   func(context.Context, *Result) (string, error)
	}{
		{StepLoad, "", p.load},
		{StepEnrich, "", p.enrich},
		{StepReports, "", p.runReports},
		{StepCharts, p.skipReason(StepCharts), p.renderCharts},
		{StepExports, p.skipReason(StepExports), p.writeExports},
		{StepMetrics, p.skipReason(StepMetrics), p.writeMetrics},
	}

	for _, s := range steps {
		if s.skip != "" {
			p.skipStep(ctx, res, s.id, s.skip)
			continue
		}
		fn := s.fn
		if err := p.runStep(ctx, res, s.id, func(ctx context.Context) (string, error) { return fn(ctx, res) }); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) skipReason(step string) string {
	switch step {
	case StepCharts:
		if !p.cfg.Output.Charts {
			return "charts disabled"
		}
	case StepExports:
		if !p.cfg.Output.CSV && !p.cfg.Output.XLSX {
			return "exports disabled"
		}
	case StepMetrics:
		if p.telemetry == nil || !p.cfg.Telemetry.Metrics {
			return "metrics disabled"
		}
		if p.paths.MetricsFile == "" {
			return "no metrics file configured"
		}
	}
	return ""
}

// runStep runs fn inside a span and records its state, duration and outcome
func (p *Pipeline) runStep(ctx context.Context, res *Result, id string, fn func(context.Context) (string, error)) error {
	step := res.State.Step(id)

	ctx, span := p.tracer.Start(ctx, "pipeline.step."+id,
		trace.WithAttributes(attribute.String("step.id", id)))
	defer span.End()

	step.Start()
	p.logger.DebugContext(ctx, "step started", slog.String("step", id))

	msg, err := fn(ctx)
	if err != nil {
		step.Fail(err)
		infrastructure.RecordError(ctx, err)
		p.metrics.RecordStep(ctx, id, step.Duration(), false)
		res.Manifest.RecordStep(step)

		p.logger.ErrorContext(ctx, "step failed",
			slog.String("step", id),
			slog.String("error_type", string(errors.TypeOf(err))),
			slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", id, err)
	}

	step.Complete(msg)
	span.SetStatus(codes.Ok, msg)
	p.metrics.RecordStep(ctx, id, step.Duration(), true)
	res.Manifest.RecordStep(step)

	p.logger.InfoContext(ctx, "step completed",
		slog.String("step", id),
		slog.String("result", msg),
		slog.Duration("duration", step.Duration()))
	return nil
}

func (p *Pipeline) skipStep(ctx context.Context, res *Result, id, reason string) {
	step := res.State.Step(id)
	step.Skip(reason)
	res.Manifest.RecordStep(step)
	p.logger.InfoContext(ctx, "step skipped",
		slog.String("step", id),
		slog.String("reason", reason))
}

func (p *Pipeline) load(ctx context.Context, res *Result) (string, error) {
	table, err := p.loader.Load(ctx, p.cfg.Input.Path)
	if err != nil {
		return "", err
	}
	res.Table = table

	if err := p.paths.EnsureDirectories(); err != nil {
		return "", errors.NewStorageError("failed to create output directories", err)
	}
	return fmt.Sprintf("%d rows", table.Len()), nil
}

func (p *Pipeline) enrich(ctx context.Context, res *Result) (string, error) {
	stats, err := p.transformer.Enrich(ctx, res.Table)
	if err != nil {
		return "", err
	}
	res.Stats = stats
	res.Manifest.SetEnrichment(stats)
	p.metrics.RecordEnrichment(ctx, stats.Rows, stats.NullStart, stats.NullStop, stats.External)
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"enrich.rows":       stats.Rows,
		"enrich.null_start": stats.NullStart,
		"enrich.null_stop":  stats.NullStop,
		"enrich.external":   stats.External,
	})

	return fmt.Sprintf("%d rows, %d external", stats.Rows, stats.External), nil
}

func (p *Pipeline) runReports(ctx context.Context, res *Result) (string, error) {
	results, err := reports.Run(res.Table, p.cfg.Reports)
	if err != nil {
		return "", err
	}
	res.Reports = results

	n := 0
	for _, kind := range domain.AllReports() {
		if results.Has(kind) {
			n++
		}
	}
	return fmt.Sprintf("%d reports", n), nil
}

func (p *Pipeline) renderCharts(ctx context.Context, res *Result) (string, error) {
	r := res.Reports
	for _, kind := range domain.AllReports() {
		if !r.Has(kind) {
			continue
		}

		var (
			infos []domain.ChartInfo
			err   error
		)
		switch kind {
		case domain.ReportDailyClientTotals:
			infos, err = p.renderer.DailyClientTotals(ctx, r.DailyTotals)
		case domain.ReportExternalPerClient:
			infos, err = p.renderer.ExternalPerClient(ctx, r.ExternalPerClient, p.cfg.Reports.ChartPerClient)
		case domain.ReportFieldPerBucket:
			infos, err = p.renderer.FieldPerBucket(ctx, r.FieldPerBucket, r.Window)
		case domain.ReportFieldPerBucketPerClient:
			infos, err = p.renderer.FieldPerBucketPerClient(ctx, r.FieldPerBucketPerClient, r.Field, r.ClientWindow)
		case domain.ReportExternalShare:
			infos, err = p.renderer.ExternalShare(ctx, r.ExternalShares)
		}
		for _, info := range infos {
			p.metrics.RecordChart(ctx, string(info.Report))
		}
		res.Charts = append(res.Charts, infos...)
		res.Manifest.AddCharts(infos...)
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%d charts", len(res.Charts)), nil
}

func (p *Pipeline) writeExports(ctx context.Context, res *Result) (string, error) {
	record := func(infos ...domain.ExportInfo) {
		for _, info := range infos {
			p.metrics.RecordExport(ctx, info.Format)
		}
		res.Exports = append(res.Exports, infos...)
		res.Manifest.AddExports(infos...)
	}

	if p.cfg.Output.CSV {
		info, err := p.exporter.WriteTable(ctx, res.Table)
		if err != nil {
			return "", err
		}
		record(info)

		infos, err := p.exporter.WriteReports(ctx, res.Reports)
		record(infos...)
		if err != nil {
			return "", err
		}
	}

	if p.cfg.Output.XLSX {
		info, err := p.exporter.WriteWorkbook(ctx, res.Table, res.Reports)
		if err != nil {
			return "", err
		}
		record(info)
	}
	return fmt.Sprintf("%d files", len(res.Exports)), nil
}

func (p *Pipeline) writeMetrics(ctx context.Context, res *Result) (string, error) {
	if err := p.telemetry.WriteMetricsFile(p.paths.MetricsFile); err != nil {
		return "", errors.NewStorageError("failed to write metrics file", err)
	}
	return p.paths.MetricsFile, nil
}

// saveManifest writes the manifest when the output directory exists. A
// failure is logged and does not change the run outcome.
func (p *Pipeline) saveManifest(ctx context.Context, res *Result) {
	if !config.FileExists(p.paths.OutputDir) {
		return
	}
	if err := res.Manifest.SaveToFile(p.paths.GetManifestPath()); err != nil {
		p.logger.WarnContext(ctx, "manifest not written", slog.String("error", err.Error()))
	}
}

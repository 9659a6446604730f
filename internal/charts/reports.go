package charts

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"flowcli/internal/reports"
	"flowcli/pkg/contracts/domain"
)

// DailyClientTotals draws one bar chart per date with a bar per client
// present on that date.
func (r *Renderer) DailyClientTotals(ctx context.Context, d *reports.DailyTotals) ([]domain.ChartInfo, error) {
	var out []domain.ChartInfo
	for _, date := range d.Dates() {
		groups := d.ForDate(date)
		bars := make([]Bar, len(groups))
		for i, g := range groups {
			bars[i] = Bar{Label: g.Client, Value: float64(g.Bytes)}
		}

		title := fmt.Sprintf("Total bytes per client on %s", date)
		file, err := r.RenderBar(ctx, "daily-client-totals-"+date, title, "bytes", bars)
		if info, err := r.collect(ctx, domain.ReportDailyClientTotals, title, file, err); err != nil {
			return out, err
		} else if info != nil {
			out = append(out, *info)
		}
	}
	if len(out) == 0 {
		r.skip(ctx, domain.ReportDailyClientTotals)
	}
	return out, nil
}

// ExternalPerClient draws every client's external bytes per day on one
// chart and, when perClient is set, one chart per client.
func (r *Renderer) ExternalPerClient(ctx context.Context, m *reports.Matrix, perClient bool) ([]domain.ChartInfo, error) {
	if m.Empty() {
		r.skip(ctx, domain.ReportExternalPerClient)
		return nil, nil
	}

	lines := matrixLines(m)
	title := "External traffic per client"
	file, err := r.RenderLines(ctx, "external-per-client", title, "bytes", lines, true)
	info, err := r.collect(ctx, domain.ReportExternalPerClient, title, file, err)
	if err != nil || info == nil {
		return nil, err
	}
	out := []domain.ChartInfo{*info}

	if !perClient {
		return out, nil
	}
	for i, line := range lines {
		title := fmt.Sprintf("External traffic for %s", line.Name)
		file, err := r.RenderLines(ctx, clientChartName(i, line.Name), title, "bytes", []Line{line}, false)
		info, err := r.collect(ctx, domain.ReportExternalPerClient, title, file, err)
		if err != nil {
			return out, err
		}
		if info != nil {
			out = append(out, *info)
		}
	}
	return out, nil
}

// FieldPerBucket draws the bucketed sums as one line
func (r *Renderer) FieldPerBucket(ctx context.Context, s *reports.Series, w reports.Window) ([]domain.ChartInfo, error) {
	if s.Empty() {
		r.skip(ctx, domain.ReportFieldPerBucket)
		return nil, nil
	}

	title := fmt.Sprintf("%s per %s window", s.Name, w)
	line := Line{Name: s.Name, Times: s.Times, Values: s.Floats()}
	file, err := r.RenderLines(ctx, fmt.Sprintf("%s-per-%s", s.Name, w), title, s.Name, []Line{line}, false)
	info, err := r.collect(ctx, domain.ReportFieldPerBucket, title, file, err)
	if err != nil || info == nil {
		return nil, err
	}
	return []domain.ChartInfo{*info}, nil
}

// FieldPerBucketPerClient draws one line per client with the legend beside
// the plot.
func (r *Renderer) FieldPerBucketPerClient(ctx context.Context, m *reports.Matrix, field string, w reports.Window) ([]domain.ChartInfo, error) {
	if m.Empty() {
		r.skip(ctx, domain.ReportFieldPerBucketPerClient)
		return nil, nil
	}

	title := fmt.Sprintf("%s per %s window", field, w)
	file, err := r.RenderLines(ctx, fmt.Sprintf("%s-per-%s-per-client", field, w), title, field, matrixLines(m), true)
	info, err := r.collect(ctx, domain.ReportFieldPerBucketPerClient, title, file, err)
	if err != nil || info == nil {
		return nil, err
	}
	return []domain.ChartInfo{*info}, nil
}

// ExternalShare draws the external proportion of every client
func (r *Renderer) ExternalShare(ctx context.Context, shares []reports.ClientShare) ([]domain.ChartInfo, error) {
	bars := make([]Bar, len(shares))
	for i, s := range shares {
		bars[i] = Bar{Label: s.Client, Value: s.Share}
	}

	title := "Proportion of traffic going outside"
	file, err := r.RenderBar(ctx, "external-share", title, "share of bytes", bars)
	info, err := r.collect(ctx, domain.ReportExternalShare, title, file, err)
	if err != nil || info == nil {
		return nil, err
	}
	return []domain.ChartInfo{*info}, nil
}

// collect turns a render result into chart info. ErrNoData yields nil info
// and no error.
func (r *Renderer) collect(ctx context.Context, report domain.ReportKind, title, file string, err error) (*domain.ChartInfo, error) {
	if stderrors.Is(err, ErrNoData) {
		r.skip(ctx, report)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", report, err)
	}

	r.logger.InfoContext(ctx, "chart rendered",
		slog.String("report", string(report)),
		slog.String("file", file))
	return &domain.ChartInfo{
		Report:  report,
		Title:   title,
		File:    file,
		Created: time.Now().UTC(),
	}, nil
}

func (r *Renderer) skip(ctx context.Context, report domain.ReportKind) {
	r.logger.InfoContext(ctx, "chart skipped, no data",
		slog.String("report", string(report)))
}

// matrixLines turns every matrix column into a line over the matrix index
// clientChartName prefixes the client with its column position so clients
// sharing a file-name slug get distinct files
func clientChartName(i int, client string) string {
	return fmt.Sprintf("external-%02d-%s", i+1, client)
}

func matrixLines(m *reports.Matrix) []Line {
	lines := make([]Line, len(m.Columns))
	for i, col := range m.Columns {
		lines[i] = Line{Name: col, Times: m.Times, Values: m.ColumnFloats(col)}
	}
	return lines
}

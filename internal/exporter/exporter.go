package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"flowcli/internal/config"
	"flowcli/internal/dataprocessing"
	"flowcli/internal/errors"
	"flowcli/internal/reports"
	"flowcli/pkg/contracts/domain"
)

// Exporter writes the enriched table and the report results of a run
type Exporter struct {
	paths  *config.Paths
	csv    *CSVWriter
	logger *slog.Logger
}

// NewExporter creates an exporter writing below paths.ExportsDir
func NewExporter(paths *config.Paths, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &Exporter{
		paths:  paths,
		csv:    NewCSVWriter(paths, logger),
		logger: logger,
	}
}

// WriteTable streams every loaded and derived column of t as CSV, one row
// at a time
func (e *Exporter) WriteTable(ctx context.Context, t *dataprocessing.Table) (domain.ExportInfo, error) {
	df := t.Frame()
	if df.Err != nil {
		return domain.ExportInfo{}, errors.NewStorageError("failed to build table frame", df.Err)
	}

	records := df.Records()
	stream, err := e.csv.CreateStreamWriter(ctx, config.EnrichedCSV, records[0])
	if err != nil {
		return domain.ExportInfo{}, err
	}
	for i, record := range records[1:] {
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return domain.ExportInfo{}, errors.NewStorageError(fmt.Sprintf("failed to write row %d of %s", i, config.EnrichedCSV), err)
		}
	}
	if err := stream.Close(); err != nil {
		return domain.ExportInfo{}, errors.NewStorageError(fmt.Sprintf("failed to flush %s", stream.Path()), err)
	}

	info := domain.ExportInfo{Format: "csv", File: config.EnrichedCSV, Rows: t.Len()}
	e.logExport(ctx, info)
	return info, nil
}

// WriteReports writes one CSV file per computed report
func (e *Exporter) WriteReports(ctx context.Context, res *reports.Results) ([]domain.ExportInfo, error) {
	var out []domain.ExportInfo
	for _, s := range reportSheets(res) {
		file := s.name + ".csv"
		if _, err := e.csv.WriteSimpleCSV(ctx, file, s.header, s.records()); err != nil {
			return out, fmt.Errorf("export %s: %w", s.report, err)
		}

		info := domain.ExportInfo{Report: s.report, Format: "csv", File: file, Rows: len(s.rows)}
		e.logExport(ctx, info)
		out = append(out, info)
	}
	return out, nil
}

// WriteWorkbook writes the reports, and the table when t is not nil, as the
// sheets of one XLSX workbook.
func (e *Exporter) WriteWorkbook(ctx context.Context, t *dataprocessing.Table, res *reports.Results) (domain.ExportInfo, error) {
	sheets := reportSheets(res)
	rows := 0
	if t != nil {
		sheets = append([]sheet{frameSheet("flows", t.Frame())}, sheets...)
		rows = t.Len()
	}

	path := e.paths.GetExportPath(config.WorkbookFile)
	if err := writeWorkbook(path, sheets); err != nil {
		return domain.ExportInfo{}, err
	}

	info := domain.ExportInfo{Format: "xlsx", File: config.WorkbookFile, Rows: rows}
	e.logExport(ctx, info)
	return info, nil
}

func (e *Exporter) logExport(ctx context.Context, info domain.ExportInfo) {
	e.logger.InfoContext(ctx, "export written",
		slog.String("file", info.File),
		slog.String("format", info.Format),
		slog.String("report", string(info.Report)),
		slog.Int("rows", info.Rows))
}

package exporter

import (
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"flowcli/internal/reports"
	"flowcli/pkg/contracts/domain"
)

// sheet is one report flattened to a header and typed rows, shared by the
// CSV and XLSX writers.
type sheet struct {
	report domain.ReportKind
	name   string
	header []string
	rows   [][]any
}

func (s sheet) records() [][]string {
	out := make([][]string, len(s.rows))
	for i, row := range s.rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = formatValue(v)
		}
		out[i] = rec
	}
	return out
}

// reportSheets flattens every computed report in run order
func reportSheets(res *reports.Results) []sheet {
	var out []sheet
	for _, kind := range domain.AllReports() {
		if !res.Has(kind) {
			continue
		}
		switch kind {
		case domain.ReportDailyClientTotals:
			out = append(out, matrixSheet(kind, "date", res.DailyTotals.Matrix))
		case domain.ReportExternalPerClient:
			out = append(out, matrixSheet(kind, "date", res.ExternalPerClient))
		case domain.ReportFieldPerBucket:
			out = append(out, seriesSheet(kind, res.FieldPerBucket))
		case domain.ReportFieldPerBucketPerClient:
			out = append(out, matrixSheet(kind, "bucket", res.FieldPerBucketPerClient))
		case domain.ReportExternalShare:
			out = append(out, shareSheet(kind, res.ExternalShares))
		}
	}
	return out
}

func matrixSheet(kind domain.ReportKind, index string, m *reports.Matrix) sheet {
	s := sheet{report: kind, name: string(kind), header: []string{index}}
	if m == nil {
		return s
	}
	s.header = append(s.header, m.Columns...)
	for i, label := range m.Index {
		row := make([]any, 0, len(m.Columns)+1)
		row = append(row, label)
		for _, v := range m.Values[i] {
			row = append(row, v)
		}
		s.rows = append(s.rows, row)
	}
	return s
}

func seriesSheet(kind domain.ReportKind, ser *reports.Series) sheet {
	s := sheet{report: kind, name: string(kind), header: []string{"bucket", ser.Name}}
	for i, at := range ser.Times {
		s.rows = append(s.rows, []any{at, ser.Values[i]})
	}
	return s
}

func shareSheet(kind domain.ReportKind, shares []reports.ClientShare) sheet {
	s := sheet{
		report: kind,
		name:   string(kind),
		header: []string{"client", "total_bytes", "external_bytes", "share"},
	}
	for _, c := range shares {
		s.rows = append(s.rows, []any{c.Client, c.TotalBytes, c.ExternalBytes, c.Share})
	}
	return s
}

// frameSheet converts a data frame, keeping integer and boolean columns typed
func frameSheet(name string, df dataframe.DataFrame) sheet {
	s := sheet{name: name, header: df.Names()}
	types := df.Types()
	records := df.Records()
	if len(records) < 2 {
		return s
	}
	for _, rec := range records[1:] {
		row := make([]any, len(rec))
		for j, cell := range rec {
			row[j] = cell
			switch types[j] {
			case series.Int:
				if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
					row[j] = v
				}
			case series.Bool:
				if v, err := strconv.ParseBool(cell); err == nil {
					row[j] = v
				}
			}
		}
		s.rows = append(s.rows, row)
	}
	return s
}

// Package exporter writes the results of a flow run to disk.
//
// CSVWriter is the low level writer: headers, appends, streaming and a UTF-8
// BOM so spreadsheets detect the encoding.
//
// Exporter builds on it and writes:
//
//	flows_enriched.csv       every loaded and derived column of the table
//	<report>.csv             one file per computed report
//	flow_reports.xlsx        one sheet per report plus a "flows" sheet
//
// Example usage:
//
//	e := exporter.NewExporter(paths, logger)
//	if _, err := e.WriteTable(ctx, table); err != nil {
//		return err
//	}
//	infos, err := e.WriteReports(ctx, results)
package exporter

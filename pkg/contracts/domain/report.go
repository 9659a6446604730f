package domain

import "time"

// ReportKind identifies one of the reporting routines.
type ReportKind string

const (
	ReportDailyClientTotals       ReportKind = "daily_client_totals"
	ReportExternalPerClient       ReportKind = "external_per_client"
	ReportFieldPerBucket          ReportKind = "field_per_bucket"
	ReportFieldPerBucketPerClient ReportKind = "field_per_bucket_per_client"
	ReportExternalShare           ReportKind = "external_share"
)

// AllReports lists every report in the order the pipeline runs them.
func AllReports() []ReportKind {
	return []ReportKind{
		ReportDailyClientTotals,
		ReportExternalPerClient,
		ReportFieldPerBucket,
		ReportFieldPerBucketPerClient,
		ReportExternalShare,
	}
}

// ChartInfo describes a rendered chart file.
type ChartInfo struct {
	Report  ReportKind `json:"report"`
	Title   string     `json:"title"`
	File    string     `json:"file"`
	Created time.Time  `json:"created"`
}

// ExportInfo describes a written export file.
type ExportInfo struct {
	Report ReportKind `json:"report,omitempty"`
	Format string     `json:"format"`
	File   string     `json:"file"`
	Rows   int        `json:"rows"`
}

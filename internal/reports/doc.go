// Package reports runs read-only group, pivot and resample queries over an
// enriched flow table. Results are plain Matrix, Series and ClientShare values
// that the charts and exporter packages consume.
package reports

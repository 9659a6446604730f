// Package pipeline runs a flow report end to end.
//
// Steps run strictly in order: load, enrich, reports, charts, exports and
// metrics. Each step gets a span, a StepState and a duration sample; the
// first failure stops the run. Disabled outputs are recorded as skipped.
//
// A Manifest of the run is written to the output directory once it exists,
// listing every chart and export.
package pipeline

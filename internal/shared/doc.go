// Package shared groups helpers used across flowcli packages.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and fixtures that write small flow exports to temp directories:
//
//	logger, logs := testutil.NewTestLogger(t)
//	path := testutil.WriteFlowsCSV(t, testutil.SampleFlows())
package shared

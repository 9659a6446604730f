package config

import "flowcli/pkg/contracts"

// Application constants
const (
	AppName    = "flowcli"
	AppVersion = contracts.Version

	// File paths (relative to the working directory)
	DefaultInputPath = "../Data/all_output.csv"
	DefaultOutputDir = "reports"
	DefaultLogFile   = "logs/flowcli.log"

	// Output subdirectories
	ChartsSubdir  = "charts"
	ExportsSubdir = "exports"

	// Export file names
	EnrichedCSV  = "flows_enriched.csv"
	WorkbookFile = "flow_reports.xlsx"

	// Run manifest, written to the output directory
	ManifestFile = "manifest.json"
)

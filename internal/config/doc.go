// Package config provides configuration management for flowcli.
// It handles loading configuration from multiple sources, validation, and the
// output path layout used by every pipeline step.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Command-line flags (applied by cmd/flowreport)
//	2. Environment variables
//	3. YAML configuration file
//	4. Default values
//
// # Environment Variables
//
// All environment variables follow the pattern FLOW_<SECTION>_<KEY>:
//
//	FLOW_INPUT_PATH=../Data/all_output.csv
//	FLOW_OUTPUT_DIR=reports
//	FLOW_REPORTS_BUCKET_WINDOW=4H
//	FLOW_LOGGING_LEVEL=debug
//
// # Schema
//
// Column names are carried by SchemaConfig and passed explicitly to the loader,
// transformer and reports:
//
//	schema := config.DefaultSchema()
//	loader := dataprocessing.NewLoader(logger, cfg.Input, schema)
//	table, err := loader.Load(ctx, cfg.Input.Path)
//
// # Validation
//
// Struct constraints are declared with validator tags and checked by Validate.
package config

// Package dataprocessing loads network-flow exports into a Table and derives
// the columns the reports are built on.
//
// # Data Flow
//
//	CSV file → Loader → Table → Transformer.Enrich → enriched Table → reports
//
// Loading reads identifier and timestamp columns as strings and byte columns
// as integers; any extra columns are kept for the enriched export. Enrich adds,
// once per table:
//
//	- start_ts, stop_ts: parsed with the layout "15:04:05 2/1/06", falling
//	  back to "2/1/2006 15:04"; a cell matching neither is null
//	- is_outside: the server does not start with the text "192.168"
//	- total_bytes: client_bytes + server_bytes
//	- date: the calendar day of start_ts
//
// Rows are never dropped or reordered.
//
// # Error Handling
//
// A missing input file is a NOT_FOUND AppError; a missing column, a bad byte
// cell or an empty file is PARSING. Unparsable timestamps are not errors.
package dataprocessing

// Package http serves the output of a pipeline run over HTTP.
//
// Routes:
//
//	GET /                  index page with every chart of the run
//	GET /api/health        liveness and output directory status
//	GET /api/version       build information
//	GET /api/charts        charts and exports listed in the run manifest
//	GET /charts/{file}     a rendered PNG chart
//	GET /exports/{file}    a CSV or XLSX export
//	GET /metrics           Prometheus metrics of the run
//
// Errors are answered with RFC 7807 problem details. A token bucket rate
// limiter is installed when ServerConfig.RateLimit is positive.
package http

// Package charts renders report results to PNG files below the run's charts
// directory. Bar charts are drawn with gonum/plot and time series with
// go-chart, which also places the legend beside the plot.
//
// A result without data produces no file: the low-level renderers return
// ErrNoData and the report renderers log and skip it.
package charts

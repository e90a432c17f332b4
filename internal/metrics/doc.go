// Package metrics reports the outcome of a sync run as Prometheus gauges.
//
// A sync run is a short-lived job, so nothing is served over HTTP. When a
// textfile path is configured the gauges are written in the exposition
// format for node-exporter's textfile collector, after successful and failed
// runs alike.
package metrics

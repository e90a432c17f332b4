// Package app wires a wikisync command together.
//
// NewApplication initializes logging with a fresh run id and loads the
// configuration directory. The Application then builds what a command
// needs from it: the source and target wiki clients (behind the proxy and
// the record/replay fixture transport when configured), the watermark
// store and an orchestrator. RecordRun writes the node-exporter textfile
// after a sync.
package app

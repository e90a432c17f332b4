// Package state persists the sync watermark, the only state that survives
// between runs. The watermark is the server timestamp captured with the last
// recent-changes page of the previous successful run.
package state

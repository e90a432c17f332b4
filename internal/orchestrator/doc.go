// Package orchestrator drives a wikisync run from watermark to watermark.
//
// A run is strictly sequential:
//
//  1. Resolve the start of the window: the --since override or the stored
//     watermark.
//  2. Fetch recent changes on the source up to its current time and, if an
//     exclusion category is configured, the category's members.
//  3. Reduce the events into a reconciler.Plan.
//  4. Export the plan's titles in batches, merge them into one document and
//     strip minor markers from pages with a major change.
//  5. Log in to the target (unless it uses an OAuth token), fetch a csrf
//     token, replay the moves and import the document once.
//  6. Save the source time captured in step 2 as the new watermark.
//
// An empty plan skips steps 4 and 5 entirely. A move rejected by the target
// is logged and counted; every other error aborts the run before step 6, so
// the next run reprocesses the same window.
//
// Plan runs steps 1 to 3 only and is used by the plan and inspect commands.
package orchestrator

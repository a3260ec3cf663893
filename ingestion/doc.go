// Package ingestion keeps a ranked result list live while sessions stream
// in and the query changes.
//
// A Pipeline is driven by its owner calling Tick on a fixed cadence. Each
// tick:
//   - applies the newest ranking result if it belongs to the last dispatched job
//   - ingests a bounded number of sessions from the inbound stream
//   - reparses the coarse index after query edits and advances it
//   - dispatches a ranking job when something changed, at most once per
//     debounce interval
//
// Ranking runs on a single background worker. Jobs are tagged with
// increasing ids and only the result of the most recently dispatched job is
// ever applied; older results are discarded when they arrive. There is no
// other cancellation.
//
// Tick, SetQuery and the accessors must be called from one goroutine.
package ingestion

// Package tui is the interactive search screen. It owns no search state of
// its own: every poll tick advances an ingestion.Pipeline and the view shows
// whatever results the pipeline has applied so far.
package tui

// Package snapshot writes the end-of-run CSV artifacts: one file with
// every match harvested during the run and one with per-event
// summaries. Both files of a run share a timestamp so they can be
// paired afterwards. Snapshots complement the SQLite store; they are
// a portable export, not the source of truth.
package snapshot

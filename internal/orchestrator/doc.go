// Package orchestrator drives a harvesting run end to end. It asks the
// store for the backlog of unprocessed events, fans them out to a
// bounded worker pool, and persists each result the moment it
// completes, so interrupting a run loses only the events still in
// flight. When the backlog is drained it writes the run's CSV
// snapshot artifacts and logs final statistics.
package orchestrator

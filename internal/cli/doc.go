// Package cli implements the command-line interface for ajp-results.
//
// The root command runs a harvest: it loads configuration, opens the
// database, and drives the orchestrator until the backlog is drained
// or the run is interrupted. The stats, export, and reset subcommands
// operate on the database without touching the network.
package cli

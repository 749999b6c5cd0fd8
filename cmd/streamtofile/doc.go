// Package main hosts the streamtofile CLI entrypoint and command graph.
//
// The Cobra command tree starts the HTTP server, runs one-shot conversions
// into a local directory, reports dependency and directory health, sweeps
// stale scratch artifacts, and scaffolds configuration. Configuration is
// resolved once per invocation so subcommands can focus on user experience.
//
// Keep this package lean: behavior lives in the internal packages and is only
// surfaced here.
package main

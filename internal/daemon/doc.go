// Package daemon runs the long-lived HTTP server that accepts conversion
// requests.
//
// It wires configuration, the conversion service, and the delivery manager
// into a single lifecycle guarded by a flock on the scratch directory, so two
// servers never share (or sweep) the same scratch space. The daemon also owns
// the periodic stale-artifact sweep and aggregates dependency health for the
// status endpoint.
//
// Keep request semantics in the convert and delivery packages; this package
// focuses on routing, startup, shutdown, and background upkeep.
package daemon

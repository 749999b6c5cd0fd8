// Package services defines shared utilities consumed by the conversion
// pipeline and its external tool clients.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP statuses (400 vs 500).
//   - DiagnosticError, which carries captured tool output to the response
//     layer without string parsing.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform.
package services

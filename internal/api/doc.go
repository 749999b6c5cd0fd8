// Package api defines wire-format types and converters for the HTTP layer.
//
// ConvertRequest is decoded from either a JSON or a form-urlencoded body,
// matching what browser forms and scripted clients send. ErrorResponse is the
// single error envelope: {"error": "...", "details": "..."}.
//
// ServerStatus aggregates preflight checks, dependency availability, and
// in-flight job counts for GET {base_path}/api/status and the CLI status
// command.
//
// DTOs use camelCase JSON tags, except the convert request whose field names
// are fixed by existing clients.
package api

package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrConfiguration    = errors.New("configuration error")
	ErrConversion       = errors.New("conversion failed")
	ErrTimeout          = errors.New("timeout")
	ErrCanceled         = errors.New("canceled")
	ErrArtifactNotFound = errors.New("output file not found")
	ErrDelivery         = errors.New("delivery error")
	ErrCleanup          = errors.New("cleanup error")
)

// Error is a classified pipeline failure. Marker is one of the exported
// sentinels above and stays reachable through errors.Is.
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Marker, detail, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Marker, detail)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrConversion
	}
	return &Error{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// ClientMessage returns the message a Wrap call recorded, without stage
// prefixes, or fallback when err carries none.
func ClientMessage(err error, fallback string) string {
	var svcErr *Error
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return fallback
}

// HTTPStatus maps a pipeline error to the response status returned to clients.
// Validation problems are the client's fault; everything else is a server failure.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DiagnosticError carries the captured tool output alongside a classified failure.
type DiagnosticError struct {
	Err        error
	ExitCode   int
	Diagnostic string
}

func (e *DiagnosticError) Error() string {
	if e == nil || e.Err == nil {
		return "conversion failed"
	}
	return e.Err.Error()
}

func (e *DiagnosticError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DiagnosticFrom returns the tool diagnostic attached to err, if any.
func DiagnosticFrom(err error) (string, bool) {
	var diag *DiagnosticError
	if errors.As(err, &diag) && strings.TrimSpace(diag.Diagnostic) != "" {
		return diag.Diagnostic, true
	}
	return "", false
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
